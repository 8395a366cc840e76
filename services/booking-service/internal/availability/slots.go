package availability

import "github.com/barberbook/barberbook/services/booking-service/internal/model"

const (
	StateAvailable = "disponible"
	StateBooked    = "reservado"
)

// SlotStatus is one candidate start time and whether it can still be booked.
type SlotStatus struct {
	Time      model.TimeOfDay `json:"hora"`
	Available bool            `json:"disponible"`
	State     string          `json:"estado"`
}

// GenerateSlots lists the bookable start times of a weekday: from Open,
// stepping by SlotIntervalMinutes, strictly before Close, skipping
// [BreakStart, BreakEnd). Closed or incomplete schedules yield no slots.
func GenerateSlots(s model.WeekdaySchedule) []model.TimeOfDay {
	if !s.IsOpen || s.Open == nil || s.Close == nil || s.SlotIntervalMinutes <= 0 {
		return []model.TimeOfDay{}
	}
	step := model.TimeOfDay(s.SlotIntervalMinutes)
	slots := make([]model.TimeOfDay, 0, int(*s.Close-*s.Open)/s.SlotIntervalMinutes+1)
	for t := *s.Open; t < *s.Close; t += step {
		if s.InBreak(t) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

// Resolve marks every slot that an existing booked appointment already
// occupies. Order follows slots.
func Resolve(slots []model.TimeOfDay, booked []model.TimeOfDay) []SlotStatus {
	taken := make(map[model.TimeOfDay]bool, len(booked))
	for _, b := range booked {
		taken[b] = true
	}
	out := make([]SlotStatus, 0, len(slots))
	for _, t := range slots {
		st := SlotStatus{Time: t, Available: true, State: StateAvailable}
		if taken[t] {
			st.Available = false
			st.State = StateBooked
		}
		out = append(out, st)
	}
	return out
}

// Contains reports whether t is one of the generated slots.
func Contains(slots []model.TimeOfDay, t model.TimeOfDay) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}
