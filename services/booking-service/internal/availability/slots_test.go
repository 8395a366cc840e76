package availability

import (
	"testing"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
)

func tod(h, m int) *model.TimeOfDay {
	t := model.NewTimeOfDay(h, m)
	return &t
}

func openDay(open, closing *model.TimeOfDay, interval int) model.WeekdaySchedule {
	s := model.ClosedSchedule(0)
	s.IsOpen = true
	s.Open = open
	s.Close = closing
	s.SlotIntervalMinutes = interval
	return s
}

func TestGenerateSlotsCountWithoutBreak(t *testing.T) {
	cases := []struct {
		name     string
		open     *model.TimeOfDay
		close    *model.TimeOfDay
		interval int
		want     int
	}{
		{"half hours", tod(9, 0), tod(18, 0), 30, 18},
		{"hours", tod(9, 0), tod(18, 0), 60, 9},
		{"uneven tail", tod(9, 0), tod(10, 50), 30, 4},
		{"interval longer than day", tod(9, 0), tod(9, 30), 45, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slots := GenerateSlots(openDay(tc.open, tc.close, tc.interval))
			if len(slots) != tc.want {
				t.Fatalf("expected %d slots, got %d (%v)", tc.want, len(slots), slots)
			}
			if slots[0] != *tc.open {
				t.Fatalf("first slot should be the opening time, got %s", slots[0])
			}
			for _, s := range slots {
				if s >= *tc.close {
					t.Fatalf("slot %s is not before close %s", s, tc.close)
				}
			}
		})
	}
}

func TestGenerateSlotsSkipsBreak(t *testing.T) {
	s := openDay(tod(9, 0), tod(18, 0), 30)
	s.BreakStart = tod(13, 0)
	s.BreakEnd = tod(14, 0)

	slots := GenerateSlots(s)
	if !Contains(slots, model.NewTimeOfDay(12, 30)) {
		t.Fatal("12:30 should be offered")
	}
	for _, blocked := range []model.TimeOfDay{model.NewTimeOfDay(13, 0), model.NewTimeOfDay(13, 30)} {
		if Contains(slots, blocked) {
			t.Fatalf("%s falls inside the break", blocked)
		}
	}
	if !Contains(slots, model.NewTimeOfDay(14, 0)) {
		t.Fatal("slots should resume at 14:00")
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	for _, slot := range slots {
		if s.InBreak(slot) {
			t.Fatalf("slot %s inside break", slot)
		}
	}
}

func TestGenerateSlotsClosedOrInvalid(t *testing.T) {
	closed := model.ClosedSchedule(6)
	if got := GenerateSlots(closed); got == nil || len(got) != 0 {
		t.Fatalf("closed day should yield an empty list, got %v", got)
	}

	missingClose := openDay(tod(9, 0), nil, 30)
	if got := GenerateSlots(missingClose); len(got) != 0 {
		t.Fatalf("open day without close time should yield nothing, got %v", got)
	}

	for _, interval := range []int{0, -15} {
		if got := GenerateSlots(openDay(tod(9, 0), tod(18, 0), interval)); len(got) != 0 {
			t.Fatalf("interval %d should yield nothing, got %v", interval, got)
		}
	}
}

func TestResolveMarksBooked(t *testing.T) {
	slots := []model.TimeOfDay{model.NewTimeOfDay(9, 0), model.NewTimeOfDay(9, 30), model.NewTimeOfDay(10, 0)}
	booked := []model.TimeOfDay{model.NewTimeOfDay(9, 30), model.NewTimeOfDay(11, 0)}

	got := Resolve(slots, booked)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	want := []bool{true, false, true}
	for i, st := range got {
		if st.Time != slots[i] {
			t.Fatalf("order changed at %d: %s", i, st.Time)
		}
		if st.Available != want[i] {
			t.Fatalf("slot %s available=%v, want %v", st.Time, st.Available, want[i])
		}
	}
	if got[1].State != StateBooked || got[0].State != StateAvailable {
		t.Fatalf("unexpected states %q %q", got[0].State, got[1].State)
	}
}
