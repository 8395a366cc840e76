package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func tod(s string) *TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
		ok   bool
	}{
		{"09:00", NewTimeOfDay(9, 0), true},
		{"13:30:00", NewTimeOfDay(13, 30), true},
		{" 18:05 ", NewTimeOfDay(18, 5), true},
		{"25:00", 0, false},
		{"9am", 0, false},
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("ParseTimeOfDay(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Fatalf("ParseTimeOfDay(%q) expected error", c.in)
		}
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Hora TimeOfDay `json:"hora"`
	}{NewTimeOfDay(9, 5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"hora":"09:05"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var back struct {
		Hora TimeOfDay `json:"hora"`
	}
	if err := json.Unmarshal(b, &back); err != nil || back.Hora != NewTimeOfDay(9, 5) {
		t.Fatalf("unmarshal: %v %v", back.Hora, err)
	}
}

func TestWeekdayOfStartsMonday(t *testing.T) {
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if got := WeekdayOf(monday.AddDate(0, 0, i)); got != i {
			t.Fatalf("day %d: WeekdayOf = %d", i, got)
		}
	}
}

func TestScheduleValidate(t *testing.T) {
	good := ClosedSchedule(0)
	good.IsOpen = true
	good.Open, good.Close = tod("09:00"), tod("18:00")
	good.BreakStart, good.BreakEnd = tod("13:00"), tod("14:00")
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid schedule, got %v", err)
	}

	cases := map[string]func(s *WeekdaySchedule){
		"open without hours":   func(s *WeekdaySchedule) { s.Open, s.Close = nil, nil },
		"close before open":    func(s *WeekdaySchedule) { s.Close = tod("08:00") },
		"half a break":         func(s *WeekdaySchedule) { s.BreakEnd = nil },
		"inverted break":       func(s *WeekdaySchedule) { s.BreakStart, s.BreakEnd = tod("14:00"), tod("13:00") },
		"zero interval":        func(s *WeekdaySchedule) { s.SlotIntervalMinutes = 0 },
		"negative duration":    func(s *WeekdaySchedule) { s.SlotDurationMinutes = -5 },
		"weekday out of range": func(s *WeekdaySchedule) { s.Weekday = 7 },
	}
	for name, mutate := range cases {
		s := good
		mutate(&s)
		err := s.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", name, err)
		}
	}

	closed := ClosedSchedule(6)
	if err := closed.Validate(); err != nil {
		t.Fatalf("closed day without hours should be valid: %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus("reservado"); err != nil || st != StatusBooked {
		t.Fatalf("alias not mapped: %v %v", st, err)
	}
	if _, err := ParseStatus("pending"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
