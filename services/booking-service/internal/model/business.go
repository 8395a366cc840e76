package model

import (
	"fmt"
	"time"
)

const (
	DefaultSlotDurationMinutes = 60
	DefaultSlotIntervalMinutes = 30
	DefaultMaxAppointments     = 20
)

// BusinessProfile is the single row of shop metadata. The Default* fields
// seed schedules saved without their own slot settings.
type BusinessProfile struct {
	Name                       string
	Phone                      string
	Email                      string
	Address                    string
	DefaultSlotDurationMinutes int
	DefaultSlotIntervalMinutes int
	DefaultMaxAppointments     int
	UpdatedAt                  time.Time
}

func (p BusinessProfile) Validate() error {
	var v ValidationError
	if p.Name == "" {
		v.Add("nombre", "es obligatorio")
	}
	if p.DefaultSlotDurationMinutes <= 0 {
		v.Add("duracion_turno", "debe ser mayor a 0")
	}
	if p.DefaultSlotIntervalMinutes <= 0 {
		v.Add("intervalo_turnos", "debe ser mayor a 0")
	}
	if p.DefaultMaxAppointments < 0 {
		v.Add("max_turnos", "no puede ser negativo")
	}
	return v.Err()
}

// WeekdaySchedule holds the opening hours for one weekday (0=Monday).
type WeekdaySchedule struct {
	Weekday             int
	IsOpen              bool
	Open                *TimeOfDay
	Close               *TimeOfDay
	BreakStart          *TimeOfDay
	BreakEnd            *TimeOfDay
	SlotDurationMinutes int
	SlotIntervalMinutes int
	// MaxAppointments is informational; booking does not enforce it.
	MaxAppointments int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ClosedSchedule is what an unconfigured weekday looks like.
func ClosedSchedule(weekday int) WeekdaySchedule {
	return WeekdaySchedule{
		Weekday:             weekday,
		SlotDurationMinutes: DefaultSlotDurationMinutes,
		SlotIntervalMinutes: DefaultSlotIntervalMinutes,
		MaxAppointments:     DefaultMaxAppointments,
	}
}

// InBreak reports whether t falls in [BreakStart, BreakEnd).
func (s WeekdaySchedule) InBreak(t TimeOfDay) bool {
	if s.BreakStart == nil || s.BreakEnd == nil {
		return false
	}
	return *s.BreakStart <= t && t < *s.BreakEnd
}

func (s WeekdaySchedule) Validate() error {
	var v ValidationError
	field := func(name string) string { return fmt.Sprintf("horarios[%d].%s", s.Weekday, name) }

	if s.Weekday < 0 || s.Weekday > 6 {
		v.Add("dia_semana", "debe estar entre 0 y 6")
	}
	for name, t := range map[string]*TimeOfDay{
		"hora_apertura":        s.Open,
		"hora_cierre":          s.Close,
		"hora_descanso_inicio": s.BreakStart,
		"hora_descanso_fin":    s.BreakEnd,
	} {
		if t != nil && !t.Valid() {
			v.Add(field(name), "hora inválida")
		}
	}
	if s.IsOpen {
		if s.Open == nil || s.Close == nil {
			v.Add(field("hora_apertura"), "apertura y cierre son obligatorios si el día está abierto")
		} else if *s.Open >= *s.Close {
			v.Add(field("hora_cierre"), "debe ser posterior a la apertura")
		}
	}
	if (s.BreakStart == nil) != (s.BreakEnd == nil) {
		v.Add(field("hora_descanso_inicio"), "el descanso necesita inicio y fin")
	} else if s.BreakStart != nil && *s.BreakStart >= *s.BreakEnd {
		v.Add(field("hora_descanso_fin"), "debe ser posterior al inicio del descanso")
	}
	if s.SlotDurationMinutes <= 0 {
		v.Add(field("duracion_turno"), "debe ser mayor a 0")
	}
	if s.SlotIntervalMinutes <= 0 {
		v.Add(field("intervalo_turnos"), "debe ser mayor a 0")
	}
	if s.MaxAppointments < 0 {
		v.Add(field("max_turnos"), "no puede ser negativo")
	}
	return v.Err()
}
