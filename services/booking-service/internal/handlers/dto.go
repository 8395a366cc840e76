package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/barberbook/barberbook/services/booking-service/internal/availability"
	"github.com/barberbook/barberbook/services/booking-service/internal/model"
)

// looseString accepts a JSON string or number, since ids were numeric in
// older clients.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = looseString(n.String())
	return nil
}

type appointmentJSON struct {
	ID          string          `json:"id"`
	Date        string          `json:"fecha"`
	Time        model.TimeOfDay `json:"hora"`
	ServiceID   string          `json:"servicio_id"`
	ClientName  string          `json:"nombre_cliente"`
	ClientPhone string          `json:"telefono_cliente"`
	ClientID    string          `json:"client_id"`
	Status      string          `json:"estado"`
	Token       string          `json:"token_cancelacion,omitempty"`
	CreatedAt   string          `json:"creado_en"`
	UpdatedAt   string          `json:"actualizado_en"`
}

// toAppointmentJSON leaves the cancellation token out unless withToken is set;
// only the client that booked ever sees it.
func toAppointmentJSON(a model.Appointment, withToken bool) appointmentJSON {
	out := appointmentJSON{
		ID:          a.ID,
		Date:        model.FormatDate(a.Date),
		Time:        a.Time,
		ServiceID:   a.ServiceID,
		ClientName:  a.ClientName,
		ClientPhone: a.ClientPhone,
		ClientID:    a.ClientID,
		Status:      string(a.Status),
		CreatedAt:   formatTimestamp(a.CreatedAt),
		UpdatedAt:   formatTimestamp(a.UpdatedAt),
	}
	if withToken {
		out.Token = a.CancellationToken
	}
	return out
}

type appointmentDetailJSON struct {
	appointmentJSON
	ServiceName     string      `json:"nombre_servicio"`
	ServiceCategory string      `json:"categoria"`
	ServicePrice    json.Number `json:"precio"`
}

func toDetailJSON(d model.AppointmentDetail) appointmentDetailJSON {
	return appointmentDetailJSON{
		appointmentJSON: toAppointmentJSON(d.Appointment, false),
		ServiceName:     d.ServiceName,
		ServiceCategory: d.ServiceCategory,
		ServicePrice:    json.Number(d.ServicePrice.StringFixed(2)),
	}
}

type serviceJSON struct {
	ID        string      `json:"id"`
	Name      string      `json:"nombre_servicio"`
	Category  string      `json:"categoria"`
	Price     json.Number `json:"precio"`
	Active    bool        `json:"activo"`
	CreatedAt string      `json:"creado_en"`
	UpdatedAt string      `json:"actualizado_en"`
}

func toServiceJSON(s model.Service) serviceJSON {
	return serviceJSON{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		Price:     json.Number(s.Price.StringFixed(2)),
		Active:    s.Active,
		CreatedAt: formatTimestamp(s.CreatedAt),
		UpdatedAt: formatTimestamp(s.UpdatedAt),
	}
}

type scheduleJSON struct {
	Weekday             int     `json:"dia_semana"`
	IsOpen              bool    `json:"abierto"`
	Open                *string `json:"hora_apertura"`
	Close               *string `json:"hora_cierre"`
	BreakStart          *string `json:"hora_descanso_inicio"`
	BreakEnd            *string `json:"hora_descanso_fin"`
	SlotDurationMinutes int     `json:"duracion_turno"`
	SlotIntervalMinutes int     `json:"intervalo_turnos"`
	MaxAppointments     int     `json:"max_turnos"`
	UpdatedAt           string  `json:"actualizado_en,omitempty"`
}

func timeString(t *model.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func toScheduleJSON(s model.WeekdaySchedule) scheduleJSON {
	return scheduleJSON{
		Weekday:             s.Weekday,
		IsOpen:              s.IsOpen,
		Open:                timeString(s.Open),
		Close:               timeString(s.Close),
		BreakStart:          timeString(s.BreakStart),
		BreakEnd:            timeString(s.BreakEnd),
		SlotDurationMinutes: s.SlotDurationMinutes,
		SlotIntervalMinutes: s.SlotIntervalMinutes,
		MaxAppointments:     s.MaxAppointments,
		UpdatedAt:           formatTimestamp(s.UpdatedAt),
	}
}

func toSchedulesJSON(in []model.WeekdaySchedule) []scheduleJSON {
	out := make([]scheduleJSON, 0, len(in))
	for _, s := range in {
		out = append(out, toScheduleJSON(s))
	}
	return out
}

type dayJSON struct {
	Date  string                    `json:"fecha"`
	Slots []availability.SlotStatus `json:"horarios"`
}
