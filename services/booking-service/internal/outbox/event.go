package outbox

import (
	"encoding/json"
	"time"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/google/uuid"
)

const AggregateAppointment = "appointment"

// Event types double as Kafka topic names.
const (
	AppointmentBooked    = "appointment.booked.v1"
	AppointmentCancelled = "appointment.cancelled.v1"
	AppointmentCompleted = "appointment.completed.v1"
	AppointmentDeleted   = "appointment.deleted.v1"
)

// Event is the domain event envelope written to the outbox table.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentPayload carries no client name or phone; consumers look those
// up if they need them.
type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	Date          string    `json:"fecha"`
	Time          string    `json:"hora"`
	ServiceID     string    `json:"servicio_id"`
	ClientID      string    `json:"client_id"`
	Status        string    `json:"estado"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func AppointmentEvent(eventType string, a model.Appointment, at time.Time) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: a.ID,
		Date:          model.FormatDate(a.Date),
		Time:          a.Time.String(),
		ServiceID:     a.ServiceID,
		ClientID:      a.ClientID,
		Status:        string(a.Status),
		OccurredAt:    at.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.NewString(),
		AggregateType: AggregateAppointment,
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
