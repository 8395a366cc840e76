package memstore

import (
	"context"
	"time"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/barberbook/barberbook/services/booking-service/internal/outbox"
	"github.com/barberbook/barberbook/services/booking-service/internal/storage"
	"github.com/google/uuid"
)

// tx runs with Store.mu held by InTx.
type tx struct {
	s *Store
}

var _ storage.AppointmentTx = (*tx)(nil)

func (t *tx) ActiveByClient(_ context.Context, clientID string) (model.Appointment, error) {
	return t.s.activeByClient(clientID)
}

func (t *tx) SlotBooked(_ context.Context, date time.Time, tod model.TimeOfDay, serviceID string) (bool, error) {
	for _, a := range t.s.st.appointments {
		if a.Status == model.StatusBooked && a.Date.Equal(date) && a.Time == tod && a.ServiceID == serviceID {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) WeekdaySchedule(_ context.Context, weekday int) (model.WeekdaySchedule, error) {
	return t.s.weekdaySchedule(weekday), nil
}

func (t *tx) Service(_ context.Context, id string) (model.Service, error) {
	svc, ok := t.s.st.services[id]
	if !ok {
		return model.Service{}, storage.ErrNotFound
	}
	return svc, nil
}

func (t *tx) InsertAppointment(_ context.Context, a model.Appointment) (model.Appointment, error) {
	if len(t.s.FailInsert) > 0 {
		err := t.s.FailInsert[0]
		t.s.FailInsert = t.s.FailInsert[1:]
		return model.Appointment{}, err
	}
	if a.Status == "" {
		a.Status = model.StatusBooked
	}
	for _, other := range t.s.st.appointments {
		if other.CancellationToken == a.CancellationToken {
			return model.Appointment{}, storage.ErrTokenCollision
		}
		if a.Status != model.StatusBooked || other.Status != model.StatusBooked {
			continue
		}
		if other.ClientID == a.ClientID {
			return model.Appointment{}, storage.ErrClientHasActive
		}
		if other.Date.Equal(a.Date) && other.Time == a.Time && other.ServiceID == a.ServiceID {
			return model.Appointment{}, storage.ErrSlotTaken
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := t.s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	t.s.st.appointments[a.ID] = a
	return a, nil
}

func (t *tx) BookedByTokenForUpdate(_ context.Context, token string) (model.Appointment, error) {
	for _, a := range t.s.st.appointments {
		if a.CancellationToken == token && a.Status == model.StatusBooked {
			return a, nil
		}
	}
	return model.Appointment{}, storage.ErrNotFound
}

func (t *tx) GetForUpdate(_ context.Context, id string) (model.Appointment, error) {
	a, ok := t.s.st.appointments[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (t *tx) SetStatus(_ context.Context, id string, status model.AppointmentStatus) (model.Appointment, error) {
	a, ok := t.s.st.appointments[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	if status == model.StatusBooked && a.Status != model.StatusBooked {
		if _, err := t.s.activeByClient(a.ClientID); err == nil {
			return model.Appointment{}, storage.ErrClientHasActive
		}
	}
	a.Status = status
	a.UpdatedAt = t.s.now()
	t.s.st.appointments[id] = a
	return a, nil
}

func (t *tx) DeleteAppointment(_ context.Context, id string) error {
	if _, ok := t.s.st.appointments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(t.s.st.appointments, id)
	return nil
}

func (t *tx) Enqueue(_ context.Context, evt outbox.Event) error {
	t.s.st.events = append(t.s.st.events, evt)
	return nil
}
