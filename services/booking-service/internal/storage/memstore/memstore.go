// Package memstore is an in-memory stand-in for storage.Repository used by
// tests. It mirrors the Postgres unique indexes so constraint-driven paths
// behave the same.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/barberbook/barberbook/services/booking-service/internal/outbox"
	"github.com/barberbook/barberbook/services/booking-service/internal/storage"
	"github.com/google/uuid"
)

type state struct {
	profile      *model.BusinessProfile
	schedules    map[int]model.WeekdaySchedule
	services     map[string]model.Service
	appointments map[string]model.Appointment
	admins       map[string]model.AdminUser
	events       []outbox.Event
}

func (s state) clone() state {
	c := state{
		schedules:    make(map[int]model.WeekdaySchedule, len(s.schedules)),
		services:     make(map[string]model.Service, len(s.services)),
		appointments: make(map[string]model.Appointment, len(s.appointments)),
		admins:       make(map[string]model.AdminUser, len(s.admins)),
		events:       append([]outbox.Event(nil), s.events...),
	}
	if s.profile != nil {
		p := *s.profile
		c.profile = &p
	}
	for k, v := range s.schedules {
		c.schedules[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.admins {
		c.admins[k] = v
	}
	return c
}

type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time

	// FailInsert, when set, is returned by the next InsertAppointment calls
	// before any index check. Tests use it to force token collisions.
	FailInsert []error
}

func New() *Store {
	return &Store{
		st: state{
			schedules:    map[int]model.WeekdaySchedule{},
			services:     map[string]model.Service{},
			appointments: map[string]model.Appointment{},
			admins:       map[string]model.AdminUser{},
		},
		now: time.Now,
	}
}

// InTx serialises transactions and discards every write when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(storage.AppointmentTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&tx{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return ctx.Err()
}

// Events returns a copy of every committed outbox event.
func (s *Store) Events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Event(nil), s.st.events...)
}

// PutAppointment stores a fixture row as is, bypassing the indexes.
func (s *Store) PutAppointment(a model.Appointment) model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.st.appointments[a.ID] = a
	return a
}

func (s *Store) Appointment(id string) (model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.appointments[id]
	return a, ok
}

func (s *Store) activeByClient(clientID string) (model.Appointment, error) {
	for _, a := range s.st.appointments {
		if a.ClientID == clientID && a.Status == model.StatusBooked {
			return a, nil
		}
	}
	return model.Appointment{}, storage.ErrNotFound
}

func (s *Store) ActiveByClient(_ context.Context, clientID string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeByClient(clientID)
}

func (s *Store) BookedTimes(_ context.Context, date time.Time) ([]model.TimeOfDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TimeOfDay
	for _, a := range s.st.appointments {
		if a.Status == model.StatusBooked && a.Date.Equal(date) {
			out = append(out, a.Time)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) ListByRange(_ context.Context, from, to time.Time, status model.AppointmentStatus) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Appointment{}
	for _, a := range s.st.appointments {
		if a.Status == status && !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (s *Store) ListDetails(_ context.Context, date *time.Time) ([]model.AppointmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.AppointmentDetail{}
	for _, a := range s.st.appointments {
		if date != nil && !a.Date.Equal(*date) {
			continue
		}
		d := model.AppointmentDetail{Appointment: a}
		if svc, ok := s.st.services[a.ServiceID]; ok {
			d.ServiceName = svc.Name
			d.ServiceCategory = svc.Category
			d.ServicePrice = svc.Price
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (s *Store) Profile(_ context.Context) (model.BusinessProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.profile == nil {
		return model.BusinessProfile{}, storage.ErrNotFound
	}
	return *s.st.profile, nil
}

func (s *Store) weekdaySchedule(weekday int) model.WeekdaySchedule {
	if sch, ok := s.st.schedules[weekday]; ok {
		return sch
	}
	return model.ClosedSchedule(weekday)
}

func (s *Store) WeekdaySchedule(_ context.Context, weekday int) (model.WeekdaySchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weekdaySchedule(weekday), nil
}

func (s *Store) Schedules(_ context.Context) ([]model.WeekdaySchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.WeekdaySchedule, 7)
	for i := range out {
		out[i] = s.weekdaySchedule(i)
	}
	return out, nil
}

// PutSchedule stores a weekday fixture.
func (s *Store) PutSchedule(sch model.WeekdaySchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.schedules[sch.Weekday] = sch
}

func (s *Store) SaveBusinessConfig(_ context.Context, p model.BusinessProfile, schedules []model.WeekdaySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = s.now()
	s.st.profile = &p
	for _, sch := range schedules {
		sch.UpdatedAt = p.UpdatedAt
		s.st.schedules[sch.Weekday] = sch
	}
	return nil
}

func (s *Store) Service(_ context.Context, id string) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.st.services[id]
	if !ok {
		return model.Service{}, storage.ErrNotFound
	}
	return svc, nil
}

func (s *Store) Services(_ context.Context, activeOnly bool) ([]model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Service{}
	for _, svc := range s.st.services {
		if activeOnly && !svc.Active {
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) saveService(svc model.Service) (model.Service, error) {
	now := s.now()
	if svc.ID == "" {
		svc.ID = uuid.NewString()
		svc.CreatedAt = now
	} else {
		prev, ok := s.st.services[svc.ID]
		if !ok {
			return model.Service{}, storage.ErrNotFound
		}
		svc.CreatedAt = prev.CreatedAt
	}
	svc.UpdatedAt = now
	s.st.services[svc.ID] = svc
	return svc, nil
}

func (s *Store) CreateService(_ context.Context, svc model.Service) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc.ID = ""
	return s.saveService(svc)
}

func (s *Store) UpdateService(_ context.Context, svc model.Service) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == "" {
		return model.Service{}, storage.ErrNotFound
	}
	return s.saveService(svc)
}

func (s *Store) DeleteService(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.services[id]; !ok {
		return storage.ErrNotFound
	}
	for _, a := range s.st.appointments {
		if a.ServiceID == id {
			return storage.ErrInUse
		}
	}
	delete(s.st.services, id)
	return nil
}

func (s *Store) SaveServices(_ context.Context, services []model.Service) ([]model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	out := make([]model.Service, 0, len(services))
	for _, svc := range services {
		saved, err := s.saveService(svc)
		if err != nil {
			s.st = snapshot
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (s *Store) AdminByUsername(_ context.Context, username string) (model.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.admins {
		if u.Username == username {
			return u, nil
		}
	}
	return model.AdminUser{}, storage.ErrNotFound
}

func (s *Store) AdminByID(_ context.Context, id string) (model.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.admins[id]
	if !ok {
		return model.AdminUser{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) UpsertAdmin(_ context.Context, username, passwordHash string) (model.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, u := range s.st.admins {
		if u.Username == username {
			u.PasswordHash = passwordHash
			u.UpdatedAt = now
			s.st.admins[id] = u
			return u, nil
		}
	}
	u := model.AdminUser{ID: uuid.NewString(), Username: username, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	s.st.admins[u.ID] = u
	return u, nil
}
