package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	otelx "github.com/barberbook/barberbook/libs/otel"
	"github.com/barberbook/barberbook/services/booking-service/internal/availability"
	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/barberbook/barberbook/services/booking-service/internal/outbox"
	"github.com/barberbook/barberbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxTokenAttempts bounds retries after a cancellation token collision.
const maxTokenAttempts = 3

// Store is the persistence the engine needs; *storage.Repository and
// memstore.Store both satisfy it.
type Store interface {
	InTx(ctx context.Context, fn func(storage.AppointmentTx) error) error
	ActiveByClient(ctx context.Context, clientID string) (model.Appointment, error)
	ListByRange(ctx context.Context, from, to time.Time, status model.AppointmentStatus) ([]model.Appointment, error)
	ListDetails(ctx context.Context, date *time.Time) ([]model.AppointmentDetail, error)
}

type Engine struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
	tokens func() (string, error)
	tracer trace.Tracer
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the business timezone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

func WithTokenSource(fn func() (string, error)) Option {
	return func(e *Engine) { e.tokens = fn }
}

func NewEngine(store Store, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: logger,
		loc:    time.Local,
		now:    time.Now,
		tokens: NewCancellationToken,
		tracer: otelx.Tracer("booking"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today is the current calendar date in the business timezone.
func (e *Engine) Today() time.Time {
	return model.DateOf(e.now().In(e.loc))
}

type BookingRequest struct {
	Date        time.Time
	Time        model.TimeOfDay
	ServiceID   string
	ClientName  string
	ClientPhone string
	ClientID    string
}

func (r *BookingRequest) normalize() {
	r.Date = model.DateOf(r.Date)
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.ClientPhone = strings.TrimSpace(r.ClientPhone)
	r.ClientID = strings.TrimSpace(r.ClientID)
}

func (r BookingRequest) Validate() error {
	var v model.ValidationError
	if r.Date.IsZero() {
		v.Add("fecha", "es obligatoria")
	}
	if !r.Time.Valid() {
		v.Add("hora", "hora inválida")
	}
	if r.ServiceID == "" {
		v.Add("servicio_id", "es obligatorio")
	}
	if r.ClientName == "" {
		v.Add("nombre_cliente", "es obligatorio")
	}
	if r.ClientPhone == "" {
		v.Add("telefono_cliente", "es obligatorio")
	}
	if r.ClientID == "" {
		v.Add("client_id", "es obligatorio")
	}
	return v.Err()
}

// Book reserves a slot. Rules are checked in order inside one transaction;
// the unique indexes decide the outcome when two requests race.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	req.normalize()
	ctx, span := e.tracer.Start(ctx, "booking.Book", trace.WithAttributes(
		attribute.String("booking.date", model.FormatDate(req.Date)),
		attribute.String("booking.time", req.Time.String()),
		attribute.String("booking.service_id", req.ServiceID),
	))
	defer span.End()

	if err := req.Validate(); err != nil {
		return model.Appointment{}, err
	}

	var created model.Appointment
	err := e.store.InTx(ctx, func(tx storage.AppointmentTx) error {
		if err := e.checkRules(ctx, tx, req); err != nil {
			return err
		}
		appt, err := e.insert(ctx, tx, req)
		if err != nil {
			return err
		}
		evt, err := outbox.AppointmentEvent(outbox.AppointmentBooked, appt, e.now())
		if err != nil {
			return err
		}
		if err := tx.Enqueue(ctx, evt); err != nil {
			return fmt.Errorf("enqueue booked event: %w", err)
		}
		created = appt
		return nil
	})
	if err != nil {
		recordError(span, err)
		return model.Appointment{}, err
	}

	span.SetAttributes(attribute.String("booking.appointment_id", created.ID))
	e.logger.Info("appointment booked",
		"appointment_id", created.ID,
		"date", model.FormatDate(created.Date),
		"time", created.Time.String(),
		"service_id", created.ServiceID,
	)
	return created, nil
}

func (e *Engine) checkRules(ctx context.Context, tx storage.AppointmentTx, req BookingRequest) error {
	if _, err := tx.ActiveByClient(ctx, req.ClientID); err == nil {
		return ErrAlreadyBooked
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check active appointment: %w", err)
	}

	taken, err := tx.SlotBooked(ctx, req.Date, req.Time, req.ServiceID)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	// Only whole past days are rejected; earlier hours of today stay bookable.
	if req.Date.Before(e.Today()) {
		return ErrPastDate
	}

	sched, err := tx.WeekdaySchedule(ctx, model.WeekdayOf(req.Date))
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	if !availability.Contains(availability.GenerateSlots(sched), req.Time) {
		return ErrOutsideHours
	}

	svc, err := tx.Service(ctx, req.ServiceID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUnknownService
	}
	if err != nil {
		return fmt.Errorf("load service: %w", err)
	}
	if !svc.Active {
		return ErrUnknownService
	}
	return nil
}

func (e *Engine) insert(ctx context.Context, tx storage.AppointmentTx, req BookingRequest) (model.Appointment, error) {
	for attempt := 1; ; attempt++ {
		token, err := e.tokens()
		if err != nil {
			return model.Appointment{}, fmt.Errorf("generate cancellation token: %w", err)
		}
		appt, err := tx.InsertAppointment(ctx, model.Appointment{
			Date:              req.Date,
			Time:              req.Time,
			ServiceID:         req.ServiceID,
			ClientName:        req.ClientName,
			ClientPhone:       req.ClientPhone,
			ClientID:          req.ClientID,
			Status:            model.StatusBooked,
			CancellationToken: token,
		})
		switch {
		case err == nil:
			return appt, nil
		case errors.Is(err, storage.ErrClientHasActive):
			return model.Appointment{}, ErrAlreadyBooked
		case errors.Is(err, storage.ErrSlotTaken):
			return model.Appointment{}, ErrSlotTaken
		case errors.Is(err, storage.ErrTokenCollision) && attempt < maxTokenAttempts:
			e.logger.Warn("cancellation token collision, retrying", "attempt", attempt)
			continue
		default:
			return model.Appointment{}, fmt.Errorf("insert appointment: %w", err)
		}
	}
}

// CancelByToken cancels the booked appointment holding token. Unknown and
// already cancelled tokens fail the same way.
func (e *Engine) CancelByToken(ctx context.Context, token string) (model.Appointment, error) {
	ctx, span := e.tracer.Start(ctx, "booking.CancelByToken")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return model.Appointment{}, ErrInvalidToken
	}

	var cancelled model.Appointment
	err := e.store.InTx(ctx, func(tx storage.AppointmentTx) error {
		appt, err := tx.BookedByTokenForUpdate(ctx, token)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("lookup token: %w", err)
		}
		if cancelled, err = e.transition(ctx, tx, appt, model.StatusCancelled, outbox.AppointmentCancelled); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return model.Appointment{}, err
	}
	e.logger.Info("appointment cancelled", "appointment_id", cancelled.ID)
	return cancelled, nil
}

func (e *Engine) transition(ctx context.Context, tx storage.AppointmentTx, appt model.Appointment, to model.AppointmentStatus, eventType string) (model.Appointment, error) {
	updated, err := tx.SetStatus(ctx, appt.ID, to)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("set status %s: %w", to, err)
	}
	evt, err := outbox.AppointmentEvent(eventType, updated, e.now())
	if err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Enqueue(ctx, evt); err != nil {
		return model.Appointment{}, fmt.Errorf("enqueue %s: %w", eventType, err)
	}
	return updated, nil
}

// ActiveAppointment returns the client's booked appointment, or nil.
func (e *Engine) ActiveAppointment(ctx context.Context, clientID string) (*model.Appointment, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		var v model.ValidationError
		v.Add("client_id", "es obligatorio")
		return nil, v.Err()
	}
	appt, err := e.store.ActiveByClient(ctx, clientID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Filter selects appointments for the admin listing. Status defaults to booked.
type Filter struct {
	From   time.Time
	To     time.Time
	Status model.AppointmentStatus
}

func (e *Engine) List(ctx context.Context, f Filter) ([]model.Appointment, error) {
	var v model.ValidationError
	if f.From.IsZero() {
		v.Add("fecha_inicio", "es obligatoria")
	}
	if f.To.IsZero() {
		v.Add("fecha_fin", "es obligatoria")
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		v.Add("fecha_fin", "debe ser igual o posterior a fecha_inicio")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if f.Status == "" {
		f.Status = model.StatusBooked
	}
	return e.store.ListByRange(ctx, model.DateOf(f.From), model.DateOf(f.To), f.Status)
}

// ListAll returns every appointment with its service, optionally for one date.
func (e *Engine) ListAll(ctx context.Context, date *time.Time) ([]model.AppointmentDetail, error) {
	if date != nil {
		d := model.DateOf(*date)
		date = &d
	}
	return e.store.ListDetails(ctx, date)
}

// Complete marks an appointment as attended. Completing twice is a no-op;
// cancelled appointments cannot be completed.
func (e *Engine) Complete(ctx context.Context, id string) (model.Appointment, error) {
	ctx, span := e.tracer.Start(ctx, "booking.Complete", trace.WithAttributes(attribute.String("booking.appointment_id", id)))
	defer span.End()

	var done model.Appointment
	err := e.store.InTx(ctx, func(tx storage.AppointmentTx) error {
		appt, err := tx.GetForUpdate(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}
		switch appt.Status {
		case model.StatusCompleted:
			done = appt
			return nil
		case model.StatusCancelled:
			return ErrNotCompletable
		}
		done, err = e.transition(ctx, tx, appt, model.StatusCompleted, outbox.AppointmentCompleted)
		return err
	})
	if err != nil {
		recordError(span, err)
		return model.Appointment{}, err
	}
	return done, nil
}

// Delete removes an appointment permanently, whatever its status.
func (e *Engine) Delete(ctx context.Context, id string) error {
	ctx, span := e.tracer.Start(ctx, "booking.Delete", trace.WithAttributes(attribute.String("booking.appointment_id", id)))
	defer span.End()

	err := e.store.InTx(ctx, func(tx storage.AppointmentTx) error {
		appt, err := tx.GetForUpdate(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}
		if err := tx.DeleteAppointment(ctx, id); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		evt, err := outbox.AppointmentEvent(outbox.AppointmentDeleted, appt, e.now())
		if err != nil {
			return err
		}
		return tx.Enqueue(ctx, evt)
	})
	if err != nil {
		recordError(span, err)
		return err
	}
	e.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

// recordError marks the span failed for unexpected errors only; rule
// rejections are normal outcomes.
func recordError(span trace.Span, err error) {
	if e, ok := AsError(err); ok {
		span.SetAttributes(attribute.String("booking.rejected", string(e.Code)))
		return
	}
	var v *model.ValidationError
	if errors.As(err, &v) || errors.Is(err, ErrNotFound) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
