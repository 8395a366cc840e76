package storage

import (
	"context"
	"time"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/barberbook/barberbook/services/booking-service/internal/outbox"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AppointmentTx is the transactional view the booking engine works with.
// Lookups return ErrNotFound when nothing matches.
type AppointmentTx interface {
	ActiveByClient(ctx context.Context, clientID string) (model.Appointment, error)
	SlotBooked(ctx context.Context, date time.Time, t model.TimeOfDay, serviceID string) (bool, error)
	WeekdaySchedule(ctx context.Context, weekday int) (model.WeekdaySchedule, error)
	Service(ctx context.Context, id string) (model.Service, error)
	// InsertAppointment assigns ID and timestamps. It fails with
	// ErrClientHasActive, ErrSlotTaken or ErrTokenCollision when a unique
	// index rejects the row, leaving the transaction usable.
	InsertAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error)
	BookedByTokenForUpdate(ctx context.Context, token string) (model.Appointment, error)
	GetForUpdate(ctx context.Context, id string) (model.Appointment, error)
	SetStatus(ctx context.Context, id string, status model.AppointmentStatus) (model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	Enqueue(ctx context.Context, evt outbox.Event) error
}

type pgAppointmentTx struct {
	tx     pgx.Tx
	outbox *outbox.Repository
}

const appointmentColumns = `id::text, appointment_date, start_minute, service_id::text, client_name,
	client_phone, client_id, status, cancellation_token, created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		a      model.Appointment
		minute int
		status string
	)
	err := row.Scan(&a.ID, &a.Date, &minute, &a.ServiceID, &a.ClientName,
		&a.ClientPhone, &a.ClientID, &status, &a.CancellationToken, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, translate(err)
	}
	a.Date = model.DateOf(a.Date)
	a.Time = model.TimeOfDay(minute)
	a.Status = model.AppointmentStatus(status)
	return a, nil
}

func (t *pgAppointmentTx) ActiveByClient(ctx context.Context, clientID string) (model.Appointment, error) {
	return activeByClient(ctx, t.tx, clientID)
}

func (t *pgAppointmentTx) SlotBooked(ctx context.Context, date time.Time, tod model.TimeOfDay, serviceID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE appointment_date = $1 AND start_minute = $2 AND service_id::text = $3 AND status = 'booked'
		)
	`, date, int(tod), serviceID).Scan(&exists)
	return exists, translate(err)
}

func (t *pgAppointmentTx) WeekdaySchedule(ctx context.Context, weekday int) (model.WeekdaySchedule, error) {
	return weekdaySchedule(ctx, t.tx, weekday)
}

func (t *pgAppointmentTx) Service(ctx context.Context, id string) (model.Service, error) {
	return getService(ctx, t.tx, id)
}

func (t *pgAppointmentTx) InsertAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusBooked
	}
	// A savepoint keeps the outer transaction alive after a unique violation
	// so the caller can retry with a fresh token.
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	row := sp.QueryRow(ctx, `
		INSERT INTO appointments
			(id, appointment_date, start_minute, service_id, client_name, client_phone, client_id, status, cancellation_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+appointmentColumns,
		a.ID, a.Date, int(a.Time), a.ServiceID, a.ClientName, a.ClientPhone, a.ClientID, string(a.Status), a.CancellationToken)
	out, err := scanAppointment(row)
	if err != nil {
		_ = sp.Rollback(ctx)
		return model.Appointment{}, err
	}
	if err := sp.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return out, nil
}

func (t *pgAppointmentTx) BookedByTokenForUpdate(ctx context.Context, token string) (model.Appointment, error) {
	return scanAppointment(t.tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE cancellation_token = $1 AND status = 'booked'
		FOR UPDATE
	`, token))
}

func (t *pgAppointmentTx) GetForUpdate(ctx context.Context, id string) (model.Appointment, error) {
	return scanAppointment(t.tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (t *pgAppointmentTx) SetStatus(ctx context.Context, id string, status model.AppointmentStatus) (model.Appointment, error) {
	return scanAppointment(t.tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, string(status)))
}

func (t *pgAppointmentTx) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgAppointmentTx) Enqueue(ctx context.Context, evt outbox.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}
