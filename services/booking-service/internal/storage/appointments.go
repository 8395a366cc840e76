package storage

import (
	"context"
	"time"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *db.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func activeByClient(ctx context.Context, q querier, clientID string) (model.Appointment, error) {
	return scanAppointment(q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_id = $1 AND status = 'booked'
	`, clientID))
}

func (r *Repository) ActiveByClient(ctx context.Context, clientID string) (model.Appointment, error) {
	return activeByClient(ctx, r.pool, clientID)
}

// BookedTimes returns the start times of booked appointments on date,
// across all services.
func (r *Repository) BookedTimes(ctx context.Context, date time.Time) ([]model.TimeOfDay, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_minute
		FROM appointments
		WHERE appointment_date = $1 AND status = 'booked'
		ORDER BY start_minute
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimeOfDay
	for rows.Next() {
		var minute int
		if err := rows.Scan(&minute); err != nil {
			return nil, err
		}
		out = append(out, model.TimeOfDay(minute))
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListByRange returns appointments with from <= date <= to in the given
// status, ordered by date then time.
func (r *Repository) ListByRange(ctx context.Context, from, to time.Time, status model.AppointmentStatus) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_date BETWEEN $1 AND $2 AND status = $3
		ORDER BY appointment_date ASC, start_minute ASC
	`, from, to, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListDetails joins appointments with their service, newest date first and
// earliest time first within a day. A nil date lists everything.
func (r *Repository) ListDetails(ctx context.Context, date *time.Time) ([]model.AppointmentDetail, error) {
	sql := `
		SELECT a.id::text, a.appointment_date, a.start_minute, a.service_id::text, a.client_name,
			a.client_phone, a.client_id, a.status, a.cancellation_token, a.created_at, a.updated_at,
			COALESCE(s.name, ''), COALESCE(s.category, ''), COALESCE(s.price, 0)::text
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id`
	var args []any
	if date != nil {
		sql += ` WHERE a.appointment_date = $1`
		args = append(args, *date)
	}
	sql += ` ORDER BY a.appointment_date DESC, a.start_minute ASC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AppointmentDetail{}
	for rows.Next() {
		var (
			d      model.AppointmentDetail
			minute int
			status string
			price  string
		)
		if err := rows.Scan(&d.ID, &d.Date, &minute, &d.ServiceID, &d.ClientName,
			&d.ClientPhone, &d.ClientID, &status, &d.CancellationToken, &d.CreatedAt, &d.UpdatedAt,
			&d.ServiceName, &d.ServiceCategory, &price); err != nil {
			return nil, err
		}
		d.Date = model.DateOf(d.Date)
		d.Time = model.TimeOfDay(minute)
		d.Status = model.AppointmentStatus(status)
		if d.ServicePrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
