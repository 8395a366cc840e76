package storage

import (
	"context"
	"errors"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// Profile returns the shop profile, or ErrNotFound before it is first saved.
func (r *Repository) Profile(ctx context.Context) (model.BusinessProfile, error) {
	var p model.BusinessProfile
	err := r.pool.QueryRow(ctx, `
		SELECT name, phone, email, address, default_slot_duration_minutes,
			default_slot_interval_minutes, default_max_appointments, updated_at
		FROM business_profile
		WHERE id = 1
	`).Scan(&p.Name, &p.Phone, &p.Email, &p.Address, &p.DefaultSlotDurationMinutes,
		&p.DefaultSlotIntervalMinutes, &p.DefaultMaxAppointments, &p.UpdatedAt)
	if err != nil {
		return model.BusinessProfile{}, translate(err)
	}
	return p, nil
}

const scheduleColumns = `weekday, is_open, open_minute, close_minute, break_start_minute, break_end_minute,
	slot_duration_minutes, slot_interval_minutes, max_appointments, created_at, updated_at`

func scanSchedule(row pgx.Row) (model.WeekdaySchedule, error) {
	var (
		s                                   model.WeekdaySchedule
		open, closing, breakStart, breakEnd *int
	)
	err := row.Scan(&s.Weekday, &s.IsOpen, &open, &closing, &breakStart, &breakEnd,
		&s.SlotDurationMinutes, &s.SlotIntervalMinutes, &s.MaxAppointments, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.WeekdaySchedule{}, err
	}
	s.Open = minutePtr(open)
	s.Close = minutePtr(closing)
	s.BreakStart = minutePtr(breakStart)
	s.BreakEnd = minutePtr(breakEnd)
	return s, nil
}

func minutePtr(m *int) *model.TimeOfDay {
	if m == nil {
		return nil
	}
	t := model.TimeOfDay(*m)
	return &t
}

func minuteArg(t *model.TimeOfDay) *int {
	if t == nil {
		return nil
	}
	m := int(*t)
	return &m
}

// weekdaySchedule falls back to a closed day when the row is missing.
func weekdaySchedule(ctx context.Context, q querier, weekday int) (model.WeekdaySchedule, error) {
	s, err := scanSchedule(q.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM weekday_schedules
		WHERE weekday = $1
	`, weekday))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ClosedSchedule(weekday), nil
	}
	return s, err
}

func (r *Repository) WeekdaySchedule(ctx context.Context, weekday int) (model.WeekdaySchedule, error) {
	return weekdaySchedule(ctx, r.pool, weekday)
}

// Schedules returns all seven weekdays in order, Monday first.
func (r *Repository) Schedules(ctx context.Context) ([]model.WeekdaySchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM weekday_schedules
		ORDER BY weekday
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.WeekdaySchedule, 7)
	for i := range out {
		out[i] = model.ClosedSchedule(i)
	}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		if s.Weekday >= 0 && s.Weekday < len(out) {
			out[s.Weekday] = s
		}
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// SaveBusinessConfig upserts the profile and the given weekdays atomically.
// Weekdays not present in schedules keep their stored values.
func (r *Repository) SaveBusinessConfig(ctx context.Context, p model.BusinessProfile, schedules []model.WeekdaySchedule) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO business_profile (id, name, phone, email, address, default_slot_duration_minutes,
				default_slot_interval_minutes, default_max_appointments)
			VALUES (1, $1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
				phone = EXCLUDED.phone,
				email = EXCLUDED.email,
				address = EXCLUDED.address,
				default_slot_duration_minutes = EXCLUDED.default_slot_duration_minutes,
				default_slot_interval_minutes = EXCLUDED.default_slot_interval_minutes,
				default_max_appointments = EXCLUDED.default_max_appointments,
				updated_at = now()
		`, p.Name, p.Phone, p.Email, p.Address, p.DefaultSlotDurationMinutes,
			p.DefaultSlotIntervalMinutes, p.DefaultMaxAppointments)
		if err != nil {
			return err
		}

		for _, s := range schedules {
			_, err := tx.Exec(ctx, `
				INSERT INTO weekday_schedules (weekday, is_open, open_minute, close_minute, break_start_minute,
					break_end_minute, slot_duration_minutes, slot_interval_minutes, max_appointments)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (weekday) DO UPDATE
				SET is_open = EXCLUDED.is_open,
					open_minute = EXCLUDED.open_minute,
					close_minute = EXCLUDED.close_minute,
					break_start_minute = EXCLUDED.break_start_minute,
					break_end_minute = EXCLUDED.break_end_minute,
					slot_duration_minutes = EXCLUDED.slot_duration_minutes,
					slot_interval_minutes = EXCLUDED.slot_interval_minutes,
					max_appointments = EXCLUDED.max_appointments,
					updated_at = now()
			`, s.Weekday, s.IsOpen, minuteArg(s.Open), minuteArg(s.Close), minuteArg(s.BreakStart),
				minuteArg(s.BreakEnd), s.SlotDurationMinutes, s.SlotIntervalMinutes, s.MaxAppointments)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
