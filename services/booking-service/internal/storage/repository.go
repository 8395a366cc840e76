package storage

import (
	"context"
	"errors"

	"github.com/barberbook/barberbook/libs/db"
	"github.com/barberbook/barberbook/services/booking-service/internal/outbox"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrClientHasActive = errors.New("client already has a booked appointment")
	ErrSlotTaken       = errors.New("slot already booked")
	ErrTokenCollision  = errors.New("cancellation token collision")
	ErrInUse           = errors.New("referenced by existing appointments")
	ErrDuplicate       = errors.New("already exists")
)

// Constraint names from migrations/001_init.sql.
const (
	constraintOneActivePerClient = "appointments_one_active_per_client"
	constraintOnePerSlot         = "appointments_one_per_slot"
	constraintTokenUnique        = "appointments_cancellation_token_key"
)

// Repository is the Postgres-backed store for the whole booking service.
type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, events *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: events}
}

// InTx runs fn against a single transaction. Any error from fn rolls back
// every write it made, outbox rows included.
func (r *Repository) InTx(ctx context.Context, fn func(AppointmentTx) error) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgAppointmentTx{tx: tx, outbox: r.outbox})
	})
}

// translate maps driver errors to this package's sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case constraintOneActivePerClient:
			return ErrClientHasActive
		case constraintOnePerSlot:
			return ErrSlotTaken
		case constraintTokenUnique:
			return ErrTokenCollision
		}
		return ErrDuplicate
	case "23503":
		return ErrInUse
	case "22P02":
		// Malformed uuid in a lookup; nothing can match it.
		return ErrNotFound
	}
	return err
}
