package storage

import (
	"context"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const serviceColumns = `id::text, name, category, price::text, active, created_at, updated_at`

func scanService(row pgx.Row) (model.Service, error) {
	var (
		s     model.Service
		price string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &price, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return model.Service{}, translate(err)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return model.Service{}, err
	}
	s.Price = p
	return s, nil
}

func getService(ctx context.Context, q querier, id string) (model.Service, error) {
	return scanService(q.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id))
}

func (r *Repository) Service(ctx context.Context, id string) (model.Service, error) {
	return getService(ctx, r.pool, id)
}

// Services lists the catalog ordered by category then name.
func (r *Repository) Services(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE active OR NOT $1
		ORDER BY category ASC, name ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func createService(ctx context.Context, q querier, s model.Service) (model.Service, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return scanService(q.QueryRow(ctx, `
		INSERT INTO services (id, name, category, price, active)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING `+serviceColumns,
		s.ID, s.Name, s.Category, s.Price.StringFixed(2), s.Active))
}

func updateService(ctx context.Context, q querier, s model.Service) (model.Service, error) {
	return scanService(q.QueryRow(ctx, `
		UPDATE services
		SET name = $2, category = $3, price = $4::numeric, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns,
		s.ID, s.Name, s.Category, s.Price.StringFixed(2), s.Active))
}

func (r *Repository) CreateService(ctx context.Context, s model.Service) (model.Service, error) {
	return createService(ctx, r.pool, s)
}

func (r *Repository) UpdateService(ctx context.Context, s model.Service) (model.Service, error) {
	return updateService(ctx, r.pool, s)
}

// DeleteService fails with ErrInUse while appointments still reference it.
func (r *Repository) DeleteService(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveServices creates entries without an ID and updates the rest, all or
// nothing.
func (r *Repository) SaveServices(ctx context.Context, services []model.Service) ([]model.Service, error) {
	out := make([]model.Service, 0, len(services))
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		for _, s := range services {
			var (
				saved model.Service
				err   error
			)
			if s.ID == "" {
				saved, err = createService(ctx, tx, s)
			} else {
				saved, err = updateService(ctx, tx, s)
			}
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
