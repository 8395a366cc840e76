package storage

import (
	"context"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/google/uuid"
)

func (r *Repository) AdminByUsername(ctx context.Context, username string) (model.AdminUser, error) {
	var u model.AdminUser
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, username, password_hash, created_at, updated_at
		FROM admin_users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.AdminUser{}, translate(err)
	}
	return u, nil
}

func (r *Repository) AdminByID(ctx context.Context, id string) (model.AdminUser, error) {
	var u model.AdminUser
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, username, password_hash, created_at, updated_at
		FROM admin_users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.AdminUser{}, translate(err)
	}
	return u, nil
}

// UpsertAdmin creates the user or replaces its password hash.
func (r *Repository) UpsertAdmin(ctx context.Context, username, passwordHash string) (model.AdminUser, error) {
	var u model.AdminUser
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admin_users (id, username, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, updated_at = now()
		RETURNING id::text, username, password_hash, created_at, updated_at
	`, uuid.NewString(), username, passwordHash).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.AdminUser{}, translate(err)
	}
	return u, nil
}
