package repository

import (
	"context"
	"errors"

	"github.com/contactbox/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgAdminRepository は AdminRepository の PostgreSQL 実装
type PgAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPgAdminRepository は PgAdminRepository を生成する
func NewPgAdminRepository(pool *pgxpool.Pool) *PgAdminRepository {
	return &PgAdminRepository{pool: pool}
}

var _ AdminRepository = (*PgAdminRepository)(nil)

// FindByUsername はユーザー名で管理者を取得する
func (r *PgAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := r.pool.QueryRow(ctx,
		`SELECT username, password_hash, created_at, updated_at FROM admins WHERE username = $1`,
		username,
	).Scan(&a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert inserts the admin or replaces the password hash of an existing one.
// created_at survives the replace.
func (r *PgAdminRepository) Upsert(ctx context.Context, admin *model.Admin) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO admins (username, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $3)
		 ON CONFLICT (username) DO UPDATE
		 SET password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at
		 RETURNING created_at, updated_at`,
		admin.Username, admin.PasswordHash, admin.UpdatedAt,
	).Scan(&admin.CreatedAt, &admin.UpdatedAt)
}
