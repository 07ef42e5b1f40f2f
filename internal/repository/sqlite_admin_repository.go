package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/contactbox/backend/internal/model"
)

// SQLiteAdminRepository is the SQLite implementation of AdminRepository.
type SQLiteAdminRepository struct {
	db *SQLiteDB
}

// NewSQLiteAdminRepository creates a SQLiteAdminRepository.
func NewSQLiteAdminRepository(db *SQLiteDB) *SQLiteAdminRepository {
	return &SQLiteAdminRepository{db: db}
}

var _ AdminRepository = (*SQLiteAdminRepository)(nil)

// FindByUsername returns ErrNotFound for unknown usernames.
func (r *SQLiteAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var (
		a                    model.Admin
		createdAt, updatedAt int64
	)
	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at, updated_at FROM admins WHERE username = ?`,
		username,
	).Scan(&a.Username, &a.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt = fromUnixNano(createdAt)
	a.UpdatedAt = fromUnixNano(updatedAt)
	return &a, nil
}

// Upsert inserts the admin or replaces the password hash, keeping created_at.
func (r *SQLiteAdminRepository) Upsert(ctx context.Context, admin *model.Admin) error {
	var createdAt, updatedAt int64
	err := r.db.Writer.QueryRowContext(ctx,
		`INSERT INTO admins (username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (username) DO UPDATE
		 SET password_hash = excluded.password_hash, updated_at = excluded.updated_at
		 RETURNING created_at, updated_at`,
		admin.Username, admin.PasswordHash, toUnixNano(admin.UpdatedAt), toUnixNano(admin.UpdatedAt),
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		return err
	}
	admin.CreatedAt = fromUnixNano(createdAt)
	admin.UpdatedAt = fromUnixNano(updatedAt)
	return nil
}
