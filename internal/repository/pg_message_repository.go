package repository

import (
	"context"
	"errors"
	"time"

	"github.com/contactbox/backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgMessageRepository は MessageRepository の PostgreSQL 実装
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

// NewPgMessageRepository は PgMessageRepository を生成する
func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

var _ MessageRepository = (*PgMessageRepository)(nil)

// pgID reports whether id fits the uuid column. Anything else, such as an
// ObjectID carried over from MongoDB, cannot match a row.
func pgID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const messageSelectCols = `id::text, name, phone, email, subject, message, created_at, deleted, deleted_at`

func scanMessage(scan func(...any) error) (*model.Message, error) {
	var m model.Message
	if err := scan(&m.ID, &m.Name, &m.Phone, &m.Email, &m.Subject, &m.Message, &m.CreatedAt, &m.Deleted, &m.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	if m.DeletedAt != nil {
		t := m.DeletedAt.UTC()
		m.DeletedAt = &t
	}
	return &m, nil
}

// Save は messages に 1 行追加する。ID と CreatedAt は呼び出し側で設定済みであること
func (r *PgMessageRepository) Save(ctx context.Context, msg *model.Message) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, name, phone, email, subject, message, created_at, deleted, deleted_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9)`,
		msg.ID, msg.Name, msg.Phone, msg.Email, msg.Subject, msg.Message, msg.CreatedAt, msg.Deleted, msg.DeletedAt,
	)
	return err
}

// FindByID は ID でメッセージを取得する
func (r *PgMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	if !pgID(id) {
		return nil, ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+messageSelectCols+` FROM messages WHERE id = $1::uuid`, id)
	return scanMessage(row.Scan)
}

// List returns one side of the inbox, newest first. The trash is ordered by
// deletion time.
func (r *PgMessageRepository) List(ctx context.Context, opts model.MessageListOptions) ([]*model.Message, error) {
	order := `created_at DESC`
	if opts.Deleted {
		order = `deleted_at DESC NULLS LAST, created_at DESC`
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageSelectCols+` FROM messages WHERE deleted = $1 ORDER BY `+order+` LIMIT $2`,
		opts.Deleted, opts.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkDeleted はソフト削除する。SET 句の右辺は更新前の値を参照する
func (r *PgMessageRepository) MarkDeleted(ctx context.Context, id string, at time.Time, refresh bool) (*model.Message, error) {
	if !pgID(id) {
		return nil, ErrNotFound
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE messages
		 SET deleted = TRUE,
		     deleted_at = CASE WHEN deleted AND NOT $3::boolean THEN deleted_at ELSE $2::timestamptz END
		 WHERE id = $1::uuid
		 RETURNING `+messageSelectCols,
		id, at, refresh,
	)
	return scanMessage(row.Scan)
}

// Restore clears the deletion flag and timestamp.
func (r *PgMessageRepository) Restore(ctx context.Context, id string) (*model.Message, error) {
	if !pgID(id) {
		return nil, ErrNotFound
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE messages SET deleted = FALSE, deleted_at = NULL WHERE id = $1::uuid RETURNING `+messageSelectCols,
		id,
	)
	return scanMessage(row.Scan)
}

// Delete は行を物理削除する
func (r *PgMessageRepository) Delete(ctx context.Context, id string) error {
	if !pgID(id) {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
