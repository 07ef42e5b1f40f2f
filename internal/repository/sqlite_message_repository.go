package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/contactbox/backend/internal/model"
)

// SQLiteMessageRepository is the SQLite implementation of MessageRepository.
type SQLiteMessageRepository struct {
	db *SQLiteDB
}

// NewSQLiteMessageRepository creates a SQLiteMessageRepository.
func NewSQLiteMessageRepository(db *SQLiteDB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

var _ MessageRepository = (*SQLiteMessageRepository)(nil)

const sqliteMessageCols = `id, name, phone, email, subject, message, created_at, deleted, deleted_at`

func scanSQLiteMessage(scan func(...any) error) (*model.Message, error) {
	var (
		m         model.Message
		createdAt int64
		deletedAt sql.NullInt64
	)
	if err := scan(&m.ID, &m.Name, &m.Phone, &m.Email, &m.Subject, &m.Message, &createdAt, &m.Deleted, &deletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.CreatedAt = fromUnixNano(createdAt)
	if deletedAt.Valid {
		t := fromUnixNano(deletedAt.Int64)
		m.DeletedAt = &t
	}
	return &m, nil
}

// Save inserts msg as given.
func (r *SQLiteMessageRepository) Save(ctx context.Context, msg *model.Message) error {
	_, err := r.db.Writer.ExecContext(ctx,
		`INSERT INTO messages (`+sqliteMessageCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Name, msg.Phone, msg.Email, msg.Subject, msg.Message,
		toUnixNano(msg.CreatedAt), boolToInt(msg.Deleted), nullableUnixNano(msg.DeletedAt),
	)
	return err
}

// FindByID returns ErrNotFound when no row matches.
func (r *SQLiteMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	row := r.db.Reader.QueryRowContext(ctx, `SELECT `+sqliteMessageCols+` FROM messages WHERE id = ?`, id)
	return scanSQLiteMessage(row.Scan)
}

// List returns one side of the inbox, newest first.
func (r *SQLiteMessageRepository) List(ctx context.Context, opts model.MessageListOptions) ([]*model.Message, error) {
	order := `created_at DESC`
	if opts.Deleted {
		order = `deleted_at DESC, created_at DESC`
	}
	rows, err := r.db.Reader.QueryContext(ctx,
		`SELECT `+sqliteMessageCols+` FROM messages WHERE deleted = ? ORDER BY `+order+` LIMIT ?`,
		boolToInt(opts.Deleted), opts.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m, err := scanSQLiteMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkDeleted soft-deletes in one statement; column references on the right
// of SET see the pre-update row.
func (r *SQLiteMessageRepository) MarkDeleted(ctx context.Context, id string, at time.Time, refresh bool) (*model.Message, error) {
	row := r.db.Writer.QueryRowContext(ctx,
		`UPDATE messages
		 SET deleted = 1,
		     deleted_at = CASE WHEN deleted = 1 AND ? = 0 THEN deleted_at ELSE ? END
		 WHERE id = ?
		 RETURNING `+sqliteMessageCols,
		boolToInt(refresh), toUnixNano(at), id,
	)
	return scanSQLiteMessage(row.Scan)
}

// Restore clears the deletion flag and timestamp.
func (r *SQLiteMessageRepository) Restore(ctx context.Context, id string) (*model.Message, error) {
	row := r.db.Writer.QueryRowContext(ctx,
		`UPDATE messages SET deleted = 0, deleted_at = NULL WHERE id = ? RETURNING `+sqliteMessageCols,
		id,
	)
	return scanSQLiteMessage(row.Scan)
}

// Delete removes the row permanently.
func (r *SQLiteMessageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
