package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB provides dual reader/writer connections. The writer is limited to a
// single connection to avoid "database is locked" errors.
type SQLiteDB struct {
	Writer *sql.DB
	Reader *sql.DB
}

// NewSQLiteDB opens path with WAL mode, a busy timeout and foreign keys on.
// ":memory:" opens a private in-memory database shared by the reader and the
// writer.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	return newSQLiteDB(sqliteDSN(path))
}

const (
	sqliteFilePragmas   = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	sqliteMemoryPragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
)

func sqliteDSN(path string) string {
	path = strings.TrimPrefix(path, "file:")
	name, query, _ := strings.Cut(path, "?")
	if name == ":memory:" || strings.Contains(query, "mode=memory") {
		// Each pool would get its own empty database from a bare :memory:.
		if name == ":memory:" || name == "" {
			name = "contact-" + uuid.NewString()
		}
		return fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", url.PathEscape(name), sqliteMemoryPragmas)
	}
	if query != "" {
		return fmt.Sprintf("file:%s?%s&%s", name, query, sqliteFilePragmas)
	}
	return fmt.Sprintf("file:%s?%s", name, sqliteFilePragmas)
}

func newSQLiteDB(dsn string) (*SQLiteDB, error) {
	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	return &SQLiteDB{Writer: writer, Reader: reader}, nil
}

// Ping checks both connections.
func (db *SQLiteDB) Ping(ctx context.Context) error {
	if err := db.Writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if err := db.Reader.PingContext(ctx); err != nil {
		return fmt.Errorf("ping reader: %w", err)
	}
	return nil
}

// Close closes both connections and returns the first error encountered.
func (db *SQLiteDB) Close() error {
	var firstErr error
	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}
	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}
	return firstErr
}

func toUnixNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullableUnixNano(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnixNano(*t), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
