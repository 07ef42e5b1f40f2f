package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Driver は永続化バックエンドの種類
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMongo    Driver = "mongo"
)

// ParseDriver validates a driver name. An empty name infers the driver from
// the connection URL scheme.
func ParseDriver(name, url string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "mongo", "mongodb":
		return DriverMongo, nil
	case "":
	default:
		return "", fmt.Errorf("unknown store driver %q", name)
	}

	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return DriverMongo, nil
	case strings.HasPrefix(url, "sqlite:"), strings.HasPrefix(url, "file:"), strings.HasSuffix(url, ".db"):
		return DriverSQLite, nil
	default:
		return DriverPostgres, nil
	}
}

// Options configures Open.
type Options struct {
	Driver Driver
	URL    string
	// MongoDatabase overrides the database named in a MongoDB URL.
	MongoDatabase string
}

// Store bundles the repositories of one backend with the handle that owns
// their connections. It is opened once at startup and closed at shutdown.
type Store struct {
	Driver   Driver
	Messages MessageRepository
	Admins   AdminRepository

	db      DB
	migrate func(ctx context.Context, cmd MigrateCommand) (uint, error)
	close   func(ctx context.Context) error
}

// Open builds a Store for the configured driver. Connections are established
// lazily, so a database that is down at startup does not make Open fail; call
// Ping to check reachability.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.URL == "" {
		return nil, errors.New("database URL is empty")
	}
	switch opts.Driver {
	case DriverPostgres:
		return openPostgres(ctx, opts.URL)
	case DriverSQLite:
		return openSQLite(opts.URL)
	case DriverMongo:
		return openMongo(ctx, opts.URL, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// Ping reports whether the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Migrate runs a schema command against the store.
func (s *Store) Migrate(ctx context.Context, cmd MigrateCommand) (uint, error) {
	return s.migrate(ctx, cmd)
}

// MigrateWhenReady pings the store every interval until it answers, then
// migrates it up. It gives up when ctx is done.
func (s *Store) MigrateWhenReady(ctx context.Context, interval time.Duration) (uint, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		err := s.Ping(ctx)
		if err == nil {
			return s.Migrate(ctx, MigrateUp)
		}
		slog.Debug("store not ready; retrying migration later", "driver", s.Driver, "error", err)
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("wait for %s: %w", s.Driver, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close releases the store's connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NewPool は PostgreSQL 接続プールを生成する
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConns = 10
	return pgxpool.NewWithConfig(ctx, cfg)
}

func openPostgres(ctx context.Context, url string) (*Store, error) {
	pool, err := NewPool(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:   DriverPostgres,
		Messages: NewPgMessageRepository(pool),
		Admins:   NewPgAdminRepository(pool),
		db:       pool,
		migrate: func(ctx context.Context, cmd MigrateCommand) (uint, error) {
			return migratePostgres(url, cmd)
		},
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

func openSQLite(url string) (*Store, error) {
	db, err := NewSQLiteDB(sqlitePath(url))
	if err != nil {
		return nil, err
	}
	return newSQLiteStore(db), nil
}

func newSQLiteStore(db *SQLiteDB) *Store {
	return &Store{
		Driver:   DriverSQLite,
		Messages: NewSQLiteMessageRepository(db),
		Admins:   NewSQLiteAdminRepository(db),
		db:       db,
		migrate: func(ctx context.Context, cmd MigrateCommand) (uint, error) {
			return migrateSQLite(db, cmd)
		},
		close: func(context.Context) error {
			return db.Close()
		},
	}
}

func openMongo(ctx context.Context, url, database string) (*Store, error) {
	client, db, err := NewMongoDatabase(url, database)
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:   DriverMongo,
		Messages: NewMongoMessageRepository(db),
		Admins:   NewMongoAdminRepository(db),
		db:       mongoPinger{client: client},
		migrate: func(ctx context.Context, cmd MigrateCommand) (uint, error) {
			if cmd != MigrateUp {
				return 0, fmt.Errorf("migrate %s on mongo: %w", cmd, ErrUnsupported)
			}
			return 0, EnsureMongoIndexes(ctx, db)
		},
		close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}, nil
}

// sqlitePath strips the sqlite:// scheme so both URLs and bare paths work.
func sqlitePath(url string) string {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return strings.TrimPrefix(url, "sqlite://")
	case strings.HasPrefix(url, "sqlite:"):
		return strings.TrimPrefix(url, "sqlite:")
	default:
		return url
	}
}
