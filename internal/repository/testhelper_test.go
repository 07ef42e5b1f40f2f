package repository

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/contactbox/backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a migrated store over a named shared in-memory SQLite
// database. The name derives from t.Name() so parallel tests stay isolated.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape(t.Name()),
	)
	db, err := newSQLiteDB(dsn)
	require.NoError(t, err)

	store := newSQLiteStore(db)
	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	_, err = store.Migrate(ctx, MigrateUp)
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

// baseTime is truncated to milliseconds, the coarsest precision of any backend.
var baseTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestMessage(name string, createdAt time.Time) *model.Message {
	return &model.Message{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     "555-1234",
		Subject:   "Hello",
		Message:   "message from " + name,
		CreatedAt: createdAt,
	}
}
