package repository

import (
	"context"
	"testing"
	"time"

	"github.com/contactbox/backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreConformance exercises the behaviour every backend must share. It is
// run against SQLite in unit tests and against Postgres and MongoDB in the
// integration suite.
func runStoreConformance(t *testing.T, newStore func(t *testing.T) *Store) {
	t.Run("SaveAndFindByID", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		msg := newTestMessage("Alice", baseTime)
		msg.Email = "alice@example.com"
		require.NoError(t, store.Messages.Save(ctx, msg))

		got, err := store.Messages.FindByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, "555-1234", got.Phone)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.Equal(t, "Hello", got.Subject)
		assert.Equal(t, msg.Message, got.Message)
		assert.True(t, baseTime.Equal(got.CreatedAt))
		assert.False(t, got.Deleted)
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("FindByIDMissing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Messages.FindByID(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListActiveNewestFirstWithLimit", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		oldest := newTestMessage("oldest", baseTime)
		middle := newTestMessage("middle", baseTime.Add(time.Minute))
		newest := newTestMessage("newest", baseTime.Add(2*time.Minute))
		for _, m := range []*model.Message{middle, oldest, newest} {
			require.NoError(t, store.Messages.Save(ctx, m))
		}

		got, err := store.Messages.List(ctx, model.MessageListOptions{Limit: 500})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, ids(got))

		got, err = store.Messages.List(ctx, model.MessageListOptions{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{newest.ID, middle.ID}, ids(got))
	})

	t.Run("MarkDeletedMovesToTrash", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		keep := newTestMessage("keep", baseTime)
		trash := newTestMessage("trash", baseTime.Add(time.Minute))
		require.NoError(t, store.Messages.Save(ctx, keep))
		require.NoError(t, store.Messages.Save(ctx, trash))

		deletedAt := baseTime.Add(time.Hour)
		got, err := store.Messages.MarkDeleted(ctx, trash.ID, deletedAt, false)
		require.NoError(t, err)
		assert.True(t, got.Deleted)
		require.NotNil(t, got.DeletedAt)
		assert.True(t, deletedAt.Equal(*got.DeletedAt))

		active, err := store.Messages.List(ctx, model.MessageListOptions{Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, []string{keep.ID}, ids(active))

		deleted, err := store.Messages.List(ctx, model.MessageListOptions{Deleted: true, Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, []string{trash.ID}, ids(deleted))
	})

	t.Run("MarkDeletedTwiceKeepsFirstTimestamp", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		msg := newTestMessage("twice", baseTime)
		require.NoError(t, store.Messages.Save(ctx, msg))

		first := baseTime.Add(time.Hour)
		_, err := store.Messages.MarkDeleted(ctx, msg.ID, first, false)
		require.NoError(t, err)

		got, err := store.Messages.MarkDeleted(ctx, msg.ID, first.Add(time.Hour), false)
		require.NoError(t, err)
		require.NotNil(t, got.DeletedAt)
		assert.True(t, first.Equal(*got.DeletedAt))
	})

	t.Run("MarkDeletedTwiceWithRefresh", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		msg := newTestMessage("refresh", baseTime)
		require.NoError(t, store.Messages.Save(ctx, msg))

		_, err := store.Messages.MarkDeleted(ctx, msg.ID, baseTime.Add(time.Hour), true)
		require.NoError(t, err)

		second := baseTime.Add(2 * time.Hour)
		got, err := store.Messages.MarkDeleted(ctx, msg.ID, second, true)
		require.NoError(t, err)
		require.NotNil(t, got.DeletedAt)
		assert.True(t, second.Equal(*got.DeletedAt))
	})

	t.Run("MarkDeletedMissing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Messages.MarkDeleted(context.Background(), uuid.NewString(), baseTime, false)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UnknownObjectIDIsNotFound", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		const id = "507f1f77bcf86cd799439011"

		_, err := store.Messages.FindByID(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.Messages.MarkDeleted(ctx, id, baseTime, false)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.Messages.Restore(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.Messages.Delete(ctx, id), ErrNotFound)
	})

	t.Run("DeletedListOrderedByDeletionTime", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		a := newTestMessage("a", baseTime.Add(time.Minute))
		b := newTestMessage("b", baseTime)
		require.NoError(t, store.Messages.Save(ctx, a))
		require.NoError(t, store.Messages.Save(ctx, b))

		_, err := store.Messages.MarkDeleted(ctx, a.ID, baseTime.Add(time.Hour), false)
		require.NoError(t, err)
		_, err = store.Messages.MarkDeleted(ctx, b.ID, baseTime.Add(2*time.Hour), false)
		require.NoError(t, err)

		got, err := store.Messages.List(ctx, model.MessageListOptions{Deleted: true, Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, []string{b.ID, a.ID}, ids(got))
	})

	t.Run("RestoreClearsDeletedAt", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		msg := newTestMessage("restore", baseTime)
		require.NoError(t, store.Messages.Save(ctx, msg))
		_, err := store.Messages.MarkDeleted(ctx, msg.ID, baseTime.Add(time.Hour), false)
		require.NoError(t, err)

		got, err := store.Messages.Restore(ctx, msg.ID)
		require.NoError(t, err)
		assert.False(t, got.Deleted)
		assert.Nil(t, got.DeletedAt)

		active, err := store.Messages.List(ctx, model.MessageListOptions{Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, []string{msg.ID}, ids(active))
	})

	t.Run("RestoreMissing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Messages.Restore(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteRemovesRow", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		msg := newTestMessage("purge", baseTime)
		require.NoError(t, store.Messages.Save(ctx, msg))

		require.NoError(t, store.Messages.Delete(ctx, msg.ID))
		_, err := store.Messages.FindByID(ctx, msg.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, store.Messages.Delete(ctx, msg.ID), ErrNotFound)
	})

	t.Run("AdminUpsertReplacesHash", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Admins.FindByUsername(ctx, "alice")
		assert.ErrorIs(t, err, ErrNotFound)

		first := &model.Admin{Username: "alice", PasswordHash: "hash-1", UpdatedAt: baseTime}
		require.NoError(t, store.Admins.Upsert(ctx, first))
		assert.True(t, baseTime.Equal(first.CreatedAt))

		second := &model.Admin{Username: "alice", PasswordHash: "hash-2", UpdatedAt: baseTime.Add(time.Hour)}
		require.NoError(t, store.Admins.Upsert(ctx, second))

		got, err := store.Admins.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "hash-2", got.PasswordHash)
		assert.True(t, baseTime.Equal(got.CreatedAt), "created_at survives the replace")
		assert.True(t, baseTime.Add(time.Hour).Equal(got.UpdatedAt))
	})
}

func ids(messages []*model.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}
