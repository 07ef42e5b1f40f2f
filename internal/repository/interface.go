package repository

import (
	"context"
	"time"

	"github.com/contactbox/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// MessageRepository persists contact messages. Every backend applies each
// mutation as a single statement so concurrent soft-delete/restore calls on the
// same id resolve as last-writer-wins without partial states.
type MessageRepository interface {
	Save(ctx context.Context, msg *model.Message) error
	FindByID(ctx context.Context, id string) (*model.Message, error)
	List(ctx context.Context, opts model.MessageListOptions) ([]*model.Message, error)
	// MarkDeleted sets deleted=true. When the message is already deleted and
	// refresh is false the stored deletedAt is kept.
	MarkDeleted(ctx context.Context, id string, at time.Time, refresh bool) (*model.Message, error)
	Restore(ctx context.Context, id string) (*model.Message, error)
	Delete(ctx context.Context, id string) error
}

// AdminRepository is the credential store for inbox operators.
type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	// Upsert creates or replaces the admin keyed by username and fills in the
	// stored timestamps.
	Upsert(ctx context.Context, admin *model.Admin) error
}
