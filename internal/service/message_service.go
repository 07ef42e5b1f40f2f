package service

import (
	"context"

	"github.com/contactbox/backend/internal/model"
)

// DefaultListLimit caps each inbox listing.
const DefaultListLimit = 500

// MaxMessageLength is the longest accepted message body, in runes.
const MaxMessageLength = 5000

// MessageService defines the contact message lifecycle.
type MessageService interface {
	// Submit validates and stores a public submission. ID and CreatedAt are
	// assigned here; the stored record is returned.
	Submit(ctx context.Context, msg *model.Message) (*model.Message, error)

	Get(ctx context.Context, id string) (*model.Message, error)

	// ListActive returns messages not in the trash, newest first.
	ListActive(ctx context.Context) ([]*model.Message, error)

	// ListDeleted returns trashed messages, most recently deleted first.
	ListDeleted(ctx context.Context) ([]*model.Message, error)

	SoftDelete(ctx context.Context, id string) (*model.Message, error)
	Restore(ctx context.Context, id string) (*model.Message, error)

	// Purge removes a message permanently.
	Purge(ctx context.Context, id string) error
}

// MessageOptions carries the settings that differed between deployments.
type MessageOptions struct {
	ListLimit    int
	RequirePhone bool
	RequireEmail bool
	// RefreshDeletedAt makes SoftDelete on an already-deleted message move
	// deletedAt forward instead of leaving it untouched.
	RefreshDeletedAt bool
}
