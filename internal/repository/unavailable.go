package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/contactbox/backend/internal/model"
)

// Unavailable returns a Store whose every call fails with ErrUnavailable
// wrapping cause. The server uses it to keep answering (health 503, routes
// 500) when the configured database cannot be opened.
func Unavailable(cause error) *Store {
	err := fmt.Errorf("%w: %v", ErrUnavailable, cause)
	return &Store{
		Messages: unavailableMessages{err: err},
		Admins:   unavailableAdmins{err: err},
		db:       unavailableDB{err: err},
		migrate: func(context.Context, MigrateCommand) (uint, error) {
			return 0, err
		},
	}
}

type unavailableDB struct{ err error }

func (u unavailableDB) Ping(context.Context) error { return u.err }

type unavailableMessages struct{ err error }

func (u unavailableMessages) Save(context.Context, *model.Message) error { return u.err }

func (u unavailableMessages) FindByID(context.Context, string) (*model.Message, error) {
	return nil, u.err
}

func (u unavailableMessages) List(context.Context, model.MessageListOptions) ([]*model.Message, error) {
	return nil, u.err
}

func (u unavailableMessages) MarkDeleted(context.Context, string, time.Time, bool) (*model.Message, error) {
	return nil, u.err
}

func (u unavailableMessages) Restore(context.Context, string) (*model.Message, error) {
	return nil, u.err
}

func (u unavailableMessages) Delete(context.Context, string) error { return u.err }

type unavailableAdmins struct{ err error }

func (u unavailableAdmins) FindByUsername(context.Context, string) (*model.Admin, error) {
	return nil, u.err
}

func (u unavailableAdmins) Upsert(context.Context, *model.Admin) error { return u.err }
