package service

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/contactbox/backend/internal/model"
	"github.com/contactbox/backend/internal/repository"
	"github.com/google/uuid"
)

// messageServiceImpl is the production implementation of MessageService.
type messageServiceImpl struct {
	repo repository.MessageRepository
	opts MessageOptions
	now  func() time.Time
}

// NewMessageService creates a MessageService backed by the given repository.
func NewMessageService(repo repository.MessageRepository, opts MessageOptions) MessageService {
	return newMessageService(repo, opts, time.Now)
}

func newMessageService(repo repository.MessageRepository, opts MessageOptions, now func() time.Time) *messageServiceImpl {
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}
	return &messageServiceImpl{repo: repo, opts: opts, now: now}
}

// timestamp truncates to milliseconds so every backend round-trips it exactly.
func (s *messageServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *messageServiceImpl) validate(msg *model.Message) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Phone = strings.TrimSpace(msg.Phone)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Message = strings.TrimSpace(msg.Message)

	switch {
	case msg.Name == "":
		return &ValidationError{Field: "name", Code: "name_required"}
	case msg.Message == "":
		return &ValidationError{Field: "message", Code: "message_required"}
	case s.opts.RequirePhone && msg.Phone == "":
		return &ValidationError{Field: "phone", Code: "phone_required"}
	case s.opts.RequireEmail && msg.Email == "":
		return &ValidationError{Field: "email", Code: "email_required"}
	case len([]rune(msg.Message)) > MaxMessageLength:
		return &ValidationError{Field: "message", Code: "message_too_long"}
	}
	return nil
}

func (s *messageServiceImpl) Submit(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if err := s.validate(msg); err != nil {
		return nil, err
	}

	msg.ID = uuid.NewString()
	msg.CreatedAt = s.timestamp()
	msg.Deleted = false
	msg.DeletedAt = nil

	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, storeErr("save message", err)
	}
	slog.Info("message submitted", "message_id", msg.ID)
	return msg, nil
}

func (s *messageServiceImpl) Get(ctx context.Context, id string) (*model.Message, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	m, err := s.repo.FindByID(ctx, id)
	return m, storeErr("find message", err)
}

func (s *messageServiceImpl) ListActive(ctx context.Context) ([]*model.Message, error) {
	return s.list(ctx, false)
}

func (s *messageServiceImpl) ListDeleted(ctx context.Context) ([]*model.Message, error) {
	return s.list(ctx, true)
}

func (s *messageServiceImpl) list(ctx context.Context, deleted bool) ([]*model.Message, error) {
	messages, err := s.repo.List(ctx, model.MessageListOptions{Deleted: deleted, Limit: s.opts.ListLimit})
	if err != nil {
		return nil, storeErr("list messages", err)
	}
	return messages, nil
}

func (s *messageServiceImpl) SoftDelete(ctx context.Context, id string) (*model.Message, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	m, err := s.repo.MarkDeleted(ctx, id, s.timestamp(), s.opts.RefreshDeletedAt)
	if err != nil {
		return nil, storeErr("soft delete message", err)
	}
	slog.Info("message soft-deleted", "message_id", id)
	return m, nil
}

func (s *messageServiceImpl) Restore(ctx context.Context, id string) (*model.Message, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	m, err := s.repo.Restore(ctx, id)
	if err != nil {
		return nil, storeErr("restore message", err)
	}
	slog.Info("message restored", "message_id", id)
	return m, nil
}

func (s *messageServiceImpl) Purge(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("purge message", err)
	}
	slog.Warn("message purged", "message_id", id)
	return nil
}

// validID rejects ids that no store could hold, so a malformed id is a plain
// not-found instead of a driver error. New messages get UUIDs; documents
// imported into MongoDB keep their 24-digit hex ObjectID.
func validID(id string) bool {
	if _, err := uuid.Parse(id); err == nil {
		return true
	}
	return isObjectIDHex(id)
}

func isObjectIDHex(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
