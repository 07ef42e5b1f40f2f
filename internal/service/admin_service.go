package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/contactbox/backend/internal/model"
	"github.com/contactbox/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used for admin passwords.
const DefaultBcryptCost = 12

// AdminService provisions inbox operators. It is used by the createadmin
// command and the optional startup seed, never on the request path.
type AdminService interface {
	// EnsureAdmin hashes password and creates or replaces the admin keyed by
	// username. Calling it twice stores a fresh salt but authenticates the same.
	EnsureAdmin(ctx context.Context, username, password string) (*model.Admin, error)
}

type adminService struct {
	repo repository.AdminRepository
	cost int
	now  func() time.Time
}

// NewAdminService creates an AdminService. A cost of zero uses DefaultBcryptCost.
func NewAdminService(repo repository.AdminRepository, cost int) AdminService {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &adminService{repo: repo, cost: cost, now: time.Now}
}

func (s *adminService) EnsureAdmin(ctx context.Context, username, password string) (*model.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Code: "username_required"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Code: "password_required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, &ValidationError{Field: "password", Code: "password_too_long"}
	}
	if err != nil {
		return nil, err
	}

	admin := &model.Admin{
		Username:     username,
		PasswordHash: string(hash),
		UpdatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Upsert(ctx, admin); err != nil {
		return nil, &PersistenceError{Op: "upsert admin", Err: err}
	}
	slog.Info("admin provisioned", "username", username)
	return admin, nil
}
