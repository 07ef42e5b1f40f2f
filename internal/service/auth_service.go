package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"sync"

	"github.com/contactbox/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks admin credentials. It returns ErrUnauthorized for an
// unknown username or a wrong password; any other error is a backend failure.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// storeAuthenticator verifies credentials against the admin repository.
type storeAuthenticator struct {
	repo repository.AdminRepository
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewStoreAuthenticator creates an Authenticator backed by stored bcrypt
// hashes. cost should match the cost used by EnsureAdmin.
func NewStoreAuthenticator(repo repository.AdminRepository, cost int) Authenticator {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &storeAuthenticator{repo: repo, cost: cost}
}

func (a *storeAuthenticator) Authenticate(ctx context.Context, username, password string) error {
	admin, err := a.repo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		// Burn one comparison so unknown usernames take as long as known ones.
		_ = bcrypt.CompareHashAndPassword(a.dummy(), []byte(password))
		return ErrUnauthorized
	}
	if err != nil {
		return &PersistenceError{Op: "find admin", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return ErrUnauthorized
	}
	return nil
}

func (a *storeAuthenticator) dummy() []byte {
	a.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), a.cost)
		if err != nil {
			slog.Error("generate dummy hash failed", "error", err)
			return
		}
		a.dummyHash = h
	})
	return a.dummyHash
}

// staticAuthenticator compares against a single configured username and
// password. It exists for deployments that have not provisioned an admin
// record yet.
type staticAuthenticator struct {
	username []byte
	password []byte
}

// NewStaticAuthenticator creates an Authenticator for fixed credentials. An
// empty username or password rejects every request.
func NewStaticAuthenticator(username, password string) Authenticator {
	return &staticAuthenticator{username: []byte(username), password: []byte(password)}
}

func (a *staticAuthenticator) Authenticate(_ context.Context, username, password string) error {
	if len(a.username) == 0 || len(a.password) == 0 {
		return ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), a.username)
	passOK := subtle.ConstantTimeCompare([]byte(password), a.password)
	if userOK&passOK != 1 {
		return ErrUnauthorized
	}
	return nil
}
