package service

import (
	"errors"
	"fmt"

	"github.com/contactbox/backend/internal/repository"
	"github.com/contactbox/backend/pkg/auth"
)

var (
	// ErrNotFound is returned when the requested message does not exist.
	ErrNotFound = errors.New("message not found")
	// ErrUnauthorized aliases the auth sentinel so the middleware can answer 401.
	ErrUnauthorized = auth.ErrInvalidCredentials
)

// ValidationError reports user-correctable input. Code is the snake_case
// identifier returned to clients.
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Code)
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// storeErr maps repository errors onto the service taxonomy.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return &PersistenceError{Op: op, Err: err}
}
