package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrUnsupported is returned for operations a store driver cannot perform,
// such as SQL migrations against MongoDB.
var ErrUnsupported = errors.New("unsupported by store driver")

// ErrUnavailable is returned by every operation of a store that could not be
// opened at startup.
var ErrUnavailable = errors.New("store unavailable")
