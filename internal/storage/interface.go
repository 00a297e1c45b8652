// Package storage defines the persistence interfaces the suggestion core
// works against, plus the concrete adapters (in-memory, Redis, SQLite).
package storage

import (
	"context"
	"errors"

	"habitquest/pkg/types"
)

// ErrUserNotFound is returned when no document exists for a user id.
var ErrUserNotFound = errors.New("user not found")

// ErrTaskNotFound is returned when a catalog entry does not exist.
var ErrTaskNotFound = errors.New("task not found")

// UpdateFn mutates a user record inside a transaction. Returning an error
// aborts the transaction without writing.
type UpdateFn func(user *types.UserRecord) error

// UserStore provides access to user documents. All mutation goes through
// Update, an atomic read-modify-write: concurrent updates to the same user
// are serialized (or retried on conflict) so counters never lose writes.
type UserStore interface {
	// GetUser returns a copy of the user's document.
	GetUser(ctx context.Context, userID string) (*types.UserRecord, error)

	// CreateUser stores a fresh document for the user. It fails if one
	// already exists.
	CreateUser(ctx context.Context, userID string, user *types.UserRecord) error

	// Update applies fn to the user's document transactionally.
	Update(ctx context.Context, userID string, fn UpdateFn) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// CatalogStore provides read access to the task catalog. The catalog is
// reference data; nothing in this core writes to it.
type CatalogStore interface {
	// ListTasks returns the full catalog.
	ListTasks(ctx context.Context) ([]types.TaskCatalogEntry, error)

	// GetTask returns one catalog entry by id.
	GetTask(ctx context.Context, taskID string) (*types.TaskCatalogEntry, error)

	// Close releases the underlying connection.
	Close() error
}
