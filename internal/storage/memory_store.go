package storage

import (
	"context"
	"fmt"
	"sync"

	"habitquest/pkg/types"
)

// MemoryUserStore is an in-process UserStore. A single mutex serializes
// updates, which gives the same lost-update guarantee the document database
// provides through its transaction primitive. Used for tests and local runs.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]*types.UserRecord
}

// NewMemoryUserStore creates an empty in-memory user store
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*types.UserRecord)}
}

// GetUser returns a copy of the user's document
func (s *MemoryUserStore) GetUser(ctx context.Context, userID string) (*types.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", userID, ErrUserNotFound)
	}
	return user.Clone(), nil
}

// CreateUser stores a fresh document for the user
func (s *MemoryUserStore) CreateUser(ctx context.Context, userID string, user *types.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; ok {
		return fmt.Errorf("user %s already exists", userID)
	}
	s.users[userID] = user.Clone()
	return nil
}

// Update applies fn to the user's document under the store lock
func (s *MemoryUserStore) Update(ctx context.Context, userID string, fn UpdateFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("update user %s: %w", userID, ErrUserNotFound)
	}

	// fn works on a clone so an aborted transaction leaves no trace
	updated := user.Clone()
	if err := fn(updated); err != nil {
		return err
	}
	s.users[userID] = updated
	return nil
}

// HealthCheck always succeeds for the in-memory store
func (s *MemoryUserStore) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the in-memory store
func (s *MemoryUserStore) Close() error {
	return nil
}

// MemoryCatalogStore is an in-process CatalogStore backed by a slice.
type MemoryCatalogStore struct {
	mu      sync.RWMutex
	entries []types.TaskCatalogEntry
	byID    map[string]types.TaskCatalogEntry
}

// NewMemoryCatalogStore creates a catalog store over the given entries
func NewMemoryCatalogStore(entries []types.TaskCatalogEntry) *MemoryCatalogStore {
	return &MemoryCatalogStore{
		entries: append([]types.TaskCatalogEntry(nil), entries...),
		byID:    types.CatalogByID(entries),
	}
}

// ListTasks returns the full catalog
func (s *MemoryCatalogStore) ListTasks(ctx context.Context) ([]types.TaskCatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.TaskCatalogEntry(nil), s.entries...), nil
}

// GetTask returns one catalog entry by id
func (s *MemoryCatalogStore) GetTask(ctx context.Context, taskID string) (*types.TaskCatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.byID[taskID]
	if !ok {
		return nil, fmt.Errorf("get task %s: %w", taskID, ErrTaskNotFound)
	}
	return &entry, nil
}

// Replace swaps the whole catalog, used by admin-side seeding.
func (s *MemoryCatalogStore) Replace(entries []types.TaskCatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]types.TaskCatalogEntry(nil), entries...)
	s.byID = types.CatalogByID(entries)
}

// Close is a no-op for the in-memory store
func (s *MemoryCatalogStore) Close() error {
	return nil
}
