package storage

import (
	"context"
	"errors"
	"strings"

	"habitquest/internal/retry"
	"habitquest/pkg/types"
)

// RetryableUserStore wraps a UserStore with retry logic for transient
// failures. Application-level errors (user not found, transaction callback
// errors) are never retried.
type RetryableUserStore struct {
	store   UserStore
	retrier *retry.Retrier
}

// NewRetryableUserStore creates a retrying decorator around store
func NewRetryableUserStore(store UserStore, config *retry.Config) UserStore {
	if config == nil {
		config = retry.DefaultConfig()
	}
	if config.RetryIf == nil {
		config.RetryIf = isRetryableStoreError
	}
	return &RetryableUserStore{
		store:   store,
		retrier: retry.New(config),
	}
}

// isRetryableStoreError determines if a storage error should be retried
func isRetryableStoreError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrTaskNotFound) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"too many requests",
		"service unavailable",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	type temporary interface {
		Temporary() bool
	}
	var te temporary
	if errors.As(err, &te) {
		return te.Temporary()
	}

	return false
}

// GetUser returns the user's document, retrying transient failures
func (r *RetryableUserStore) GetUser(ctx context.Context, userID string) (*types.UserRecord, error) {
	var user *types.UserRecord
	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		user, opErr = r.store.GetUser(ctx, userID)
		return opErr
	})
	return user, err
}

// CreateUser stores a fresh document, retrying transient failures
func (r *RetryableUserStore) CreateUser(ctx context.Context, userID string, user *types.UserRecord) error {
	return r.retrier.Do(ctx, func(ctx context.Context) error {
		return r.store.CreateUser(ctx, userID, user)
	})
}

// Update applies fn transactionally, retrying transient failures. fn may run
// more than once and must stay idempotent over its input record.
func (r *RetryableUserStore) Update(ctx context.Context, userID string, fn UpdateFn) error {
	return r.retrier.Do(ctx, func(ctx context.Context) error {
		return r.store.Update(ctx, userID, fn)
	})
}

// HealthCheck verifies the underlying store is reachable
func (r *RetryableUserStore) HealthCheck(ctx context.Context) error {
	return r.store.HealthCheck(ctx)
}

// Close closes the underlying store
func (r *RetryableUserStore) Close() error {
	return r.store.Close()
}
