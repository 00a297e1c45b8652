// Package suggest implements the task-suggestion core: profile aggregation,
// the remote suggestion requester, the deterministic local fallback, the
// reroll budget with its day-scoped suggestion cache, and the flow state
// machine tying them together.
package suggest

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"habitquest/internal/apperrors"
	"habitquest/internal/logging"
	"habitquest/internal/storage"
	"habitquest/pkg/types"
)

// Aggregator builds the per-call UserTaskProfile from the persistent store
// and loads the catalog snapshot the rest of the pipeline works from.
type Aggregator struct {
	users   storage.UserStore
	catalog storage.CatalogStore
	logger  logging.Logger
	now     func() time.Time
}

// NewAggregator creates a new profile aggregator
func NewAggregator(users storage.UserStore, catalog storage.CatalogStore, logger logging.Logger) *Aggregator {
	return &Aggregator{
		users:   users,
		catalog: catalog,
		logger:  logger.WithComponent("aggregator"),
		now:     time.Now,
	}
}

// Aggregate reads the user's document once and derives the profile along
// with a fresh catalog snapshot. A missing user document is fatal for the
// whole flow; there is no silent empty-profile fallback here.
func (a *Aggregator) Aggregate(ctx context.Context, userID string) (*types.UserTaskProfile, []types.TaskCatalogEntry, error) {
	if userID == "" {
		return nil, nil, apperrors.NewUnauthenticated("no user id")
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil, apperrors.Wrap(apperrors.ErrorCodeUnauthenticated, "no profile for user", err)
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrorCodeStoreError, "failed to read user document", err)
	}

	catalog, err := a.catalog.ListTasks(ctx)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrorCodeStoreError, "failed to load task catalog", err)
	}
	byID := types.CatalogByID(catalog)

	profile := &types.UserTaskProfile{
		UserID:           userID,
		Preferences:      user.Preferences,
		CategoryProgress: user.CategoryProgress,
	}

	// One scan across all dates splits slots into active and completed
	for _, slots := range user.DailyTasks {
		for _, slot := range slots {
			if slot.IsCompleted {
				completed := types.CompletedTask{TaskID: slot.TaskID}
				if slot.Rating != nil {
					completed.Rating = *slot.Rating
				}
				if entry, ok := byID[slot.TaskID]; ok {
					completed.Title = entry.Title
				}
				profile.CompletedTasks = append(profile.CompletedTasks, completed)
			} else {
				profile.ActiveTaskIDs = append(profile.ActiveTaskIDs, slot.TaskID)
			}
		}
	}

	profile.CurrentSuggestionIDs = suggestionIDsInSlotOrder(user.DailySuggestions[types.DateKey(a.now())])

	history := user.SuggestionHistory
	if len(history) > types.SuggestionHistoryCap {
		// Over the cap the whole history is cleared, not trimmed. The
		// write-through is not on the caller's correctness path, so a
		// failure is only logged.
		if err := a.users.Update(ctx, userID, func(u *types.UserRecord) error {
			u.SuggestionHistory = nil
			return nil
		}); err != nil {
			a.logger.WarnContext(ctx, "failed to clear suggestion history", "user_id", userID, "error", err)
		}
		history = nil
	}
	profile.SuggestionHistory = history

	return profile, catalog, nil
}

// suggestionIDsInSlotOrder flattens a slot-index keyed map into a slice
// ordered by slot index.
func suggestionIDsInSlotOrder(slots map[string]string) []string {
	if len(slots) == 0 {
		return nil
	}

	indexes := make([]int, 0, len(slots))
	for key := range slots {
		if idx, err := strconv.Atoi(key); err == nil {
			indexes = append(indexes, idx)
		}
	}
	sort.Ints(indexes)

	ids := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		ids = append(ids, slots[strconv.Itoa(idx)])
	}
	return ids
}
