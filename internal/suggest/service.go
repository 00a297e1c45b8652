package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"habitquest/internal/apperrors"
	"habitquest/internal/logging"
	"habitquest/internal/storage"
	"habitquest/pkg/types"
)

// Service orchestrates the suggestion pipeline: aggregate, request the
// remote service, reconcile locally, persist the day's slots. Per-user
// pipeline runs are deduplicated through singleflight so two rapid requests
// for the same user share one flight instead of double-spending work.
type Service struct {
	aggregator *Aggregator
	requester  *Requester
	fallback   *FallbackEngine
	rerolls    *RerollLedger
	users      storage.UserStore
	catalog    storage.CatalogStore
	group      singleflight.Group
	logger     logging.Logger
	now        func() time.Time
}

// NewService wires the pipeline components together
func NewService(aggregator *Aggregator, requester *Requester, fallback *FallbackEngine,
	rerolls *RerollLedger, users storage.UserStore, catalog storage.CatalogStore,
	logger logging.Logger) *Service {
	return &Service{
		aggregator: aggregator,
		requester:  requester,
		fallback:   fallback,
		rerolls:    rerolls,
		users:      users,
		catalog:    catalog,
		logger:     logger.WithComponent("suggest"),
		now:        time.Now,
	}
}

// Rerolls exposes the reroll ledger for callers that only need budget reads.
func (s *Service) Rerolls() *RerollLedger {
	return s.rerolls
}

// SuggestionsForToday returns the user's three suggestions for today. A
// cached day slot set whose ids all still resolve in the catalog is served
// as-is with no budget spend and no remote call; otherwise the full pipeline
// runs once and its result is persisted.
func (s *Service) SuggestionsForToday(ctx context.Context, userID string) ([]types.TaskCatalogEntry, error) {
	cached, err := s.rerolls.GetTodaySuggestions(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if len(cached) > 0 {
		entries, err := s.resolveIDs(ctx, SlotIDsInOrder(cached))
		if err != nil {
			return nil, err
		}
		if len(entries) == types.SuggestionSlotCount {
			return entries, nil
		}
		// Catalog drift broke part of the cached set, regenerate the day
		s.logger.WarnContext(ctx, "cached suggestions no longer resolve fully, regenerating",
			"user_id", userID, "resolved", len(entries))
	}

	return s.generate(ctx, userID)
}

// Reroll regenerates today's suggestions. It is only permitted with a
// positive budget: a zero budget is rejected before any store write or
// pipeline run. One budget unit is spent up front, then the pipeline
// overwrites the cached suggestions.
func (s *Service) Reroll(ctx context.Context, userID string) ([]types.TaskCatalogEntry, error) {
	budget, err := s.rerolls.GetRerollBudget(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if budget <= 0 {
		return nil, apperrors.New(apperrors.ErrorCodeNoRerollsLeft, "no rerolls left")
	}

	if err := s.rerolls.DecrementRerollBudget(ctx, userID); err != nil {
		return nil, mapStoreErr(err)
	}

	return s.generate(ctx, userID)
}

// ConfirmSuggestion writes the chosen task into the first empty daily slot
// for today, moves the unchosen shown ids into the suggestion history, and
// clears the day's suggestion cache.
func (s *Service) ConfirmSuggestion(ctx context.Context, userID, taskID string) error {
	if taskID == "" {
		return apperrors.NewRequiredFieldError("task_id")
	}

	today := types.DateKey(s.now())
	err := s.users.Update(ctx, userID, func(user *types.UserRecord) error {
		slots := user.DailyTasks[today]
		if len(slots) >= types.SuggestionSlotCount {
			return apperrors.New(apperrors.ErrorCodeSlotsFull, "all daily task slots are taken")
		}

		for _, shownID := range suggestionIDsInSlotOrder(user.DailySuggestions[today]) {
			if shownID != taskID {
				user.SuggestionHistory = append(user.SuggestionHistory, shownID)
			}
		}
		delete(user.DailySuggestions, today)

		if user.DailyTasks == nil {
			user.DailyTasks = make(map[string][]types.DailyTaskSlot)
		}
		user.DailyTasks[today] = append(slots, types.DailyTaskSlot{TaskID: taskID})
		return nil
	})
	return mapStoreErr(err)
}

// CompleteTask marks today's slot for taskID as completed with the given
// rating and bumps the category counter. A freshly captured photo (any URL
// other than the task's default picture) earns the reroll reward. Returns
// the milestone unlocked by the new category count, if any.
func (s *Service) CompleteTask(ctx context.Context, userID, taskID string, rating int, photoURL string) (*types.Milestone, error) {
	if rating < types.MinRating || rating > types.MaxRating {
		return nil, apperrors.New(apperrors.ErrorCodeInvalidValue,
			fmt.Sprintf("rating must be between %d and %d", types.MinRating, types.MaxRating))
	}

	task, err := s.catalog.GetTask(ctx, taskID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeTaskNotFound, "unknown task", err)
	}

	today := types.DateKey(s.now())
	var unlocked *types.Milestone

	err = s.users.Update(ctx, userID, func(user *types.UserRecord) error {
		slots := user.DailyTasks[today]
		completed := false
		for i := range slots {
			if slots[i].TaskID == taskID && !slots[i].IsCompleted {
				slots[i].IsCompleted = true
				r := rating
				slots[i].Rating = &r
				completed = true
				break
			}
		}
		if !completed {
			return apperrors.New(apperrors.ErrorCodeNotFound, "no active daily slot for task")
		}

		if user.CategoryProgress == nil {
			user.CategoryProgress = make(map[string]int)
		}
		user.CategoryProgress[task.CategoryTitle]++

		unlocked = nil
		if milestone, ok := task.MilestoneAt(user.CategoryProgress[task.CategoryTitle]); ok {
			user.EarnedTitles = append(user.EarnedTitles, milestone.Title)
			unlocked = &milestone
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if photoURL != "" && photoURL != task.DefaultPictureURL {
		if err := s.rerolls.IncrementRerollBudget(ctx, userID); err != nil {
			return nil, mapStoreErr(err)
		}
	}
	return unlocked, nil
}

// generate runs the full pipeline once per user at a time and persists the
// resulting day slots. Concurrent callers for the same user share the same
// flight and result.
func (s *Service) generate(ctx context.Context, userID string) ([]types.TaskCatalogEntry, error) {
	v, err, _ := s.group.Do(userID, func() (interface{}, error) {
		profile, catalog, err := s.aggregator.Aggregate(ctx, userID)
		if err != nil {
			return nil, err
		}

		var entries []types.TaskCatalogEntry
		remoteIDs, err := s.requester.RequestSuggestions(ctx, profile, catalog)
		if err != nil {
			s.logger.WarnContext(ctx, "remote suggestions unavailable, falling back locally",
				"user_id", userID, "error", err)
			entries = s.fallback.FullFallback(profile, catalog)
		} else {
			entries = s.fallback.Backfill(remoteIDs, profile, catalog)
		}

		slots := make(map[int]string, len(entries))
		for i, entry := range entries {
			slots[i] = entry.ID
		}
		if err := s.rerolls.SaveTodaySuggestions(ctx, userID, slots); err != nil {
			return nil, mapStoreErr(err)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.TaskCatalogEntry), nil
}

// resolveIDs maps ids to catalog entries, dropping any id the catalog no
// longer contains.
func (s *Service) resolveIDs(ctx context.Context, ids []string) ([]types.TaskCatalogEntry, error) {
	catalog, err := s.catalog.ListTasks(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStoreError, "failed to load task catalog", err)
	}
	byID := types.CatalogByID(catalog)

	entries := make([]types.TaskCatalogEntry, 0, len(ids))
	for _, id := range ids {
		if entry, ok := byID[id]; ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// mapStoreErr converts raw storage errors into the standardized taxonomy,
// passing through errors that already carry a code.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, storage.ErrUserNotFound) {
		return apperrors.Wrap(apperrors.ErrorCodeUnauthenticated, "no profile for user", err)
	}
	return apperrors.Wrap(apperrors.ErrorCodeStoreError, "store operation failed", err)
}
