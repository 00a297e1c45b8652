package suggest

import (
	"context"
	"sort"
	"strconv"
	"time"

	"habitquest/internal/logging"
	"habitquest/internal/storage"
	"habitquest/pkg/types"
)

// RerollLedger manages the per-user reroll budget and the day-scoped
// suggestion cache. All budget mutation goes through the store's
// transactional update, which keeps the budget floor at zero even across
// concurrent sessions.
type RerollLedger struct {
	users  storage.UserStore
	reward int
	logger logging.Logger
	now    func() time.Time
}

// NewRerollLedger creates a ledger with the given photo-completion reward
func NewRerollLedger(users storage.UserStore, reward int, logger logging.Logger) *RerollLedger {
	if reward < 0 {
		reward = 0
	}
	return &RerollLedger{
		users:  users,
		reward: reward,
		logger: logger.WithComponent("rerolls"),
		now:    time.Now,
	}
}

// GetRerollBudget returns the user's current reroll budget
func (l *RerollLedger) GetRerollBudget(ctx context.Context, userID string) (int, error) {
	user, err := l.users.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Rerolls, nil
}

// DecrementRerollBudget spends one reroll inside a transaction. With a zero
// budget it is a guarded no-op, not an error; the stored value never drops
// below zero.
func (l *RerollLedger) DecrementRerollBudget(ctx context.Context, userID string) error {
	return l.users.Update(ctx, userID, func(user *types.UserRecord) error {
		if user.Rerolls > 0 {
			user.Rerolls--
		}
		return nil
	})
}

// IncrementRerollBudget grants the reward unconditionally inside a
// transaction. Invoked when a task is completed with a freshly captured
// photo.
func (l *RerollLedger) IncrementRerollBudget(ctx context.Context, userID string) error {
	return l.users.Update(ctx, userID, func(user *types.UserRecord) error {
		user.Rerolls += l.reward
		return nil
	})
}

// GetTodaySuggestions returns the cached suggestion slots for today, keyed
// by slot index. An empty map means no cache exists for today.
func (l *RerollLedger) GetTodaySuggestions(ctx context.Context, userID string) (map[int]string, error) {
	user, err := l.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	slots := make(map[int]string)
	for key, taskID := range user.DailySuggestions[types.DateKey(l.now())] {
		idx, err := strconv.Atoi(key)
		if err != nil {
			l.logger.Warn("dropping malformed suggestion slot key", "user_id", userID, "key", key)
			continue
		}
		slots[idx] = taskID
	}
	return slots, nil
}

// SaveTodaySuggestions replaces today's whole slot map. An empty map clears
// the day's cache, so a later reroll/regenerate cycle starts clean.
func (l *RerollLedger) SaveTodaySuggestions(ctx context.Context, userID string, slots map[int]string) error {
	today := types.DateKey(l.now())

	return l.users.Update(ctx, userID, func(user *types.UserRecord) error {
		if len(slots) == 0 {
			delete(user.DailySuggestions, today)
			return nil
		}

		stored := make(map[string]string, len(slots))
		for idx, taskID := range slots {
			stored[strconv.Itoa(idx)] = taskID
		}
		if user.DailySuggestions == nil {
			user.DailySuggestions = make(map[string]map[string]string)
		}
		user.DailySuggestions[today] = stored
		return nil
	})
}

// SlotIDsInOrder flattens a slot map into a slice ordered by slot index.
func SlotIDsInOrder(slots map[int]string) []string {
	indexes := make([]int, 0, len(slots))
	for idx := range slots {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	ids := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		ids = append(ids, slots[idx])
	}
	return ids
}
