package suggest

import (
	"math/rand"
	"sync"
	"time"

	"habitquest/pkg/types"
)

// FallbackEngine deterministically selects replacement tasks from the
// catalog when the remote call fails or comes back short. Both policies are
// pure functions of their inputs plus the injected random source; nothing
// here touches the store.
type FallbackEngine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackEngine creates an engine with a time-seeded random source
func NewFallbackEngine() *FallbackEngine {
	return NewFallbackEngineWithSeed(time.Now().UnixNano())
}

// NewFallbackEngineWithSeed creates an engine with a fixed seed, used by
// tests that need reproducible shuffles.
func NewFallbackEngineWithSeed(seed int64) *FallbackEngine {
	return &FallbackEngine{rng: rand.New(rand.NewSource(seed))}
}

// Backfill tops up a short remote result to exactly three entries. Remote
// ids that do not resolve in the catalog are dropped. The backfill pool
// excludes the resolved ids, the user's active tasks and the suggestion
// history; it is shuffled uniformly before taking the missing count.
func (e *FallbackEngine) Backfill(remoteIDs []string, profile *types.UserTaskProfile, catalog []types.TaskCatalogEntry) []types.TaskCatalogEntry {
	byID := types.CatalogByID(catalog)

	resolved := make([]types.TaskCatalogEntry, 0, types.SuggestionSlotCount)
	taken := make(map[string]struct{})
	for _, id := range remoteIDs {
		if len(resolved) == types.SuggestionSlotCount {
			break
		}
		entry, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := taken[id]; dup {
			continue
		}
		taken[id] = struct{}{}
		resolved = append(resolved, entry)
	}

	missing := types.SuggestionSlotCount - len(resolved)
	if missing == 0 {
		return resolved
	}

	excluded := make(map[string]struct{}, len(taken)+len(profile.ActiveTaskIDs)+len(profile.SuggestionHistory))
	for id := range taken {
		excluded[id] = struct{}{}
	}
	for _, id := range profile.ActiveTaskIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range profile.SuggestionHistory {
		excluded[id] = struct{}{}
	}

	pool := make([]types.TaskCatalogEntry, 0, len(catalog))
	for _, entry := range catalog {
		if _, skip := excluded[entry.ID]; !skip {
			pool = append(pool, entry)
		}
	}
	e.shuffle(pool)

	for i := 0; i < missing && i < len(pool); i++ {
		resolved = append(resolved, pool[i])
	}
	return resolved
}

// FullFallback selects three entries locally after the remote call failed
// entirely. The primary pool is preference-filtered and exclusion-filtered;
// when it runs short the remainder of the catalog fills the gap, a
// documented relaxation that can include excluded or out-of-preference
// tasks rather than show fewer than three.
func (e *FallbackEngine) FullFallback(profile *types.UserTaskProfile, catalog []types.TaskCatalogEntry) []types.TaskCatalogEntry {
	excluded := profile.ExclusionSet()

	pool := make([]types.TaskCatalogEntry, 0, len(catalog))
	for _, entry := range catalog {
		if !profile.PrefersCategory(entry.CategoryTitle) {
			continue
		}
		if _, skip := excluded[entry.ID]; skip {
			continue
		}
		pool = append(pool, entry)
	}

	if len(pool) >= types.SuggestionSlotCount {
		e.shuffle(pool)
		return pool[:types.SuggestionSlotCount]
	}

	// Relaxation: every in-preference candidate stays in, the rest of the
	// catalog backfills to three.
	chosen := make(map[string]struct{}, len(pool))
	for _, entry := range pool {
		chosen[entry.ID] = struct{}{}
	}

	rest := make([]types.TaskCatalogEntry, 0, len(catalog))
	for _, entry := range catalog {
		if _, dup := chosen[entry.ID]; !dup {
			rest = append(rest, entry)
		}
	}
	e.shuffle(rest)

	for _, entry := range rest {
		if len(pool) == types.SuggestionSlotCount {
			break
		}
		pool = append(pool, entry)
	}
	return pool
}

// shuffle permutes entries uniformly. rand.Rand is not goroutine-safe, so
// concurrent pipelines share it under a mutex.
func (e *FallbackEngine) shuffle(entries []types.TaskCatalogEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
}
