package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitquest/pkg/types"
)

func idsOf(entries []types.TaskCatalogEntry) []string {
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	return ids
}

func assertDistinct(t *testing.T, entries []types.TaskCatalogEntry) {
	t.Helper()
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		_, dup := seen[entry.ID]
		assert.False(t, dup, "duplicate id %s in result", entry.ID)
		seen[entry.ID] = struct{}{}
	}
}

func TestFullFallback_ReturnsExactlyThree(t *testing.T) {
	engine := NewFallbackEngineWithSeed(1)
	catalog := testCatalog(10, "Fitness", "Cooking & Nutrition")
	profile := &types.UserTaskProfile{Preferences: []string{"Fitness"}}

	for seed := int64(0); seed < 20; seed++ {
		entries := NewFallbackEngineWithSeed(seed).FullFallback(profile, catalog)
		require.Len(t, entries, 3, "seed %d", seed)
		assertDistinct(t, entries)
	}

	entries := engine.FullFallback(profile, catalog)
	assert.Len(t, entries, 3)
}

func TestFullFallback_RespectsExclusionsWhenPoolSuffices(t *testing.T) {
	catalog := testCatalog(10, "Fitness")
	profile := &types.UserTaskProfile{
		Preferences:          []string{"Fitness"},
		ActiveTaskIDs:        []string{"t1"},
		CurrentSuggestionIDs: []string{"t2"},
		SuggestionHistory:    []string{"t3"},
	}

	for seed := int64(0); seed < 20; seed++ {
		entries := NewFallbackEngineWithSeed(seed).FullFallback(profile, catalog)
		require.Len(t, entries, 3)
		for _, entry := range entries {
			assert.NotContains(t, []string{"t1", "t2", "t3"}, entry.ID,
				"excluded id %s surfaced with a sufficient pool (seed %d)", entry.ID, seed)
		}
	}
}

func TestFullFallback_RelaxationKeepsPreferredTasks(t *testing.T) {
	// 2 Cooking tasks + 8 others: the pool is short, so the third slot
	// must come from the general catalog while both Cooking tasks stay in.
	catalog := []types.TaskCatalogEntry{
		{ID: "c1", Title: "Meal prep", CategoryTitle: "Cooking & Nutrition"},
		{ID: "c2", Title: "Try a new recipe", CategoryTitle: "Cooking & Nutrition"},
	}
	catalog = append(catalog, testCatalog(8, "Fitness")...)

	profile := &types.UserTaskProfile{Preferences: []string{"Cooking & Nutrition"}}

	for seed := int64(0); seed < 20; seed++ {
		entries := NewFallbackEngineWithSeed(seed).FullFallback(profile, catalog)
		require.Len(t, entries, 3, "seed %d", seed)
		ids := idsOf(entries)
		assert.Contains(t, ids, "c1", "seed %d", seed)
		assert.Contains(t, ids, "c2", "seed %d", seed)
		assertDistinct(t, entries)
	}
}

func TestFullFallback_TinyCatalog(t *testing.T) {
	engine := NewFallbackEngineWithSeed(7)
	catalog := testCatalog(2, "Fitness")
	profile := &types.UserTaskProfile{Preferences: []string{"Reading"}}

	entries := engine.FullFallback(profile, catalog)
	assert.Len(t, entries, 2, "a two-entry catalog can only yield two results")
	assertDistinct(t, entries)
}

func TestBackfill_TopsUpShortRemoteResult(t *testing.T) {
	catalog := testCatalog(10, "Fitness")
	profile := &types.UserTaskProfile{Preferences: []string{"Fitness"}}

	for seed := int64(0); seed < 20; seed++ {
		entries := NewFallbackEngineWithSeed(seed).Backfill([]string{"t1"}, profile, catalog)
		require.Len(t, entries, 3, "seed %d", seed)
		assert.Equal(t, "t1", entries[0].ID, "the resolved remote id must stay first")
		assertDistinct(t, entries)
	}
}

func TestBackfill_ExcludesActiveAndHistory(t *testing.T) {
	catalog := testCatalog(6, "Fitness")
	profile := &types.UserTaskProfile{
		ActiveTaskIDs:     []string{"t2"},
		SuggestionHistory: []string{"t3"},
	}

	for seed := int64(0); seed < 20; seed++ {
		entries := NewFallbackEngineWithSeed(seed).Backfill([]string{"t1"}, profile, catalog)
		require.Len(t, entries, 3)
		for _, entry := range entries[1:] {
			assert.NotContains(t, []string{"t2", "t3"}, entry.ID, "seed %d", seed)
		}
	}
}

func TestBackfill_DropsUnresolvableAndDuplicateIDs(t *testing.T) {
	engine := NewFallbackEngineWithSeed(3)
	catalog := testCatalog(5, "Fitness")
	profile := &types.UserTaskProfile{}

	entries := engine.Backfill([]string{"t1", "ghost", "t1", "t2"}, profile, catalog)
	require.Len(t, entries, 3)
	assert.Equal(t, "t1", entries[0].ID)
	assert.Equal(t, "t2", entries[1].ID)
	assertDistinct(t, entries)
}

func TestBackfill_FullRemoteResultPassesThrough(t *testing.T) {
	engine := NewFallbackEngineWithSeed(3)
	catalog := testCatalog(5, "Fitness")

	entries := engine.Backfill([]string{"t4", "t5", "t1"}, &types.UserTaskProfile{}, catalog)
	assert.Equal(t, []string{"t4", "t5", "t1"}, idsOf(entries))
}
