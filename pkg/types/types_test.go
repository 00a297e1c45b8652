package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateKey(t *testing.T) {
	day := time.Date(2026, time.March, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-07", DateKey(day))
}

func TestTaskCatalogEntry_MilestoneAt(t *testing.T) {
	entry := TaskCatalogEntry{
		ID:            "t1",
		Title:         "Run",
		CategoryTitle: "Fitness",
		Milestones: map[string]Milestone{
			"5":  {Title: "Runner", Badge: "bronze"},
			"20": {Title: "Marathoner", Badge: "gold"},
		},
	}

	m, ok := entry.MilestoneAt(5)
	require.True(t, ok)
	assert.Equal(t, "Runner", m.Title)

	_, ok = entry.MilestoneAt(6)
	assert.False(t, ok, "milestones fire at the exact threshold only")

	m, ok = entry.MilestoneAt(20)
	require.True(t, ok)
	assert.Equal(t, "gold", m.Badge)
}

func TestTaskCatalogEntry_Validate(t *testing.T) {
	valid := TaskCatalogEntry{ID: "t1", Title: "Run", CategoryTitle: "Fitness"}
	assert.NoError(t, valid.Validate())

	for _, tt := range []struct {
		name  string
		entry TaskCatalogEntry
	}{
		{"missing id", TaskCatalogEntry{Title: "Run", CategoryTitle: "Fitness"}},
		{"missing title", TaskCatalogEntry{ID: "t1", CategoryTitle: "Fitness"}},
		{"missing category", TaskCatalogEntry{ID: "t1", Title: "Run"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.entry.Validate())
		})
	}
}

func TestUserRecord_CloneIsDeep(t *testing.T) {
	rating := 4
	original := NewUserRecord()
	original.Preferences = []string{"Fitness"}
	original.CategoryProgress["Fitness"] = 2
	original.DailyTasks["2026-03-07"] = []DailyTaskSlot{
		{TaskID: "t1", IsCompleted: true, Rating: &rating},
	}
	original.DailySuggestions["2026-03-07"] = map[string]string{"0": "t2"}
	original.SuggestionHistory = []string{"t3"}

	clone := original.Clone()

	clone.Preferences[0] = "Cooking"
	clone.CategoryProgress["Fitness"] = 99
	*clone.DailyTasks["2026-03-07"][0].Rating = 1
	clone.DailySuggestions["2026-03-07"]["0"] = "t9"
	clone.SuggestionHistory[0] = "t8"

	assert.Equal(t, "Fitness", original.Preferences[0])
	assert.Equal(t, 2, original.CategoryProgress["Fitness"])
	assert.Equal(t, 4, *original.DailyTasks["2026-03-07"][0].Rating)
	assert.Equal(t, "t2", original.DailySuggestions["2026-03-07"]["0"])
	assert.Equal(t, "t3", original.SuggestionHistory[0])
}

func TestUserRecord_CloneNil(t *testing.T) {
	var u *UserRecord
	assert.Nil(t, u.Clone())
}

func TestUserTaskProfile_ExclusionSet(t *testing.T) {
	profile := UserTaskProfile{
		ActiveTaskIDs:        []string{"t1", "t2"},
		CurrentSuggestionIDs: []string{"t2", "t3"},
		SuggestionHistory:    []string{"t4"},
	}

	excluded := profile.ExclusionSet()
	assert.Len(t, excluded, 4, "overlapping ids collapse into one entry")
	for _, id := range []string{"t1", "t2", "t3", "t4"} {
		assert.Contains(t, excluded, id)
	}
}

func TestUserTaskProfile_PrefersCategory(t *testing.T) {
	profile := UserTaskProfile{Preferences: []string{"Fitness", "Cooking"}}

	assert.True(t, profile.PrefersCategory("Cooking"))
	assert.False(t, profile.PrefersCategory("Learning"))
	assert.False(t, profile.PrefersCategory("fitness"), "category match is case sensitive")
}
