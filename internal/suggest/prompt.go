package suggest

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"habitquest/pkg/types"
)

// systemMessage fixes the assistant's role for every suggestion request.
const systemMessage = "You are a helpful task recommendation assistant."

var titleCaser = cases.Title(language.English)

// BuildPrompt renders the aggregated context into the natural-language
// prompt sent to the completion service. The output is deterministic for a
// given profile and catalog: map-backed sections are emitted in sorted order.
func BuildPrompt(profile *types.UserTaskProfile, catalog []types.TaskCatalogEntry) string {
	var b strings.Builder

	b.WriteString("Select the three tasks from the catalog below that best fit this user today.\n\n")

	b.WriteString("User preferences: ")
	b.WriteString(strings.Join(profile.Preferences, ", "))
	b.WriteString("\n\n")

	b.WriteString("Lifetime completions per category:\n")
	categories := make([]string, 0, len(profile.CategoryProgress))
	for category := range profile.CategoryProgress {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Fprintf(&b, "- %s: %d\n", titleCaser.String(category), profile.CategoryProgress[category])
	}

	b.WriteString("\nTasks the user already completed, with their ratings:\n")
	for _, completed := range profile.CompletedTasks {
		fmt.Fprintf(&b, "- %s (%s): rated %d/%d\n", completed.Title, completed.TaskID, completed.Rating, types.MaxRating)
	}

	b.WriteString("\nPrefer not to repeat these task ids:\n")
	fmt.Fprintf(&b, "- currently active: %s\n", strings.Join(profile.ActiveTaskIDs, ", "))
	fmt.Fprintf(&b, "- currently suggested: %s\n", strings.Join(profile.CurrentSuggestionIDs, ", "))
	fmt.Fprintf(&b, "- recently shown: %s\n", strings.Join(profile.SuggestionHistory, ", "))

	b.WriteString("\nTask catalog (id, title, category):\n")
	for _, entry := range catalog {
		fmt.Fprintf(&b, "- %s, %s, %s\n", entry.ID, entry.Title, entry.CategoryTitle)
	}

	b.WriteString("\nRespond with a single JSON object of the form " +
		`{"suggested_task_ids": ["id1", "id2", "id3"]}` +
		" and no other text.")

	return b.String()
}
