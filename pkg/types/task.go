// Package types provides core data structures shared by the suggestion
// pipeline, the storage adapters, and the API layer.
package types

import (
	"errors"
	"strconv"
)

// Rating bounds for completed tasks.
const (
	MinRating = 0
	MaxRating = 5
)

// TaskCatalogEntry represents one definable task in the catalog. Catalog
// entries are reference data: the suggestion core reads them, never writes.
type TaskCatalogEntry struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	CategoryTitle     string               `json:"category_title"`
	CategoryIcon      string               `json:"category_icon"`
	DefaultPictureURL string               `json:"default_picture"`
	Milestones        map[string]Milestone `json:"milestones,omitempty"`
}

// Milestone is a category completion-count threshold that unlocks a
// title/badge. Keys in TaskCatalogEntry.Milestones are the thresholds as
// decimal strings.
type Milestone struct {
	Title string `json:"title"`
	Badge string `json:"badge"`
}

// MilestoneAt returns the milestone unlocked at exactly count completions in
// this entry's category, if one is defined.
func (t *TaskCatalogEntry) MilestoneAt(count int) (Milestone, bool) {
	m, ok := t.Milestones[strconv.Itoa(count)]
	return m, ok
}

// Validate checks the fields the rest of the system relies on.
func (t *TaskCatalogEntry) Validate() error {
	if t.ID == "" {
		return errors.New("task id is required")
	}
	if t.Title == "" {
		return errors.New("task title is required")
	}
	if t.CategoryTitle == "" {
		return errors.New("task category title is required")
	}
	return nil
}

// CatalogByID indexes catalog entries by id.
func CatalogByID(catalog []TaskCatalogEntry) map[string]TaskCatalogEntry {
	byID := make(map[string]TaskCatalogEntry, len(catalog))
	for _, entry := range catalog {
		byID[entry.ID] = entry
	}
	return byID
}
