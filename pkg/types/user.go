package types

import "time"

// DateKeyFormat is the layout for per-day keys in user documents.
const DateKeyFormat = "2006-01-02"

// DateKey formats t as a per-day document key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyFormat)
}

// DailyTaskSlot is one of a user's three daily task slots for a given date.
// Slots are appended per date and superseded the next day, never deleted
// within the day.
type DailyTaskSlot struct {
	TaskID      string `json:"task_id"`
	IsCompleted bool   `json:"is_completed"`
	Rating      *int   `json:"rating,omitempty"`
}

// CompletedTask is a finished task with the rating the user gave it.
type CompletedTask struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Rating int    `json:"rating"`
}

// UserRecord mirrors the persistent store's users/{uid} document.
type UserRecord struct {
	Preferences       []string                    `json:"preferences"`
	CategoryProgress  map[string]int              `json:"category_progress"`
	DailyTasks        map[string][]DailyTaskSlot  `json:"daily_tasks"`
	DailySuggestions  map[string]map[string]string `json:"daily_suggestions"`
	SuggestionHistory []string                    `json:"suggestion_history"`
	Rerolls           int                         `json:"rerolls"`
	EarnedTitles      []string                    `json:"earned_titles,omitempty"`
}

// NewUserRecord returns an empty record with all maps allocated.
func NewUserRecord() *UserRecord {
	return &UserRecord{
		CategoryProgress: make(map[string]int),
		DailyTasks:       make(map[string][]DailyTaskSlot),
		DailySuggestions: make(map[string]map[string]string),
	}
}

// Clone deep-copies the record. Storage implementations hand out clones so
// callers can never mutate store state outside a transaction.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	out := &UserRecord{
		Preferences:       append([]string(nil), u.Preferences...),
		CategoryProgress:  make(map[string]int, len(u.CategoryProgress)),
		DailyTasks:        make(map[string][]DailyTaskSlot, len(u.DailyTasks)),
		DailySuggestions:  make(map[string]map[string]string, len(u.DailySuggestions)),
		SuggestionHistory: append([]string(nil), u.SuggestionHistory...),
		Rerolls:           u.Rerolls,
		EarnedTitles:      append([]string(nil), u.EarnedTitles...),
	}
	for k, v := range u.CategoryProgress {
		out.CategoryProgress[k] = v
	}
	for date, slots := range u.DailyTasks {
		copied := make([]DailyTaskSlot, len(slots))
		for i, slot := range slots {
			copied[i] = slot
			if slot.Rating != nil {
				r := *slot.Rating
				copied[i].Rating = &r
			}
		}
		out.DailyTasks[date] = copied
	}
	for date, slots := range u.DailySuggestions {
		copied := make(map[string]string, len(slots))
		for idx, id := range slots {
			copied[idx] = id
		}
		out.DailySuggestions[date] = copied
	}
	return out
}

// UserTaskProfile is the aggregated view the suggestion pipeline works from.
// It is derived per call and never stored as one object.
type UserTaskProfile struct {
	UserID               string          `json:"user_id"`
	Preferences          []string        `json:"preferences"`
	CategoryProgress     map[string]int  `json:"category_progress"`
	ActiveTaskIDs        []string        `json:"active_task_ids"`
	CurrentSuggestionIDs []string        `json:"current_suggestion_ids"`
	SuggestionHistory    []string        `json:"suggestion_history"`
	CompletedTasks       []CompletedTask `json:"completed_tasks"`
}

// ExclusionSet unions the profile's three exclusion sources into one id set.
func (p *UserTaskProfile) ExclusionSet() map[string]struct{} {
	excluded := make(map[string]struct{},
		len(p.ActiveTaskIDs)+len(p.CurrentSuggestionIDs)+len(p.SuggestionHistory))
	for _, id := range p.ActiveTaskIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range p.CurrentSuggestionIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range p.SuggestionHistory {
		excluded[id] = struct{}{}
	}
	return excluded
}

// PrefersCategory reports whether category is one of the user's preferences.
func (p *UserTaskProfile) PrefersCategory(category string) bool {
	for _, pref := range p.Preferences {
		if pref == category {
			return true
		}
	}
	return false
}
