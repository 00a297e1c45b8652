package types

// SuggestionSlotCount is how many suggestion slots a user sees per day.
const SuggestionSlotCount = 3

// SuggestionHistoryCap bounds the suggestion-history log. Once the stored
// history exceeds the cap it is cleared whole rather than trimmed.
const SuggestionHistoryCap = 30

// SuggestionResponse is the payload the completion service is instructed to
// return as its entire message content.
type SuggestionResponse struct {
	SuggestedTaskIDs []string `json:"suggested_task_ids"`
}
