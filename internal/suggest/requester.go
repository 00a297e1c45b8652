package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"habitquest/internal/ai"
	"habitquest/internal/apperrors"
	"habitquest/internal/logging"
	"habitquest/pkg/types"
)

// DefaultMaxAttempts is the retry budget per suggestion request.
const DefaultMaxAttempts = 10

// Requester sends the aggregated context to the completion service and
// parses the structured response, retrying on malformed output.
type Requester struct {
	client      ai.Client
	temperature float64
	maxTokens   int
	maxAttempts int
	logger      logging.Logger
}

// NewRequester creates a new suggestion requester
func NewRequester(client ai.Client, temperature float64, maxTokens, maxAttempts int, logger logging.Logger) *Requester {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Requester{
		client:      client,
		temperature: temperature,
		maxTokens:   maxTokens,
		maxAttempts: maxAttempts,
		logger:      logger.WithComponent("requester"),
	}
}

// RequestSuggestions asks the completion service for task ids. It returns
// between 0 and 3 ids; callers must not assume 3. Attempts run strictly in
// sequence with no backoff, each a fresh round trip; a transport error or
// malformed content consumes an attempt. Once the budget is exhausted the
// last observed error is surfaced as SUGGESTION_EXHAUSTED.
func (r *Requester) RequestSuggestions(ctx context.Context, profile *types.UserTaskProfile, catalog []types.TaskCatalogEntry) ([]string, error) {
	req := &ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: systemMessage},
			{Role: ai.RoleUser, Content: BuildPrompt(profile, catalog)},
		},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		resp, err := r.client.Complete(ctx, req)
		if err != nil {
			lastErr = err
			r.logger.DebugContext(ctx, "completion attempt failed",
				"attempt", attempt, "error", err)
			continue
		}

		ids, err := parseSuggestionContent(resp.Content)
		if err != nil {
			lastErr = err
			r.logger.DebugContext(ctx, "completion attempt returned malformed content",
				"attempt", attempt, "error", err)
			continue
		}

		if len(ids) > types.SuggestionSlotCount {
			ids = ids[:types.SuggestionSlotCount]
		}
		return ids, nil
	}

	if lastErr == nil {
		lastErr = errors.New("completion service produced no usable response")
	}
	return nil, apperrors.Wrap(apperrors.ErrorCodeSuggestionExhausted,
		fmt.Sprintf("suggestion request failed after %d attempts", r.maxAttempts), lastErr)
}

// parseSuggestionContent validates completion output in two stages: a cheap
// shape sniff that fast-rejects prose, then a strict JSON parse.
func parseSuggestionContent(content string) ([]string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, errors.New("empty completion content")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, errors.New("completion content is not a JSON object")
	}
	if !strings.Contains(trimmed, "suggested_task_ids") {
		return nil, errors.New("completion content lacks suggested_task_ids")
	}

	var payload types.SuggestionResponse
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, fmt.Errorf("malformed suggestion payload: %w", err)
	}
	return payload.SuggestedTaskIDs, nil
}
