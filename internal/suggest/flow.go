package suggest

import (
	"context"
	"fmt"
	"sync"

	"habitquest/internal/apperrors"
	"habitquest/pkg/types"
)

// FlowState is one state of the daily-slot suggestion flow.
type FlowState int

const (
	// FlowIdle means no slot interaction is in progress.
	FlowIdle FlowState = iota
	// FlowSlotChosen means the user tapped an empty daily slot and
	// suggestions are being loaded.
	FlowSlotChosen
	// FlowSuggestionsLoaded means three suggestions are on display.
	FlowSuggestionsLoaded
	// FlowSelected means one displayed suggestion is selected.
	FlowSelected
)

// String returns the state name
func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowSlotChosen:
		return "slot_chosen"
	case FlowSuggestionsLoaded:
		return "suggestions_loaded"
	case FlowSelected:
		return "selected"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Flow is the explicit state machine behind a user's daily-slot interaction:
// Idle → SlotChosen → SuggestionsLoaded → (Selected | reroll →
// SuggestionsLoaded) → confirm → Idle. Illegal transitions are rejected with
// INVALID_TRANSITION rather than being representable as scattered flags.
type Flow struct {
	service *Service
	userID  string

	mu       sync.Mutex
	state    FlowState
	loaded   []types.TaskCatalogEntry
	selected string
}

// NewFlow creates an idle flow for one user
func NewFlow(service *Service, userID string) *Flow {
	return &Flow{service: service, userID: userID, state: FlowIdle}
}

// State returns the current state
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Loaded returns the suggestions currently on display
func (f *Flow) Loaded() []types.TaskCatalogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.TaskCatalogEntry(nil), f.loaded...)
}

// ChooseSlot enters the flow from an empty daily slot. A day-cached
// suggestion set is loaded directly; otherwise the pipeline runs once and
// its result is persisted before being shown.
func (f *Flow) ChooseSlot(ctx context.Context) ([]types.TaskCatalogEntry, error) {
	f.mu.Lock()
	if f.state != FlowIdle {
		defer f.mu.Unlock()
		return nil, f.invalidTransition("choose_slot")
	}
	f.state = FlowSlotChosen
	f.mu.Unlock()

	entries, err := f.service.SuggestionsForToday(ctx, f.userID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowSlotChosen {
		// Cancelled while loading; the result is discarded
		return nil, nil
	}
	if err != nil {
		f.state = FlowIdle
		return nil, err
	}
	f.loaded = entries
	f.selected = ""
	f.state = FlowSuggestionsLoaded
	return entries, nil
}

// Select marks one displayed suggestion as the candidate to confirm
func (f *Flow) Select(taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowSuggestionsLoaded && f.state != FlowSelected {
		return f.invalidTransition("select")
	}
	for _, entry := range f.loaded {
		if entry.ID == taskID {
			f.selected = taskID
			f.state = FlowSelected
			return nil
		}
	}
	return apperrors.New(apperrors.ErrorCodeInvalidValue,
		fmt.Sprintf("task %s is not among the displayed suggestions", taskID))
}

// Reroll regenerates the displayed suggestions, spending one budget unit.
// A rejected reroll (zero budget) leaves the flow state untouched.
func (f *Flow) Reroll(ctx context.Context) ([]types.TaskCatalogEntry, error) {
	f.mu.Lock()
	if f.state != FlowSuggestionsLoaded && f.state != FlowSelected {
		defer f.mu.Unlock()
		return nil, f.invalidTransition("reroll")
	}
	f.mu.Unlock()

	entries, err := f.service.Reroll(ctx, f.userID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowSuggestionsLoaded && f.state != FlowSelected {
		// Cancelled while regenerating; the result is discarded
		return nil, nil
	}
	f.loaded = entries
	f.selected = ""
	f.state = FlowSuggestionsLoaded
	return entries, nil
}

// Confirm writes the selected suggestion into the first empty daily slot,
// clears the day cache, and returns the flow to idle. Confirm with no
// selection is an illegal transition.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if f.state != FlowSelected {
		defer f.mu.Unlock()
		return f.invalidTransition("confirm")
	}
	taskID := f.selected
	f.mu.Unlock()

	if err := f.service.ConfirmSuggestion(ctx, f.userID, taskID); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = nil
	f.selected = ""
	f.state = FlowIdle
	return nil
}

// Cancel abandons the flow from any state
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = nil
	f.selected = ""
	f.state = FlowIdle
}

func (f *Flow) invalidTransition(action string) error {
	return apperrors.New(apperrors.ErrorCodeInvalidTransition,
		fmt.Sprintf("cannot %s in state %s", action, f.state))
}
