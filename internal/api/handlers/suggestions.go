// Package handlers provides the HTTP handlers the presentation layer calls
// into.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"habitquest/internal/api/response"
	"habitquest/internal/apperrors"
	"habitquest/internal/suggest"
)

// SuggestionHandler exposes the suggestion pipeline over HTTP
type SuggestionHandler struct {
	service *suggest.Service
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(service *suggest.Service) *SuggestionHandler {
	return &SuggestionHandler{service: service}
}

// ConfirmRequest is the body for confirming a suggestion into a daily slot
type ConfirmRequest struct {
	TaskID string `json:"task_id"`
}

// GetSuggestions returns today's three suggestions, generating them when no
// day cache exists
func (h *SuggestionHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.SuggestionsForToday(r.Context(), userID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, entries)
}

// Reroll regenerates today's suggestions, spending one reroll
func (h *SuggestionHandler) Reroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Reroll(r.Context(), userID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, entries)
}

// Confirm writes a chosen suggestion into the first empty daily slot
func (h *SuggestionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, apperrors.ErrorCodeValidationError, "invalid JSON request")
		return
	}
	if req.TaskID == "" {
		response.WriteError(w, http.StatusBadRequest, apperrors.ErrorCodeRequiredField, "task_id is required")
		return
	}

	if err := h.service.ConfirmSuggestion(r.Context(), userID, req.TaskID); err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]string{"task_id": req.TaskID})
}

// GetRerollBudget returns the user's remaining rerolls
func (h *SuggestionHandler) GetRerollBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	budget, err := h.service.Rerolls().GetRerollBudget(r.Context(), userID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]int{"rerolls": budget})
}

// requireUserID extracts the user id from the route, rejecting requests
// without one. Authentication itself happens upstream; an empty id here
// means the flow has no user and is fatal.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		response.WriteError(w, http.StatusUnauthorized, apperrors.ErrorCodeUnauthenticated, "no user id")
		return "", false
	}
	return userID, true
}
