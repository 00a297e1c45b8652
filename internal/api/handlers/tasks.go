package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"habitquest/internal/api/response"
	"habitquest/internal/apperrors"
	"habitquest/internal/storage"
	"habitquest/internal/suggest"
	"habitquest/pkg/types"
)

// nowFunc is swapped by tests that pin the current day.
var nowFunc = time.Now

// TaskHandler exposes the task catalog, daily slots and completion over HTTP
type TaskHandler struct {
	service *suggest.Service
	users   storage.UserStore
	catalog storage.CatalogStore
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(service *suggest.Service, users storage.UserStore, catalog storage.CatalogStore) *TaskHandler {
	return &TaskHandler{service: service, users: users, catalog: catalog}
}

// CompleteRequest is the body for completing a daily task
type CompleteRequest struct {
	Rating   int    `json:"rating"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// CompleteResult reports a completion and any milestone it unlocked
type CompleteResult struct {
	TaskID    string           `json:"task_id"`
	Milestone *types.Milestone `json:"milestone,omitempty"`
}

// RegisterRequest is the body for creating a user document
type RegisterRequest struct {
	Preferences []string `json:"preferences"`
	Rerolls     int      `json:"rerolls"`
}

// ListCatalog returns the full task catalog
func (h *TaskHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListTasks(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, apperrors.ErrorCodeStoreError, "failed to load catalog")
		return
	}
	response.WriteSuccess(w, http.StatusOK, entries)
}

// Complete marks a daily task as completed with a rating and optional photo
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, apperrors.ErrorCodeValidationError, "invalid JSON request")
		return
	}

	milestone, err := h.service.CompleteTask(r.Context(), userID, taskID, req.Rating, req.PhotoURL)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, CompleteResult{TaskID: taskID, Milestone: milestone})
}

// Register creates the user's document after onboarding
func (h *TaskHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, apperrors.ErrorCodeValidationError, "invalid JSON request")
		return
	}
	if len(req.Preferences) == 0 {
		response.WriteError(w, http.StatusBadRequest, apperrors.ErrorCodeRequiredField, "preferences are required")
		return
	}

	user := types.NewUserRecord()
	user.Preferences = req.Preferences
	user.Rerolls = req.Rerolls

	if err := h.users.CreateUser(r.Context(), userID, user); err != nil {
		response.WriteError(w, http.StatusConflict, apperrors.ErrorCodeStoreError, err.Error())
		return
	}
	response.WriteSuccess(w, http.StatusCreated, map[string]string{"user_id": userID})
}

// DailyTasks returns today's slots for the user
func (h *TaskHandler) DailyTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		response.WriteAppError(w, apperrors.Wrap(apperrors.ErrorCodeNotFound, "user not found", err))
		return
	}

	today := types.DateKey(nowFunc())
	response.WriteSuccess(w, http.StatusOK, user.DailyTasks[today])
}
