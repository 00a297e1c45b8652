package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitquest/internal/ai"
	"habitquest/internal/logging"
	"habitquest/internal/storage"
	"habitquest/internal/suggest"
	"habitquest/pkg/types"
)

type apiEnv struct {
	users   *storage.MemoryUserStore
	client  *ai.MockClient
	handler http.Handler
}

func newAPIEnv(t *testing.T, client *ai.MockClient, catalogSize int) *apiEnv {
	t.Helper()

	users := storage.NewMemoryUserStore()

	entries := make([]types.TaskCatalogEntry, 0, catalogSize)
	for i := 0; i < catalogSize; i++ {
		id := "t" + strconv.Itoa(i+1)
		entries = append(entries, types.TaskCatalogEntry{
			ID:            id,
			Title:         "Task " + strconv.Itoa(i+1),
			CategoryTitle: "Fitness",
		})
	}
	catalog := storage.NewMemoryCatalogStore(entries)

	logger := logging.NewNoOpLogger()
	aggregator := suggest.NewAggregator(users, catalog, logger)
	requester := suggest.NewRequester(client, 0.7, 512, suggest.DefaultMaxAttempts, logger)
	fallback := suggest.NewFallbackEngineWithSeed(42)
	rerolls := suggest.NewRerollLedger(users, 1, logger)
	service := suggest.NewService(aggregator, requester, fallback, rerolls, users, catalog, logger)

	router := NewRouter(service, users, catalog, logger)
	return &apiEnv{users: users, client: client, handler: router.Handler()}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestRouter_Health(t *testing.T) {
	env := newAPIEnv(t, ai.NewMockClient(""), 3)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RegisterAndSuggestionFlow(t *testing.T) {
	env := newAPIEnv(t, ai.NewMockClient(`{"suggested_task_ids": ["t1", "t2", "t3"]}`), 6)

	rec := env.do(t, http.MethodPost, "/api/v1/users/u1/", map[string]any{
		"preferences": []string{"Fitness"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/u1/suggestions/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeData[[]types.TaskCatalogEntry](t, rec)
	require.Len(t, entries, 3)
	assert.Equal(t, "t1", entries[0].ID)

	rec = env.do(t, http.MethodPost, "/api/v1/users/u1/suggestions/confirm", map[string]string{
		"task_id": "t2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/u1/daily-tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decodeData[[]types.DailyTaskSlot](t, rec)
	require.Len(t, slots, 1)
	assert.Equal(t, "t2", slots[0].TaskID)
}

func TestRouter_RegisterValidation(t *testing.T) {
	env := newAPIEnv(t, ai.NewMockClient(""), 3)

	rec := env.do(t, http.MethodPost, "/api/v1/users/u1/", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "REQUIRED_FIELD", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/v1/users/u1/", map[string]any{"preferences": []string{"Fitness"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users/u1/", map[string]any{"preferences": []string{"Fitness"}})
	assert.Equal(t, http.StatusConflict, rec.Code, "registering twice is rejected")
}

func TestRouter_SuggestionsForUnknownUser(t *testing.T) {
	env := newAPIEnv(t, ai.NewMockClient(""), 3)

	rec := env.do(t, http.MethodGet, "/api/v1/users/ghost/suggestions/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))
}

func TestRouter_RerollWithoutBudget(t *testing.T) {
	env := newAPIEnv(t, ai.NewMockClient(`{"suggested_task_ids": ["t1", "t2", "t3"]}`), 6)

	rec := env.do(t, http.MethodPost, "/api/v1/users/u1/", map[string]any{"preferences": []string{"Fitness"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users/u1/suggestions/reroll", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_REROLLS_LEFT", errorCode(t, rec))
}

func TestRouter_CompleteTaskWithPhoto(t *testing.T) {
	env := newAPIEnv(t, ai.NewMockClient(""), 3)

	user := types.NewUserRecord()
	user.Preferences = []string{"Fitness"}
	user.DailyTasks = map[string][]types.DailyTaskSlot{
		types.DateKey(time.Now()): {{TaskID: "t1"}},
	}
	require.NoError(t, env.users.CreateUser(context.Background(), "u1", user))

	rec := env.do(t, http.MethodPost, "/api/v1/users/u1/tasks/t1/complete", map[string]any{
		"rating":    5,
		"photo_url": "https://photos.example/p.jpg",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/u1/rerolls", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	budget := decodeData[map[string]int](t, rec)
	assert.Equal(t, 1, budget["rerolls"])
}

func TestRouter_CompleteUnknownTask(t *testing.T) {
	env := newAPIEnv(t, ai.NewMockClient(""), 3)

	user := types.NewUserRecord()
	require.NoError(t, env.users.CreateUser(context.Background(), "u1", user))

	rec := env.do(t, http.MethodPost, "/api/v1/users/u1/tasks/ghost/complete", map[string]any{"rating": 3})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TASK_NOT_FOUND", errorCode(t, rec))
}

func TestRouter_ListCatalog(t *testing.T) {
	env := newAPIEnv(t, ai.NewMockClient(""), 4)

	rec := env.do(t, http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeData[[]types.TaskCatalogEntry](t, rec)
	assert.Len(t, entries, 4)
}
