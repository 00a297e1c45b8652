package suggest

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"habitquest/internal/ai"
	"habitquest/internal/logging"
	"habitquest/internal/storage"
	"habitquest/pkg/types"
)

const testUserID = "user-1"

// testCatalog builds n tasks spread over the given categories round-robin.
func testCatalog(n int, categories ...string) []types.TaskCatalogEntry {
	if len(categories) == 0 {
		categories = []string{"Fitness"}
	}
	entries := make([]types.TaskCatalogEntry, 0, n)
	for i := 0; i < n; i++ {
		id := "t" + strconv.Itoa(i+1)
		entries = append(entries, types.TaskCatalogEntry{
			ID:                id,
			Title:             "Task " + strconv.Itoa(i+1),
			CategoryTitle:     categories[i%len(categories)],
			DefaultPictureURL: "https://pics.example/" + id + ".jpg",
		})
	}
	return entries
}

// testEnv bundles the pipeline over in-memory stores with a scripted client.
type testEnv struct {
	users   *storage.MemoryUserStore
	catalog *storage.MemoryCatalogStore
	client  ai.Client
	service *Service
	rerolls *RerollLedger
}

func newTestEnv(t *testing.T, client ai.Client, catalog []types.TaskCatalogEntry, user *types.UserRecord) *testEnv {
	t.Helper()

	users := storage.NewMemoryUserStore()
	if user != nil {
		require.NoError(t, users.CreateUser(context.Background(), testUserID, user))
	}
	catalogStore := storage.NewMemoryCatalogStore(catalog)
	logger := logging.NewNoOpLogger()

	aggregator := NewAggregator(users, catalogStore, logger)
	requester := NewRequester(client, 0.7, 512, DefaultMaxAttempts, logger)
	fallback := NewFallbackEngineWithSeed(42)
	rerolls := NewRerollLedger(users, 1, logger)
	service := NewService(aggregator, requester, fallback, rerolls, users, catalogStore, logger)

	return &testEnv{
		users:   users,
		catalog: catalogStore,
		client:  client,
		service: service,
		rerolls: rerolls,
	}
}

// gatedClient holds every completion call until the test releases the gate,
// signalling on entered as each call arrives. Used to pin a pipeline run
// in-flight while the test acts around it.
type gatedClient struct {
	inner   ai.Client
	entered chan struct{}
	release chan struct{}
}

func newGatedClient(inner ai.Client) *gatedClient {
	return &gatedClient{
		inner:   inner,
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (g *gatedClient) Complete(ctx context.Context, req *ai.ChatRequest) (*ai.ChatResponse, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.inner.Complete(ctx, req)
}

func basicUser(preferences ...string) *types.UserRecord {
	user := types.NewUserRecord()
	user.Preferences = preferences
	return user
}

func suggestionJSON(ids ...string) string {
	out := `{"suggested_task_ids": [`
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += `"` + id + `"`
	}
	return out + `]}`
}
