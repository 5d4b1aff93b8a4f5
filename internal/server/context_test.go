package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regevbr/anydo/internal/anydo"
	"github.com/regevbr/anydo/internal/calendar"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func taskFixture(id, title, status, categoryID string, due time.Time) map[string]any {
	var dueDate int64
	if !due.IsZero() {
		dueDate = due.UnixMilli()
	}
	return map[string]any{
		"id":         id,
		"title":      title,
		"note":       "",
		"assignedTo": "",
		"status":     status,
		"dueDate":    dueDate,
		"labels":     []string{},
		"categoryId": categoryID,
	}
}

// newFakeAPI serves the login form and the task list the adapters poll.
func newFakeAPI(t *testing.T, tasks []map[string]any) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /j_spring_security_check", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "u1",
			"name":  "Test User",
			"email": "test@example.com",
		})
	})
	mux.HandleFunc("GET /me/tasks", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(tasks)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestContext(t *testing.T, tasks []map[string]any, cfgs ...calendar.ListConfig) *ServerContext {
	t.Helper()

	api := newFakeAPI(t, tasks)
	client, err := anydo.NewClient("test@example.com", "secret", anydo.WithBaseURL(api.URL))
	require.NoError(t, err)

	if len(cfgs) == 0 {
		cfgs = []calendar.ListConfig{{Name: "Tasks"}}
	}

	adapters := make([]*calendar.ListAdapter, 0, len(cfgs))
	for _, cfg := range cfgs {
		adapters = append(adapters, calendar.NewListAdapter(client, nil, cfg,
			calendar.WithClock(func() time.Time { return testNow }),
			calendar.WithLocation(time.UTC),
		))
	}

	sc, err := NewServerContext(context.Background(), client, adapters)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_RequiresClient(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestServerContext_AdapterByName(t *testing.T) {
	sc := newTestContext(t, nil,
		calendar.ListConfig{Name: "Work"},
		calendar.ListConfig{Name: "Personal"},
	)

	assert.NotNil(t, sc.AdapterByName("Work"))
	assert.NotNil(t, sc.AdapterByName("personal"), "lookup should be case-insensitive")
	assert.Nil(t, sc.AdapterByName("missing"))
}

func TestServerContext_UpdateAll(t *testing.T) {
	tasks := []map[string]any{
		taskFixture("t1", "Buy milk", anydo.StatusUnchecked, "c1", testNow.Add(24*time.Hour)),
		taskFixture("t2", "Pay rent", anydo.StatusUnchecked, "c1", testNow.Add(48*time.Hour)),
	}
	sc := newTestContext(t, tasks)

	require.NoError(t, sc.UpdateAll(context.Background()))

	adapter := sc.Adapters()[0]
	require.NotNil(t, adapter.Event())
	assert.Equal(t, "Buy milk", adapter.Event().Summary)
	assert.Len(t, adapter.AllTasks(), 2)

	last, err := sc.LastUpdate()
	assert.False(t, last.IsZero())
	assert.NoError(t, err)
}

func TestServerContext_UpdateAdapter(t *testing.T) {
	tasks := []map[string]any{
		taskFixture("t1", "Buy milk", anydo.StatusUnchecked, "c1", testNow.Add(24*time.Hour)),
	}
	sc := newTestContext(t, tasks)

	adapter := sc.Adapters()[0]
	require.NoError(t, sc.UpdateAdapter(context.Background(), adapter))

	require.NotNil(t, adapter.Event())
	assert.Equal(t, "Buy milk", adapter.Event().Summary)

	// A single-adapter refresh is not a full cycle
	last, _ := sc.LastUpdate()
	assert.True(t, last.IsZero())
}

func TestServerContext_UpdateAllConcurrentWithReads(t *testing.T) {
	tasks := []map[string]any{
		taskFixture("t1", "Buy milk", anydo.StatusUnchecked, "c1", testNow.Add(24*time.Hour)),
		taskFixture("t2", "Pay rent", anydo.StatusUnchecked, "c1", testNow.Add(48*time.Hour)),
	}
	sc := newTestContext(t, tasks)
	adapter := sc.Adapters()[0]

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_ = sc.UpdateAll(context.Background())
		}
	}()

	// Exercised under the race detector: handler-style reads while the
	// poll loop replaces the adapter state.
	for {
		select {
		case <-done:
			require.NotNil(t, adapter.Event())
			assert.Equal(t, "Buy milk", adapter.Event().Summary)
			return
		default:
			_ = adapter.Event()
			_ = adapter.AllTasks()
			_ = adapter.AllTaskSummaries()
		}
	}
}

func TestServerContext_UpdateAll_RecordsFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client, err := anydo.NewClient("test@example.com", "bad", anydo.WithBaseURL(ts.URL))
	require.NoError(t, err)

	adapter := calendar.NewListAdapter(client, nil, calendar.ListConfig{Name: "Tasks"})
	sc, err := NewServerContext(context.Background(), client, []*calendar.ListAdapter{adapter})
	require.NoError(t, err)

	require.Error(t, sc.UpdateAll(context.Background()))

	last, lastErr := sc.LastUpdate()
	assert.False(t, last.IsZero())
	assert.Error(t, lastErr)
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestContext(t, nil)

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())

	// Shutdown is idempotent
	require.NoError(t, sc.Shutdown())

	select {
	case <-sc.Context().Done():
	default:
		t.Error("expected context to be cancelled after shutdown")
	}
}
