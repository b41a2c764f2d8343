package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/config"
	"github.com/xiaot623/gogo/datachat/internal/dataset"
	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/metrics"
	"github.com/xiaot623/gogo/datachat/internal/pipeline"
	"github.com/xiaot623/gogo/datachat/internal/policy"
	"github.com/xiaot623/gogo/datachat/internal/registry"
	"github.com/xiaot623/gogo/datachat/internal/repository"
	"github.com/xiaot623/gogo/datachat/tests/helpers"
)

const spendCSV = "date,spend\n2024-01-01,100\n2024-01-02,250\n2024-01-03,175\n"

type testEnv struct {
	svc      *Service
	store    *repository.SQLiteStore
	registry *registry.Registry
	source   string
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spend.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return path
}

func newTestEnv(t *testing.T, p Pipeline) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := helpers.NewTestSQLiteStore(t)
	m := metrics.New()
	if p == nil {
		client := llm.NewMockClient()
		opts := pipeline.ModelOptions{Model: "mock"}
		exec, err := pipeline.NewExecutor(ctx, pipeline.NewLLMClassifier(client, opts), pipeline.NewLLMGenerators(client, opts), NewTraceObserver(store, m))
		require.NoError(t, err)
		p = exec
	}
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)

	source := writeCSV(t, spendCSV)
	cfg := &config.Config{DefaultDatasetSource: source, SessionListLimit: 100}
	reg := registry.New()
	svc := New(reg, dataset.NewBuilder(2*time.Second), p, store, engine, m, cfg)
	return &testEnv{svc: svc, store: store, registry: reg, source: source}
}

func eventTypes(t *testing.T, env *testEnv, runID string) []domain.EventType {
	t.Helper()
	events, err := env.svc.GetRunEvents(context.Background(), runID, 0, nil, 0)
	require.NoError(t, err)
	out := make([]domain.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestQueryChartRegistersSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	resp, err := env.svc.Query(ctx, domain.QueryRequest{Query: "show me a line chart of spend over time"})
	require.NoError(t, err)

	assert.Equal(t, domain.ResponseTypeChart, resp.Type)
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.RunID)

	var payload domain.ChartPayload
	require.NoError(t, json.Unmarshal(resp.Response, &payload))
	require.NotEmpty(t, payload.Charts)
	assert.Equal(t, domain.ChartTypeLine, payload.Charts[0].ChartType)

	source, ok := env.registry.Source(resp.SessionID)
	require.True(t, ok)
	assert.Equal(t, env.source, source)

	run, err := env.svc.GetRun(ctx, resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusDone, run.Status)
	assert.Equal(t, domain.LabelGenerateGraph, run.RoutingLabel)
	assert.Equal(t, domain.ResponseTypeChart, run.ResponseType)
	assert.Equal(t, resp.SessionID, run.SessionID)

	assert.Equal(t, []domain.EventType{
		domain.EventTypeRunStarted,
		domain.EventTypeDatasetLoaded,
		domain.EventTypeClassified,
		domain.EventTypeRouted,
		domain.EventTypeGenerated,
		domain.EventTypeRunDone,
	}, eventTypes(t, env, resp.RunID))
}

func TestQueryTextResponseIsJSONString(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.svc.Query(context.Background(), domain.QueryRequest{Query: "what was the average spend?"})
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseTypeText, resp.Type)

	var text string
	require.NoError(t, json.Unmarshal(resp.Response, &text))
	assert.Contains(t, text, "spend")
}

func TestQueryDashboard(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.svc.Query(context.Background(), domain.QueryRequest{Query: "give me a full dashboard summary"})
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseTypeDashboard, resp.Type)

	var payload domain.DashboardPayload
	require.NoError(t, json.Unmarshal(resp.Response, &payload))
	require.NotEmpty(t, payload.Items)
	for i := 1; i < len(payload.Items); i++ {
		prev := payload.Items[i-1]
		assert.GreaterOrEqual(t, payload.Items[i].Y, prev.Y+prev.Height+pipeline.MinVerticalGap)
	}
}

func TestQueryRegisteredSessionKeepsSource(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	created, err := env.svc.CreateSession(ctx, domain.CreateSessionRequest{DatasetSource: env.source, SessionID: "s1"})
	require.NoError(t, err)
	require.Equal(t, "s1", created.SessionID)

	resp, err := env.svc.Query(ctx, domain.QueryRequest{
		Query:         "what was the average spend?",
		SessionID:     "s1",
		DatasetSource: "/does/not/exist.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.SessionID)
}

func TestQueryUnknownSessionIsCreatedTransparently(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.svc.Query(context.Background(), domain.QueryRequest{
		Query:         "what was the average spend?",
		SessionID:     "fresh",
		DatasetSource: env.source,
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", resp.SessionID)

	rec, err := env.svc.GetSession(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, env.source, rec.DatasetSource)
}

func TestQueryBlankIsInvalidRequest(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.Query(context.Background(), domain.QueryRequest{Query: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, 0, env.registry.Len())
}

func TestQueryRemoteFailureSurfacesSingleError(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL + "/test.csv"
	srv.Close()

	resp, err := env.svc.Query(context.Background(), domain.QueryRequest{
		Query:         "what was the average spend?",
		SessionID:     "remote",
		DatasetSource: url,
	})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

	// The session is only registered after a successful load.
	_, ok := env.registry.Get("remote")
	assert.False(t, ok)

	runs, err := env.svc.ListSessionRuns(context.Background(), "remote", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)
	assert.Equal(t, domain.KindRemoteUnavailable, runs[0].ErrorKind)
	assert.Equal(t, []domain.EventType{domain.EventTypeRunStarted, domain.EventTypeRunFailed}, eventTypes(t, env, runs[0].RunID))
}

func TestQueryRemoteHTTPError(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := env.svc.Query(context.Background(), domain.QueryRequest{Query: "q", DatasetSource: srv.URL + "/data.csv"})
	require.Error(t, err)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindRemoteHTTPError, de.Kind)
	assert.Equal(t, http.StatusForbidden, de.Status)
}

func TestQueryBlockedSource(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.Query(context.Background(), domain.QueryRequest{Query: "q", DatasetSource: "ftp://example.com/data.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceBlocked)
}

type failingPipeline struct {
	err error
}

func (p failingPipeline) Run(ctx context.Context, state *domain.ConversationState, question string) (domain.Message, error) {
	state.RoutingLabel = domain.LabelGenerateDashboard
	return domain.Message{}, p.err
}

func TestQueryPipelineFailureMarksRunFailed(t *testing.T) {
	env := newTestEnv(t, failingPipeline{err: domain.NewError(domain.KindStructuredOutputInvalid, "bad layout", nil)})
	ctx := context.Background()

	_, err := env.svc.Query(ctx, domain.QueryRequest{Query: "dashboard please", SessionID: "s1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStructuredOutputInvalid)

	runs, err := env.svc.ListSessionRuns(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)
	assert.Equal(t, domain.KindStructuredOutputInvalid, runs[0].ErrorKind)
	assert.NotNil(t, runs[0].EndedAt)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.CreateSession(ctx, domain.CreateSessionRequest{DatasetSource: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidSource)

	_, err = env.svc.CreateSession(ctx, domain.CreateSessionRequest{DatasetSource: "file:///etc/passwd"})
	assert.ErrorIs(t, err, domain.ErrSourceBlocked)

	first, err := env.svc.CreateSession(ctx, domain.CreateSessionRequest{DatasetSource: env.source})
	require.NoError(t, err)
	second, err := env.svc.CreateSession(ctx, domain.CreateSessionRequest{DatasetSource: "other.csv", SessionID: "named"})
	require.NoError(t, err)
	assert.Equal(t, "named", second.SessionID)

	list := env.svc.ListSessions(ctx, 0)
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, first.SessionID, list.Sessions[0].SessionID)
	assert.Len(t, env.svc.ListSessions(ctx, 1).Sessions, 1)

	profile, err := env.svc.SessionProfile(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "spend"}, profile.Columns)

	del, err := env.svc.DeleteSession(ctx, "named")
	require.NoError(t, err)
	assert.True(t, del.Deleted)

	_, err = env.svc.DeleteSession(ctx, "named")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = env.svc.GetSession(ctx, "named")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = env.svc.SessionProfile(ctx, "named")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	env.svc.Shutdown()
	assert.Equal(t, 0, env.registry.Len())
}

func TestGetRunNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.GetRun(context.Background(), "run_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.svc.GetRunEvents(context.Background(), "run_missing", 0, nil, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentQueries(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	questions := []string{
		"show me a line chart of spend over time",
		"what was the average spend?",
		"give me a full dashboard summary",
	}
	want := []domain.ResponseType{domain.ResponseTypeChart, domain.ResponseTypeText, domain.ResponseTypeDashboard}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := env.svc.Query(ctx, domain.QueryRequest{Query: questions[i%3], SessionID: "shared"})
			if err != nil {
				errs <- err
				return
			}
			if resp.Type != want[i%3] {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent query failed: %v", err)
	}
	assert.Equal(t, 1, env.registry.Len())
}

func TestSweepStaleRuns(t *testing.T) {
	env := newTestEnv(t, nil)
	env.svc.config.RunStaleAfter = 10 * time.Minute
	ctx := context.Background()

	require.NoError(t, env.store.CreateRun(ctx, &domain.Run{
		RunID: "run_stale", SessionID: "s1", Status: domain.RunStatusRunning, StartedAt: time.Now().Add(-time.Hour),
	}))
	resp, err := env.svc.Query(ctx, domain.QueryRequest{Query: "show spend over time", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, 1, env.svc.sweepStaleRuns(ctx))
	assert.Equal(t, 0, env.svc.sweepStaleRuns(ctx))

	run, err := env.svc.GetRun(ctx, "run_stale")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Equal(t, domain.KindInternal, run.ErrorKind)
	assert.Equal(t, []domain.EventType{domain.EventTypeRunFailed}, eventTypes(t, env, "run_stale"))

	done, err := env.svc.GetRun(ctx, resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusDone, done.Status)
}
