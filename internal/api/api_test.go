package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kamilpajak/reliability/internal/backend"
	"github.com/kamilpajak/reliability/internal/database"
	"github.com/kamilpajak/reliability/internal/metrics"
	"github.com/kamilpajak/reliability/internal/runner"
	"github.com/kamilpajak/reliability/internal/snapshot"
	"github.com/kamilpajak/reliability/internal/threshold"
	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu         sync.Mutex
	benchmarks []models.BenchmarkRecord
	runResp    *models.SuiteRunResponse
	runs       []models.RunHistoryEntry
	err        error
	cleared    int
}

func (f *fakeBackend) ListBenchmarks(context.Context) ([]models.BenchmarkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.benchmarks, f.err
}

func (f *fakeBackend) RunSuite(context.Context, models.SuiteRunRequest) (*models.SuiteRunResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.runResp
	return &resp, nil
}

func (f *fakeBackend) ListRuns(context.Context) ([]models.RunHistoryEntry, error) {
	return f.runs, f.err
}

func (f *fakeBackend) ClearRuns(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return f.err
}

type fakeEvaluations struct {
	evals []models.Evaluation
}

func (f *fakeEvaluations) CreateEvaluation(_ context.Context, p database.CreateEvaluationParams) (*models.Evaluation, error) {
	e := models.Evaluation{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Model:        p.Model,
		SystemPrompt: p.SystemPrompt,
		UserPrompt:   p.UserPrompt,
		Score:        p.Score,
		Mock:         p.Mock,
	}
	f.evals = append(f.evals, e)
	return &e, nil
}

func (f *fakeEvaluations) GetEvaluationByID(_ context.Context, id uuid.UUID) (*models.Evaluation, error) {
	for i := range f.evals {
		if f.evals[i].ID == id.String() {
			return &f.evals[i], nil
		}
	}
	return nil, nil
}

type fakeRunHistory struct {
	runs []database.Run
}

func (f *fakeRunHistory) GetRunByID(_ context.Context, id uuid.UUID) (*database.Run, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRunHistory) ListRuns(context.Context, database.ListRunsParams) ([]database.Run, error) {
	return f.runs, nil
}

func (f *fakeRunHistory) CountRuns(context.Context) (int, error) {
	return len(f.runs), nil
}

func (f *fakeRunHistory) DeleteAllRuns(context.Context) (int64, error) {
	n := int64(len(f.runs))
	f.runs = nil
	return n, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func (f *fakeEvaluations) ListEvaluations(_ context.Context, p database.ListEvaluationsParams) ([]models.Evaluation, error) {
	out := make([]models.Evaluation, 0)
	for _, e := range f.evals {
		if p.Model == nil || *p.Model == e.Model {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvaluations) ListEvaluationsSince(context.Context, time.Time) ([]models.Evaluation, error) {
	return f.evals, nil
}

func (f *fakeEvaluations) CountEvaluations(context.Context) (int, error) {
	return len(f.evals), nil
}

type testEnv struct {
	server  *Server
	backend *fakeBackend
	evals   *fakeEvaluations
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := &fakeBackend{
		benchmarks: sampleRecords(),
		runResp:    &models.SuiteRunResponse{Benchmarks: sampleRecords()},
	}
	m := metrics.New()
	evals := &fakeEvaluations{}
	r := runner.New(backend, runner.Options{Snapshots: snapshot.NewStore(), Metrics: m})

	server := NewServer(Config{
		Backend:     backend,
		Runner:      r,
		Thresholds:  threshold.NewStore(threshold.NewMemoryKV(), nil),
		Evaluations: evals,
		Metrics:     m,
		CORSOrigin:  "http://localhost:5173",
	})
	return &testEnv{server: server, backend: backend, evals: evals, metrics: m}
}

func sampleRecords() []models.BenchmarkRecord {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.BenchmarkRecord{
		{
			ID: "1111111111", Name: "Output JSON", Status: models.StatusSuccess, SuccessRate: 0.9,
			History: []models.HistoryEntry{
				{Timestamp: &day, Result: true},
			},
		},
		{
			ID: "2222222222", Name: "Translation", Status: models.StatusFailed, SuccessRate: 0.4,
			History: []models.HistoryEntry{
				{Timestamp: ptr(day.Add(time.Hour)), Result: false},
			},
		},
	}
}

func ptr[T any](v T) *T { return &v }

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := do(t, env.server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", resp["status"])
}

func TestHealthEndpoint_Database(t *testing.T) {
	s := NewServer(Config{Database: fakePinger{}})
	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["database"])

	s = NewServer(Config{Database: fakePinger{err: errors.New("failed to ping database: connection refused")}})
	rec = do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "degraded", resp["status"])
	assert.Contains(t, resp["database"], "connection refused")
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	t.Run("OPTIONS request returns 200", func(t *testing.T) {
		rec := do(t, env.server, http.MethodOptions, "/api/benchmarks", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("CORS headers on regular request", func(t *testing.T) {
		rec := do(t, env.server, http.MethodGet, "/health", nil)

		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})

	t.Run("wildcard by default", func(t *testing.T) {
		s := NewServer(Config{})
		rec := do(t, s, http.MethodGet, "/health", nil)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestThresholdEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := do(t, env.server, http.MethodGet, "/api/threshold", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.7, decode[map[string]float64](t, rec)["threshold"])

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"within range", 0.85, 0.85},
		{"clamped low", 0.01, 0.1},
		{"clamped high", 1.5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, env.server, http.MethodPut, "/api/threshold", map[string]float64{"threshold": tt.value})
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode[map[string]float64](t, rec)["threshold"])

			rec = do(t, env.server, http.MethodGet, "/api/threshold", nil)
			assert.Equal(t, tt.want, decode[map[string]float64](t, rec)["threshold"])
		})
	}

	t.Run("missing value", func(t *testing.T) {
		rec := do(t, env.server, http.MethodPut, "/api/threshold", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefreshAndListBenchmarks(t *testing.T) {
	env := newTestEnv(t)

	rec := do(t, env.server, http.MethodGet, "/api/benchmarks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[snapshot.View](t, rec)
	assert.Empty(t, empty.Benchmarks)
	assert.NotNil(t, empty.Benchmarks)

	rec = do(t, env.server, http.MethodPost, "/api/benchmarks/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[snapshot.View](t, rec)
	assert.Len(t, view.Benchmarks, 2)
	assert.Equal(t, models.Summary{Total: 2, Success: 1, Failed: 1}, view.Summary)

	t.Run("failing follows threshold", func(t *testing.T) {
		rec := do(t, env.server, http.MethodGet, "/api/benchmarks?threshold=0.95", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[snapshot.View](t, rec)
		assert.Len(t, v.Failing, 2)
		assert.Equal(t, 0.95, v.Threshold)

		rec = do(t, env.server, http.MethodGet, "/api/benchmarks?threshold=0.3", nil)
		v = decode[snapshot.View](t, rec)
		assert.Empty(t, v.Failing)
	})

	t.Run("trend is cumulative", func(t *testing.T) {
		rec := do(t, env.server, http.MethodGet, "/api/benchmarks", nil)
		v := decode[snapshot.View](t, rec)
		require.Len(t, v.Trend, 2)
		assert.Equal(t, 100, v.Trend[0].SuccessRate)
		assert.Equal(t, 50, v.Trend[1].SuccessRate)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		for _, raw := range []string{"abc", "0", "1.5", "-0.2"} {
			rec := do(t, env.server, http.MethodGet, "/api/benchmarks?threshold="+raw, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
		}
	})

	t.Run("single benchmark", func(t *testing.T) {
		rec := do(t, env.server, http.MethodGet, "/api/benchmarks/2222222222", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Translation", decode[models.BenchmarkRecord](t, rec).Name)

		rec = do(t, env.server, http.MethodGet, "/api/benchmarks/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("derived insights", func(t *testing.T) {
		rec := do(t, env.server, http.MethodGet, "/api/insights", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[map[string]json.RawMessage](t, rec)
		var insights []models.FailureInsight
		require.NoError(t, json.Unmarshal(resp["failureInsights"], &insights))
		require.Len(t, insights, 1)
		assert.Equal(t, "issue-22222222", insights[0].ID)
	})
}

func TestRefreshBenchmarks_BackendError(t *testing.T) {
	env := newTestEnv(t)
	do(t, env.server, http.MethodPost, "/api/benchmarks/refresh", nil)

	env.backend.err = &backend.APIError{Method: http.MethodGet, Path: "/benchmarks", StatusCode: 503, Status: "503 Service Unavailable", Body: "warming up"}
	rec := do(t, env.server, http.MethodPost, "/api/benchmarks/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "backend GET /benchmarks: 503 Service Unavailable - warming up", decode[map[string]string](t, rec)["error"])

	env.backend.err = errors.New("connection refused")
	rec = do(t, env.server, http.MethodPost, "/api/benchmarks/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "connection refused", decode[map[string]string](t, rec)["error"])

	rec = do(t, env.server, http.MethodGet, "/api/benchmarks", nil)
	v := decode[snapshot.View](t, rec)
	assert.Empty(t, v.Benchmarks)
	assert.Equal(t, "connection refused", v.Error)
}

func TestRefreshBenchmarks_SoftFailure(t *testing.T) {
	env := newTestEnv(t)
	do(t, env.server, http.MethodPost, "/api/benchmarks/refresh", nil)

	env.backend.err = &backend.SoftFailureError{Message: "Snapshot unavailable"}
	rec := do(t, env.server, http.MethodPost, "/api/benchmarks/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	v := decode[snapshot.View](t, rec)
	assert.Empty(t, v.Benchmarks)
	assert.Empty(t, v.Failing)
	assert.Equal(t, models.Summary{}, v.Summary)
	assert.Equal(t, "Snapshot unavailable", v.Message)
}

func TestRunSuite(t *testing.T) {
	env := newTestEnv(t)

	rec := do(t, env.server, http.MethodPost, "/api/suites/run", map[string]any{"suite": "output", "save": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.7, resp.Threshold)
	assert.Equal(t, 0.7, resp.Run.Threshold)
	assert.Equal(t, models.Summary{Total: 2, Success: 1, Failed: 1}, resp.Summary)
	assert.Equal(t, models.RunStatusNeedsAttention, resp.Run.Status)
	assert.Len(t, resp.FailureInsights, 1)

	rec = do(t, env.server, http.MethodGet, "/api/benchmarks", nil)
	assert.Len(t, decode[snapshot.View](t, rec).Benchmarks, 2)
}

func TestRunSuite_Errors(t *testing.T) {
	t.Run("unknown suite", func(t *testing.T) {
		env := newTestEnv(t)
		rec := do(t, env.server, http.MethodPost, "/api/suites/run", map[string]any{"suite": "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		env := newTestEnv(t)
		rec := do(t, env.server, http.MethodPost, "/api/suites/run", map[string]any{"suite": "output", "threshold": 2})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("soft failure resets snapshot", func(t *testing.T) {
		env := newTestEnv(t)
		do(t, env.server, http.MethodPost, "/api/benchmarks/refresh", nil)

		env.backend.runResp = &models.SuiteRunResponse{Message: "Snapshot unavailable"}
		rec := do(t, env.server, http.MethodPost, "/api/suites/run", map[string]any{"suite": "output"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp runResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Snapshot unavailable", resp.Message)
		assert.Empty(t, resp.Benchmarks)
		assert.Equal(t, models.Summary{}, resp.Summary)

		v := decode[snapshot.View](t, do(t, env.server, http.MethodGet, "/api/benchmarks", nil))
		assert.Empty(t, v.Benchmarks)
		assert.Equal(t, "Snapshot unavailable", v.Message)
	})

	t.Run("backend failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.err = errors.New("boom")
		rec := do(t, env.server, http.MethodPost, "/api/suites/run", map[string]any{"suite": "output"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "boom")
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodPost, "/api/suites/run", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunSuite_RateLimited(t *testing.T) {
	backend := &fakeBackend{runResp: &models.SuiteRunResponse{}}
	s := NewServer(Config{
		Backend:      backend,
		Runner:       runner.New(backend, runner.Options{}),
		RunRateLimit: 0.001,
		RunBurst:     1,
	})

	rec := do(t, s, http.MethodPost, "/api/suites/run", map[string]any{"suite": "output"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/suites/run", map[string]any{"suite": "output"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRunSuite_Stream(t *testing.T) {
	env := newTestEnv(t)

	body := strings.NewReader(`{"suite":"crisis","threshold":0.8}`)
	req := httptest.NewRequest(http.MethodPost, "/api/suites/run", body)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	out := rec.Body.String()
	assert.Contains(t, out, "event: requested\n")
	assert.Contains(t, out, "event: running\n")
	assert.Contains(t, out, "event: done\n")
	assert.Less(t, strings.Index(out, "event: requested"), strings.Index(out, "event: done"))
}

func TestRunSuite_StreamInvalid(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/suites/run", strings.NewReader(`{"suite":"nope"}`))
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "event: error\n")
}

func TestListSuites(t *testing.T) {
	env := newTestEnv(t)
	rec := do(t, env.server, http.MethodGet, "/api/suites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"crisis"`)
}

func TestRuns_BackendFallback(t *testing.T) {
	env := newTestEnv(t)
	env.backend.runs = []models.RunHistoryEntry{{ID: "r1", Suite: "output", Threshold: 0.7}}

	rec := do(t, env.server, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]json.RawMessage](t, rec)
	assert.JSONEq(t, "1", string(resp["total"]))

	rec = do(t, env.server, http.MethodDelete, "/api/runs", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, env.backend.cleared)
}

func TestEvaluations(t *testing.T) {
	env := newTestEnv(t)

	t.Run("rejects invalid", func(t *testing.T) {
		for _, body := range []map[string]any{
			{"model": "m", "system_prompt": "s", "user_prompt": "p", "score": 1.2},
			{"system_prompt": "s", "user_prompt": "p", "score": 0.5},
			{"model": "m", "user_prompt": "p", "score": 0.5},
			{"model": "m", "system_prompt": "s", "score": 0.5},
		} {
			rec := do(t, env.server, http.MethodPost, "/api/evaluations", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})

	t.Run("rejects blank prompts", func(t *testing.T) {
		rec := do(t, env.server, http.MethodPost, "/api/evaluations",
			map[string]any{"model": "m", "system_prompt": "s", "user_prompt": "   \n\t", "score": 0.5})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, `invalid user_prompt: failed "notblank"`, decode[map[string]string](t, rec)["error"])

		rec = do(t, env.server, http.MethodPost, "/api/evaluations",
			map[string]any{"model": "m", "system_prompt": "  ", "user_prompt": "p", "score": 0.5})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, `invalid system_prompt: failed "notblank"`, decode[map[string]string](t, rec)["error"])
		assert.Empty(t, env.evals.evals)
	})

	t.Run("trims prompts", func(t *testing.T) {
		env := newTestEnv(t)
		rec := do(t, env.server, http.MethodPost, "/api/evaluations",
			map[string]any{"model": "m", "system_prompt": " barista ", "user_prompt": "\tflat white\n", "score": 0.5})
		require.Equal(t, http.StatusCreated, rec.Code)
		created := decode[models.Evaluation](t, rec)
		assert.Equal(t, "barista", created.SystemPrompt)
		assert.Equal(t, "flat white", created.UserPrompt)
	})

	for _, e := range []map[string]any{
		{"model": "alpha", "system_prompt": "s", "user_prompt": "p", "score": 0.9},
		{"model": "alpha", "system_prompt": "s", "user_prompt": "p", "score": 0.5, "mock_run": true},
		{"model": "beta", "system_prompt": "s", "user_prompt": "p", "score": 0.8},
	} {
		rec := do(t, env.server, http.MethodPost, "/api/evaluations", e)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, env.server, http.MethodGet, "/api/evaluations?model=alpha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]json.RawMessage](t, rec)
	var evals []models.Evaluation
	require.NoError(t, json.Unmarshal(resp["evaluations"], &evals))
	assert.Len(t, evals, 2)

	rec = do(t, env.server, http.MethodGet, "/api/analytics/rollups?threshold=0.8", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rollups := decode[models.Rollups](t, rec)
	assert.Equal(t, 3, rollups.TotalRuns)
	assert.Equal(t, 1, rollups.MockRuns)
	assert.Equal(t, 0.733, rollups.AverageScore)
	assert.Equal(t, 0.667, rollups.SuccessRate)
	require.Len(t, rollups.ModelBreakdown, 2)
	assert.Equal(t, "beta", rollups.ModelBreakdown[0].Model)
}

func TestGetEvaluation(t *testing.T) {
	env := newTestEnv(t)
	rec := do(t, env.server, http.MethodPost, "/api/evaluations",
		map[string]any{"model": "alpha", "system_prompt": "s", "user_prompt": "p", "score": 0.9})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Evaluation](t, rec)

	rec = do(t, env.server, http.MethodGet, "/api/evaluations/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[models.Evaluation](t, rec).ID)

	rec = do(t, env.server, http.MethodGet, "/api/evaluations/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, env.server, http.MethodGet, "/api/evaluations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun(t *testing.T) {
	id := uuid.New()
	msg := "Snapshot unavailable"
	history := &fakeRunHistory{runs: []database.Run{{
		ID: id, Suite: "output", SuiteLabel: "Output evaluation", Threshold: 0.7,
		Status: models.RunStatusSuccess, Message: &msg,
	}}}
	s := NewServer(Config{Runs: history})

	rec := do(t, s, http.MethodGet, "/api/runs/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.RunHistoryEntry](t, rec)
	assert.Equal(t, id.String(), got.ID)
	assert.Equal(t, models.RunStatusSuccess, got.Status)
	require.NotNil(t, got.Message)
	assert.Equal(t, msg, *got.Message)

	rec = do(t, s, http.MethodGet, "/api/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/runs/nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun_BackendFallback(t *testing.T) {
	env := newTestEnv(t)
	env.backend.runs = []models.RunHistoryEntry{{ID: "r1", Suite: "output", Threshold: 0.7}}

	rec := do(t, env.server, http.MethodGet, "/api/runs/r1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "output", decode[models.RunHistoryEntry](t, rec).Suite)

	rec = do(t, env.server, http.MethodGet, "/api/runs/r2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluations_NotConfigured(t *testing.T) {
	s := NewServer(Config{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/evaluations"},
		{http.MethodGet, "/api/evaluations/" + uuid.NewString()},
		{http.MethodPost, "/api/evaluations"},
		{http.MethodGet, "/api/analytics/rollups"},
	} {
		rec := do(t, s, tc.method, tc.path, map[string]any{})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, tc.path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	do(t, env.server, http.MethodPut, "/api/threshold", map[string]float64{"threshold": 0.9})

	rec := do(t, env.server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reliability_threshold 0.9")
}
