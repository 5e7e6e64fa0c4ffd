package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"spacetrack/api/internal/config"
	"spacetrack/api/internal/metrics"
	"spacetrack/api/internal/store"
)

// fakeStore wraps the memory store and lets tests replace individual calls.
type fakeStore struct {
	*store.MemoryStore
	pingFn           func(context.Context) error
	listMissionsFn   func(context.Context, store.MissionFilter) ([]store.Mission, error)
	listActivitiesFn func(context.Context, store.ActivityFilter) ([]store.Activity, error)
	createActivityFn func(context.Context, store.ActivityInput) (store.Activity, error)

	listMissionsCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: store.NewMemoryStore()}
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return f.MemoryStore.Ping(ctx)
}

func (f *fakeStore) ListMissions(ctx context.Context, filter store.MissionFilter) ([]store.Mission, error) {
	f.listMissionsCalls++
	if f.listMissionsFn != nil {
		return f.listMissionsFn(ctx, filter)
	}
	return f.MemoryStore.ListMissions(ctx, filter)
}

func (f *fakeStore) ListActivities(ctx context.Context, filter store.ActivityFilter) ([]store.Activity, error) {
	if f.listActivitiesFn != nil {
		return f.listActivitiesFn(ctx, filter)
	}
	return f.MemoryStore.ListActivities(ctx, filter)
}

func (f *fakeStore) CreateActivity(ctx context.Context, in store.ActivityInput) (store.Activity, error) {
	if f.createActivityFn != nil {
		return f.createActivityFn(ctx, in)
	}
	return f.MemoryStore.CreateActivity(ctx, in)
}

type testEnv struct {
	store    *fakeStore
	service  *Service
	server   http.Handler
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T, cfg config.Config, deps Dependencies) *testEnv {
	t.Helper()
	fs := newFakeStore()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	deps.Metrics = m
	svc := New(cfg, fs, deps)
	server := NewHTTPServer(svc, ServerOptions{
		CORSOrigin: "*",
		Metrics:    m,
		Gatherer:   registry,
	})
	return &testEnv{store: fs, service: svc, server: server.Handler(), metrics: m, registry: registry}
}

func newSeededEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t, config.Config{Seed: true}, Dependencies{})
	if err := env.service.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return env
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Mission string          `json:"mission"`
	Count   *int            `json:"count"`
	Total   *int            `json:"total"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details map[string]any  `json:"details"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	switch value := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(value))
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)

	var envelope testEnvelope
	if rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &envelope)
	}
	return rr, envelope
}

func decodeData[T any](t *testing.T, envelope testEnvelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(envelope.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", string(envelope.Data), err)
	}
	return out
}
