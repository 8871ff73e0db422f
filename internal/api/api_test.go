package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/namansh70747/greenops-planner/internal/analytics"
	"github.com/namansh70747/greenops-planner/internal/carbon"
	"github.com/namansh70747/greenops-planner/internal/catalog"
	"github.com/namansh70747/greenops-planner/internal/deploy"
	"github.com/namansh70747/greenops-planner/internal/estimate"
	"github.com/namansh70747/greenops-planner/internal/kube"
	"github.com/namansh70747/greenops-planner/internal/planner"
	"github.com/namansh70747/greenops-planner/internal/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *storage.MemoryStore) {
	t.Helper()
	return newTestRouterWith(t, nil)
}

func newTestRouterWith(t *testing.T, mutate func(d *Deps)) (*gin.Engine, *storage.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := catalog.Default()
	store := storage.NewMemoryStore()
	resolver := carbon.NewResolver(nil, carbon.NewFallback(nil), time.Second, nil)
	p := planner.New(cat, resolver, planner.NewEngine(planner.DefaultToleranceFactors()),
		planner.AssemblyRule{MinReplicas: 1}, kube.NewRenderer("default", "nginx:1.25"), nil)
	d := deploy.NewService(cat, estimate.New(0.1, 85), store, nil, kube.NewApplierWithClient(nil, "default", false, nil), nil)

	deps := Deps{
		AppName:    "greenops-planner",
		Version:    "test",
		Planner:    p,
		Deployer:   d,
		Store:      store,
		Aggregator: analytics.NewAggregator(cat.MaxBaseCost(), 85),
		Catalog:    cat,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewRouter(deps), store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type pooledStore struct {
	*storage.MemoryStore
}

func (pooledStore) PoolStats() storage.PoolStats {
	return storage.PoolStats{TotalConns: 3, IdleConns: 2, AcquiredConns: 1, MaxConns: 10}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestReadyReportsCarbonSource(t *testing.T) {
	cases := []struct {
		name       string
		check      func(context.Context) error
		wantStatus string
		wantCarbon string
	}{
		{"static only", nil, "ready", "static"},
		{"live healthy", func(context.Context) error { return nil }, "ready", "live"},
		{"live down", func(context.Context) error { return errors.New("prometheus unreachable") }, "degraded", "fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newTestRouterWith(t, func(d *Deps) { d.CarbonHealth = tc.check })

			rec := do(t, router, http.MethodGet, "/ready", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("carbon source must not fail readiness, got %d", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["status"] != tc.wantStatus || body["carbon"] != tc.wantCarbon {
				t.Fatalf("expected %s/%s, got %v/%v", tc.wantStatus, tc.wantCarbon, body["status"], body["carbon"])
			}
		})
	}
}

func TestHealthReportsPoolStats(t *testing.T) {
	router, _ := newTestRouterWith(t, func(d *Deps) {
		d.Store = pooledStore{storage.NewMemoryStore()}
	})

	body := decodeBody(t, do(t, router, http.MethodGet, "/health", nil))
	pool, ok := body["pool"].(map[string]any)
	if !ok {
		t.Fatalf("expected pool stats in health body, got %v", body)
	}
	if pool["maxConns"] != float64(10) || pool["acquiredConns"] != float64(1) {
		t.Fatalf("unexpected pool stats %v", pool)
	}

	plain, _ := newTestRouter(t)
	if _, ok := decodeBody(t, do(t, plain, http.MethodGet, "/health", nil))["pool"]; ok {
		t.Fatalf("in-memory store must not report pool stats")
	}
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/ready", "/api/health"} {
		if rec := do(t, router, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := do(t, router, http.MethodGet, "/api/health", nil)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["electricityMapsEnabled"] != false {
		t.Fatalf("expected live carbon flag off, got %v", body["electricityMapsEnabled"])
	}
}

func TestPlanEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/plan", planner.Request{
		Components:             []planner.Component{{Name: "api", Type: "backend"}, {Name: "db", Type: "database"}},
		UserRegion:             "eu-west",
		LatencyTolerance:       "strict",
		OptimizationPreference: "max-green",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp planner.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Plans) != 3 || resp.Plans[0].ID != "max-green" {
		t.Fatalf("unexpected plans %+v", resp.Plans)
	}
	for _, p := range resp.Plans {
		if p.KubernetesYAML == "" {
			t.Fatalf("plan %s has no manifest", p.ID)
		}
		if p.CarbonIntensity.Source != carbon.SourceFallback {
			t.Fatalf("expected fallback data without a provider, got %s", p.CarbonIntensity.Source)
		}
	}
}

func TestPlanEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/plan", planner.Request{OptimizationPreference: "balanced"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "VALIDATION_ERROR" || body["message"] == "" {
		t.Fatalf("unexpected error body %v", body)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	bad := httptest.NewRecorder()
	router.ServeHTTP(bad, req)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", bad.Code)
	}
}

func TestRankingsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/plan/rankings", planner.Request{
		Components:             []planner.Component{{Name: "api"}},
		OptimizationPreference: "budget",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp planner.Rankings
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Strategy != "budget" || len(resp.Plans) != len(catalog.Default().Regions()) {
		t.Fatalf("unexpected rankings %+v", resp)
	}
	if resp.Plans[0].Target.Region != "MUM1" {
		t.Fatalf("expected cheapest region first under budget, got %s", resp.Plans[0].Target.Region)
	}
}

func TestDeployThenAnalytics(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/deploy", deploy.Request{
		PlanID:          "balanced",
		Region:          "LON1",
		RegionLabel:     "London",
		CarbonIntensity: 450,
		Replicas:        3,
		Scores:          &planner.Scores{CO2: 0.6, Latency: 0.9, Cost: 0.5, Overall: 0.66},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var deployed deploy.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &deployed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if deployed.Status != "dry-run" || deployed.Analytics.ID == "" {
		t.Fatalf("unexpected deploy response %+v", deployed)
	}

	rec = do(t, router, http.MethodGet, "/api/analytics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap analytics.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Summary.TotalDeployments != 1 || len(snap.ByPlan) != 1 || snap.ByPlan[0].PlanID != "balanced" {
		t.Fatalf("unexpected snapshot %+v", snap.Summary)
	}
	if snap.Summary.EstimatedHourlySavingsUSD <= 0 {
		t.Fatalf("expected positive savings for LON1 against NYC1 baseline, got %v", snap.Summary.EstimatedHourlySavingsUSD)
	}
	if snap.Currency.USDToINR != 85 {
		t.Fatalf("expected currency in snapshot")
	}

	rec = do(t, router, http.MethodGet, "/api/deployments/"+deployed.Analytics.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected stored deployment, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/api/deployments/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeployValidation(t *testing.T) {
	router, store := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/deploy", deploy.Request{PlanID: "balanced", Region: "ATLANTIS", Replicas: 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if events, _ := store.List(context.Background()); len(events) != 0 {
		t.Fatalf("rejected deploy must not be recorded")
	}
}

func TestAnalyticsEmpty(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/analytics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap analytics.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Summary.TotalDeployments != 0 || len(snap.Deployments) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestCORSHeaders(t *testing.T) {
	router, _ := newTestRouter(t)
	h := WithCORS(router, []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected CORS header, got %v", rec.Header())
	}
}
