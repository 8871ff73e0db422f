package deploy

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/namansh70747/greenops-planner/internal/apperrors"
	"github.com/namansh70747/greenops-planner/internal/catalog"
	"github.com/namansh70747/greenops-planner/internal/estimate"
	"github.com/namansh70747/greenops-planner/internal/kube"
	"github.com/namansh70747/greenops-planner/internal/metrics"
	"github.com/namansh70747/greenops-planner/internal/planner"
	"github.com/namansh70747/greenops-planner/internal/storage"
)

type failingStore struct{ storage.EventStore }

func (failingStore) Append(context.Context, *storage.DeploymentEvent) error {
	return apperrors.Storage("failed to save deployment event", errors.New("disk full"))
}

type countingPublisher struct {
	published int
	err       error
}

func (p *countingPublisher) Publish(context.Context, *storage.DeploymentEvent) error {
	p.published++
	return p.err
}

func (p *countingPublisher) Close() error { return nil }

func newService(store storage.EventStore, pub *countingPublisher, applier ManifestApplier) *Service {
	s := NewService(catalog.Default(), estimate.New(0.1, 85), store, pub, applier, nil)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestSubmitDryRunRecordsEvent(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := &countingPublisher{}
	s := newService(store, pub, kube.NewApplierWithClient(nil, "default", false, nil))

	resp, err := s.Submit(context.Background(), Request{
		PlanID:          "budget",
		Region:          "LON1",
		CarbonIntensity: 450,
		Replicas:        3,
		Scores:          &planner.Scores{CO2: 0.5, Latency: 0.9, Cost: 0.8, Overall: 0.7},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Status != kube.StatusDryRun || resp.Kubectl != nil {
		t.Fatalf("expected dry-run without kubectl output, got %+v", resp)
	}
	if math.Abs(resp.Analytics.EstimatedHourlyCO2Kg-0.135) > 1e-9 {
		t.Fatalf("expected 0.135 kg/h, got %v", resp.Analytics.EstimatedHourlyCO2Kg)
	}
	if math.Abs(resp.Analytics.EstimatedHourlyCostUSD-0.06) > 1e-9 || math.Abs(resp.Analytics.EstimatedHourlyCostINR-5.1) > 1e-9 {
		t.Fatalf("unexpected cost %+v", resp.Analytics)
	}

	events, _ := store.List(context.Background())
	if len(events) != 1 {
		t.Fatalf("expected one stored event, got %d", len(events))
	}
	e := events[0]
	if e.ID != resp.Analytics.ID || e.RegionLabel != "London" || !e.Complete() {
		t.Fatalf("unexpected stored event %+v", e)
	}
	if pub.published != 1 {
		t.Fatalf("expected event to be published once, got %d", pub.published)
	}
}

func TestSubmitAppliesManifest(t *testing.T) {
	renderer := kube.NewRenderer("default", "nginx:1.25")
	manifest, err := renderer.Render(planner.Plan{ID: "balanced", Target: planner.Target{Region: "FRA1", Replicas: 1}}, []planner.Component{{Name: "api"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	s := newService(storage.NewMemoryStore(), &countingPublisher{}, kube.NewApplierWithClient(fake.NewSimpleClientset(), "default", true, nil))
	resp, err := s.Submit(context.Background(), Request{PlanID: "balanced", Region: "FRA1", CarbonIntensity: 380, Replicas: 1, KubernetesYAML: manifest})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Status != kube.StatusOK || resp.Kubectl == nil || resp.Kubectl.Stdout == "" {
		t.Fatalf("expected applied deployment, got %+v", resp)
	}
}

func TestSubmitPublishFailureIsNotFatal(t *testing.T) {
	s := newService(storage.NewMemoryStore(), &countingPublisher{err: errors.New("broker down")}, kube.NewApplierWithClient(nil, "", false, nil))
	if _, err := s.Submit(context.Background(), Request{PlanID: "max-green", Region: "MUM1", CarbonIntensity: 600, Replicas: 1}); err != nil {
		t.Fatalf("publish failure must not fail the deploy: %v", err)
	}
}

func TestSubmitStoreFailureSurfaces(t *testing.T) {
	pub := &countingPublisher{}
	s := newService(failingStore{}, pub, kube.NewApplierWithClient(nil, "", false, nil))
	_, err := s.Submit(context.Background(), Request{PlanID: "budget", Region: "LON1", CarbonIntensity: 100, Replicas: 1})
	if !apperrors.IsType(err, apperrors.TypeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if pub.published != 0 {
		t.Fatalf("nothing must be published when the append fails")
	}
}

func TestSubmitValidation(t *testing.T) {
	s := newService(storage.NewMemoryStore(), &countingPublisher{}, kube.NewApplierWithClient(nil, "", false, nil))
	cases := map[string]Request{
		"missing plan":   {Region: "LON1", Replicas: 1},
		"unknown plan":   {PlanID: "cheapest", Region: "LON1", Replicas: 1},
		"unknown region": {PlanID: "budget", Region: "MARS1", Replicas: 1},
		"zero replicas":  {PlanID: "budget", Region: "LON1"},
		"negative ci":    {PlanID: "budget", Region: "LON1", Replicas: 1, CarbonIntensity: -1},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Submit(context.Background(), req); !apperrors.IsType(err, apperrors.TypeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func deploymentCount(t *testing.T, reg *prometheus.Registry, plan, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "greenops_deployments_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["plan"] == plan && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestSubmitCountsApplyStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	req := Request{PlanID: "max-green", Region: "FRA1", CarbonIntensity: 300, Replicas: 1}

	dryRuns := deploymentCount(t, reg, "max-green", kube.StatusDryRun)
	s := newService(storage.NewMemoryStore(), &countingPublisher{}, kube.NewApplierWithClient(nil, "default", false, nil))
	if _, err := s.Submit(context.Background(), req); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := deploymentCount(t, reg, "max-green", kube.StatusDryRun) - dryRuns; got != 1 {
		t.Fatalf("expected one dry-run counted, got %v", got)
	}

	failures := deploymentCount(t, reg, "max-green", kube.StatusError)
	s = newService(failingStore{}, &countingPublisher{}, kube.NewApplierWithClient(nil, "default", false, nil))
	if _, err := s.Submit(context.Background(), req); err == nil {
		t.Fatalf("expected store failure")
	}
	if got := deploymentCount(t, reg, "max-green", kube.StatusError) - failures; got != 1 {
		t.Fatalf("expected store failure counted as %s, got %v", kube.StatusError, got)
	}
}
