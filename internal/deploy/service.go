// Package deploy records user deploy actions: it prices the chosen plan, appends
// the event to the log, announces it and applies the manifest when enabled.
package deploy

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/apperrors"
	"github.com/namansh70747/greenops-planner/internal/catalog"
	"github.com/namansh70747/greenops-planner/internal/estimate"
	"github.com/namansh70747/greenops-planner/internal/kube"
	"github.com/namansh70747/greenops-planner/internal/metrics"
	"github.com/namansh70747/greenops-planner/internal/planner"
	"github.com/namansh70747/greenops-planner/internal/publish"
	"github.com/namansh70747/greenops-planner/internal/storage"
)

// Request is a deploy submission for a previously returned plan.
type Request struct {
	PlanID          string          `json:"planId"`
	Region          string          `json:"region"`
	RegionLabel     string          `json:"regionLabel"`
	CarbonIntensity float64         `json:"carbonIntensity"`
	Replicas        int             `json:"replicas"`
	Scores          *planner.Scores `json:"scores"`
	KubernetesYAML  string          `json:"kubernetesYaml"`
}

// Kubectl carries the apply output.
type Kubectl struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Analytics is the estimate echoed back to the client.
type Analytics struct {
	ID                       string    `json:"id"`
	Timestamp                time.Time `json:"timestamp"`
	EstimatedHourlyEnergyKwh float64   `json:"estimatedHourlyEnergyKwh"`
	EstimatedHourlyCO2Kg     float64   `json:"estimatedHourlyCO2Kg"`
	EstimatedHourlyCostUSD   float64   `json:"estimatedHourlyCostUsd"`
	EstimatedHourlyCostINR   float64   `json:"estimatedHourlyCostInr"`
}

type Response struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Command   string    `json:"command"`
	Kubectl   *Kubectl  `json:"kubectl,omitempty"`
	Analytics Analytics `json:"analytics"`
}

// ManifestApplier applies a rendered manifest to a cluster.
type ManifestApplier interface {
	Apply(ctx context.Context, manifest string) kube.Result
}

type Service struct {
	catalog   *catalog.Catalog
	estimator estimate.Estimator
	store     storage.EventStore
	publisher publish.Publisher
	applier   ManifestApplier
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(cat *catalog.Catalog, est estimate.Estimator, store storage.EventStore, pub publish.Publisher, applier ManifestApplier, logger *zap.Logger) *Service {
	if pub == nil {
		pub = publish.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:   cat,
		estimator: est,
		store:     store,
		publisher: pub,
		applier:   applier,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

func (s *Service) validate(req Request) (catalog.Region, error) {
	if _, err := planner.ParseStrategy(req.PlanID); err != nil || req.PlanID == "" {
		return catalog.Region{}, apperrors.Validation("unknown plan id %q", req.PlanID)
	}
	region, ok := s.catalog.Lookup(req.Region)
	if !ok {
		return catalog.Region{}, apperrors.Validation("unknown region %q", req.Region)
	}
	if req.Replicas < 1 {
		return catalog.Region{}, apperrors.Validation("replicas must be at least 1")
	}
	if req.CarbonIntensity < 0 || math.IsNaN(req.CarbonIntensity) || math.IsInf(req.CarbonIntensity, 0) {
		return catalog.Region{}, apperrors.Validation("carbonIntensity must be a non-negative number")
	}
	return region, nil
}

// Submit records the deployment. The event is durable before any cluster side
// effect; publishing is best effort.
func (s *Service) Submit(ctx context.Context, req Request) (*Response, error) {
	region, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	est := s.estimator.Hourly(req.CarbonIntensity, req.Replicas, region.BaseCostUSDPerReplicaHour)
	label := req.RegionLabel
	if label == "" {
		label = region.Label
	}

	event := &storage.DeploymentEvent{
		ID:                       uuid.NewString(),
		Timestamp:                s.now(),
		PlanID:                   req.PlanID,
		Region:                   region.ID,
		RegionLabel:              label,
		CarbonIntensity:          storage.Float(req.CarbonIntensity),
		Replicas:                 req.Replicas,
		Scores:                   req.Scores,
		EstimatedHourlyEnergyKwh: storage.Float(est.EnergyKwh),
		EstimatedHourlyCO2Kg:     storage.Float(est.CO2Kg),
		EstimatedHourlyCostUSD:   storage.Float(est.CostUSD),
		EstimatedHourlyCostINR:   storage.Float(est.CostINR),
	}

	if err := s.store.Append(ctx, event); err != nil {
		metrics.ObserveDeployment(req.PlanID, kube.StatusError)
		return nil, err
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish deployment event",
			zap.String("id", event.ID),
			zap.Error(err))
	}

	result := s.applier.Apply(ctx, req.KubernetesYAML)
	metrics.ObserveDeployment(req.PlanID, result.Status)

	s.logger.Info("Deployment recorded",
		zap.String("id", event.ID),
		zap.String("plan", event.PlanID),
		zap.String("region", event.Region),
		zap.Int("replicas", event.Replicas),
		zap.String("status", result.Status),
		zap.Float64("co2_kg_per_hour", est.CO2Kg),
	)

	resp := &Response{
		Status:  result.Status,
		Message: result.Message,
		Command: result.Command,
		Analytics: Analytics{
			ID:                       event.ID,
			Timestamp:                event.Timestamp,
			EstimatedHourlyEnergyKwh: est.EnergyKwh,
			EstimatedHourlyCO2Kg:     est.CO2Kg,
			EstimatedHourlyCostUSD:   est.CostUSD,
			EstimatedHourlyCostINR:   est.CostINR,
		},
	}
	if result.Stdout != "" || result.Stderr != "" {
		resp.Kubectl = &Kubectl{Stdout: result.Stdout, Stderr: result.Stderr}
	}
	return resp, nil
}
