package planner

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/apperrors"
	"github.com/namansh70747/greenops-planner/internal/carbon"
	"github.com/namansh70747/greenops-planner/internal/catalog"
)

// Request is a plan request as submitted by a client.
type Request struct {
	Components             []Component `json:"components"`
	UserRegion             string      `json:"userRegion"`
	LatencyTolerance       string      `json:"latencyTolerance"`
	OptimizationPreference string      `json:"optimizationPreference"`
}

// ElectricityMapsStatus tells the client whether live carbon data was requested.
type ElectricityMapsStatus struct {
	Enabled bool `json:"enabled"`
}

// Response carries one top plan per strategy, the preferred strategy first.
type Response struct {
	InputEcho       Request               `json:"inputEcho"`
	ElectricityMaps ElectricityMapsStatus `json:"electricityMaps"`
	Plans           []Plan                `json:"plans"`
}

// Rankings is one plan per catalog region, best first, under the requested strategy.
type Rankings struct {
	Strategy string  `json:"strategy"`
	Weights  Weights `json:"weights"`
	Plans    []Plan  `json:"plans"`
}

// CarbonResolver resolves carbon intensity for a list of grid zones.
type CarbonResolver interface {
	ResolveAll(ctx context.Context, zones []string) []carbon.Reading
	LiveEnabled() bool
}

// ManifestRenderer renders the Kubernetes manifest for a plan.
type ManifestRenderer interface {
	Render(plan Plan, components []Component) (string, error)
}

// Planner builds plans from the catalog, live carbon data and the scoring engine.
type Planner struct {
	catalog  *catalog.Catalog
	resolver CarbonResolver
	engine   Engine
	rule     AssemblyRule
	renderer ManifestRenderer
	logger   *zap.Logger
}

// New creates a Planner. renderer may be nil, in which case plans carry no manifest.
func New(cat *catalog.Catalog, resolver CarbonResolver, engine Engine, rule AssemblyRule, renderer ManifestRenderer, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		catalog:  cat,
		resolver: resolver,
		engine:   engine,
		rule:     rule,
		renderer: renderer,
		logger:   logger,
	}
}

type parsedRequest struct {
	strategy   Strategy
	tolerance  LatencyTolerance
	userRegion string
}

// Validate rejects requests the engine cannot plan for.
func (r Request) Validate() error {
	_, err := r.parse()
	return err
}

func (r Request) parse() (parsedRequest, error) {
	if len(r.Components) == 0 {
		return parsedRequest{}, apperrors.Validation("at least one component is required")
	}
	for i, c := range r.Components {
		if strings.TrimSpace(c.Name) == "" {
			return parsedRequest{}, apperrors.Validation("component %d has no name", i)
		}
	}
	strategy, err := ParseStrategy(r.OptimizationPreference)
	if err != nil {
		return parsedRequest{}, err
	}
	tolerance, err := ParseTolerance(r.LatencyTolerance)
	if err != nil {
		return parsedRequest{}, err
	}
	userRegion := r.UserRegion
	if userRegion == "" {
		userRegion = catalog.UserRegionGlobal
	}
	return parsedRequest{strategy: strategy, tolerance: tolerance, userRegion: userRegion}, nil
}

// Metrics resolves the raw per-region inputs for a user region, in catalog order.
func (p *Planner) Metrics(ctx context.Context, userRegion string) []RegionMetric {
	regions := p.catalog.Regions()
	zones := make([]string, len(regions))
	for i, r := range regions {
		zones[i] = r.ZoneID
	}
	readings := p.resolver.ResolveAll(ctx, zones)

	metrics := make([]RegionMetric, len(regions))
	for i, r := range regions {
		metrics[i] = RegionMetric{
			Region:                    r.ID,
			RegionLabel:               r.Label,
			CarbonIntensity:           readings[i].ValueGCo2PerKwh,
			Source:                    readings[i].Source,
			BaseCostUSDPerReplicaHour: r.BaseCostUSDPerReplicaHour,
			LatencyScore:              p.catalog.LatencyScore(r.ID, userRegion),
		}
	}
	return metrics
}

// Plan returns the top-ranked plan for every strategy, the requested one first.
func (p *Planner) Plan(ctx context.Context, req Request) (*Response, error) {
	parsed, err := req.parse()
	if err != nil {
		return nil, err
	}

	metrics := p.Metrics(ctx, parsed.userRegion)

	order := make([]Strategy, 0, len(Strategies()))
	order = append(order, parsed.strategy)
	for _, s := range Strategies() {
		if s != parsed.strategy {
			order = append(order, s)
		}
	}

	plans := make([]Plan, 0, len(order))
	for _, s := range order {
		ranked := p.engine.Rank(metrics, s, parsed.tolerance)
		if len(ranked) == 0 {
			continue
		}
		plan := Assemble(ranked[0], s, req.Components, p.rule)
		if p.renderer != nil {
			manifest, err := p.renderer.Render(plan, req.Components)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.TypeInternal, "failed to render manifest", err)
			}
			plan.KubernetesYAML = manifest
		}
		plans = append(plans, plan)
	}

	p.logger.Debug("Plans generated",
		zap.String("preference", parsed.strategy.ID()),
		zap.String("tolerance", parsed.tolerance.String()),
		zap.String("user_region", parsed.userRegion),
		zap.Int("plans", len(plans)),
	)

	return &Response{
		InputEcho:       req,
		ElectricityMaps: ElectricityMapsStatus{Enabled: p.resolver.LiveEnabled()},
		Plans:           plans,
	}, nil
}

// Rank assembles a plan for every catalog region under the requested strategy,
// best first. Ranked plans carry no manifest.
func (p *Planner) Rank(ctx context.Context, req Request) (*Rankings, error) {
	parsed, err := req.parse()
	if err != nil {
		return nil, err
	}
	metrics := p.Metrics(ctx, parsed.userRegion)
	ranked := p.engine.Rank(metrics, parsed.strategy, parsed.tolerance)

	plans := make([]Plan, len(ranked))
	for i, scored := range ranked {
		plans[i] = Assemble(scored, parsed.strategy, req.Components, p.rule)
	}
	return &Rankings{
		Strategy: parsed.strategy.ID(),
		Weights:  WeightsFor(parsed.strategy, parsed.tolerance, p.engine.Factors),
		Plans:    plans,
	}, nil
}
