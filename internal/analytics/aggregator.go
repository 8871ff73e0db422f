// Package analytics projects the deployment event log into summary statistics,
// per-plan and per-region rollups and savings against a worst-case baseline.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/namansh70747/greenops-planner/internal/storage"
)

// Summary holds log-wide totals.
type Summary struct {
	TotalDeployments               int     `json:"totalDeployments"`
	TotalEstimatedHourlyCO2Kg      float64 `json:"totalEstimatedHourlyCO2Kg"`
	AverageCarbonIntensity         float64 `json:"averageCarbonIntensity_gCo2PerKwh"`
	TotalEstimatedHourlyCostUSD    float64 `json:"totalEstimatedHourlyCostUsd"`
	TotalEstimatedHourlyCostINR    float64 `json:"totalEstimatedHourlyCostInr"`
	BaselineEstimatedHourlyCostUSD float64 `json:"baselineEstimatedHourlyCostUsd"`
	BaselineEstimatedHourlyCostINR float64 `json:"baselineEstimatedHourlyCostInr"`
	EstimatedHourlySavingsUSD      float64 `json:"estimatedHourlySavingsUsd"`
	EstimatedHourlySavingsINR      float64 `json:"estimatedHourlySavingsInr"`
}

// Group is a rollup over events sharing a plan id or region.
type Group struct {
	Deployments  int     `json:"deployments"`
	TotalCO2     float64 `json:"totalCO2"`
	TotalCI      float64 `json:"totalCI"`
	AvgCI        float64 `json:"avgCI"`
	TotalCostUSD float64 `json:"totalCostUsd"`
	TotalCostINR float64 `json:"totalCostInr"`
	AvgCostUSD   float64 `json:"avgCostUsd"`
}

type PlanGroup struct {
	PlanID string `json:"planId"`
	Group
}

type RegionGroup struct {
	Region      string `json:"region"`
	RegionLabel string `json:"regionLabel"`
	Group
}

type Currency struct {
	USDToINR float64 `json:"usdToInr"`
}

// Snapshot is the full analytics projection.
type Snapshot struct {
	Summary     Summary                    `json:"summary"`
	ByPlan      []PlanGroup                `json:"byPlan"`
	ByRegion    []RegionGroup              `json:"byRegion"`
	Deployments []*storage.DeploymentEvent `json:"deployments"`
	Currency    Currency                   `json:"currency"`
}

// Aggregator computes snapshots. MaxBaseCostUSD is the highest per-replica cost in
// the catalog; FXRate converts USD to INR.
type Aggregator struct {
	MaxBaseCostUSD float64
	FXRate         float64
}

func NewAggregator(maxBaseCostUSD, fxRate float64) Aggregator {
	return Aggregator{MaxBaseCostUSD: maxBaseCostUSD, FXRate: fxRate}
}

// accumulator sums complete events; count includes incomplete ones.
type accumulator struct {
	count    int
	complete int
	co2      decimal.Decimal
	ci       decimal.Decimal
	costUSD  decimal.Decimal
	costINR  decimal.Decimal
}

func (a *accumulator) add(e *storage.DeploymentEvent) {
	a.count++
	if !e.Complete() {
		return
	}
	a.complete++
	a.co2 = a.co2.Add(decimal.NewFromFloat(*e.EstimatedHourlyCO2Kg))
	a.ci = a.ci.Add(decimal.NewFromFloat(*e.CarbonIntensity))
	a.costUSD = a.costUSD.Add(decimal.NewFromFloat(*e.EstimatedHourlyCostUSD))
	a.costINR = a.costINR.Add(decimal.NewFromFloat(*e.EstimatedHourlyCostINR))
}

func (a *accumulator) mean(sum decimal.Decimal) float64 {
	if a.complete == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(a.complete))).InexactFloat64()
}

func (a *accumulator) group() Group {
	return Group{
		Deployments:  a.count,
		TotalCO2:     a.co2.InexactFloat64(),
		TotalCI:      a.ci.InexactFloat64(),
		AvgCI:        a.mean(a.ci),
		TotalCostUSD: a.costUSD.InexactFloat64(),
		TotalCostINR: a.costINR.InexactFloat64(),
		AvgCostUSD:   a.mean(a.costUSD),
	}
}

// Aggregate projects events into a Snapshot. It does not modify events and returns
// the same result for any permutation of the same input. Incomplete events count as
// deployments but are left out of every sum, mean and the baseline.
func (a Aggregator) Aggregate(events []*storage.DeploymentEvent) Snapshot {
	sorted := make([]*storage.DeploymentEvent, 0, len(events))
	for _, e := range events {
		if e != nil {
			sorted = append(sorted, e)
		}
	}
	storage.SortEvents(sorted)

	maxCost := decimal.NewFromFloat(a.MaxBaseCostUSD)
	fx := decimal.NewFromFloat(a.FXRate)

	var (
		total     accumulator
		baseline  decimal.Decimal
		planOrder []string
		regionOrd []string
	)
	plans := make(map[string]*accumulator)
	regions := make(map[string]*accumulator)
	regionName := make(map[string]string)

	for _, e := range sorted {
		total.add(e)
		if e.Complete() {
			baseline = baseline.Add(maxCost.Mul(decimal.NewFromInt(int64(e.Replicas))))
		}

		if _, ok := plans[e.PlanID]; !ok {
			plans[e.PlanID] = &accumulator{}
			planOrder = append(planOrder, e.PlanID)
		}
		plans[e.PlanID].add(e)

		if _, ok := regions[e.Region]; !ok {
			regions[e.Region] = &accumulator{}
			regionOrd = append(regionOrd, e.Region)
			regionName[e.Region] = e.RegionLabel
		}
		regions[e.Region].add(e)
	}

	savings := baseline.Sub(total.costUSD)

	snap := Snapshot{
		Summary: Summary{
			TotalDeployments:               total.count,
			TotalEstimatedHourlyCO2Kg:      total.co2.InexactFloat64(),
			AverageCarbonIntensity:         total.mean(total.ci),
			TotalEstimatedHourlyCostUSD:    total.costUSD.InexactFloat64(),
			TotalEstimatedHourlyCostINR:    total.costINR.InexactFloat64(),
			BaselineEstimatedHourlyCostUSD: baseline.InexactFloat64(),
			BaselineEstimatedHourlyCostINR: baseline.Mul(fx).InexactFloat64(),
			EstimatedHourlySavingsUSD:      savings.InexactFloat64(),
			EstimatedHourlySavingsINR:      savings.Mul(fx).InexactFloat64(),
		},
		ByPlan:      make([]PlanGroup, 0, len(planOrder)),
		ByRegion:    make([]RegionGroup, 0, len(regionOrd)),
		Deployments: make([]*storage.DeploymentEvent, len(sorted)),
		Currency:    Currency{USDToINR: a.FXRate},
	}

	for _, id := range planOrder {
		snap.ByPlan = append(snap.ByPlan, PlanGroup{PlanID: id, Group: plans[id].group()})
	}
	for _, id := range regionOrd {
		snap.ByRegion = append(snap.ByRegion, RegionGroup{Region: id, RegionLabel: regionName[id], Group: regions[id].group()})
	}
	for i, e := range sorted {
		snap.Deployments[len(sorted)-1-i] = e
	}
	return snap
}
