package planner

import (
	"sort"

	"github.com/namansh70747/greenops-planner/internal/carbon"
)

// RegionMetric is the raw input for one candidate region.
type RegionMetric struct {
	Region                    string        `json:"region"`
	RegionLabel               string        `json:"regionLabel"`
	CarbonIntensity           float64       `json:"carbonIntensityGCo2PerKwh"`
	Source                    carbon.Source `json:"source"`
	BaseCostUSDPerReplicaHour float64       `json:"baseCostUsdPerReplicaHour"`
	LatencyScore              float64       `json:"latencyScore"`
}

// Scores are per-axis scores in [0,1], higher is better.
type Scores struct {
	CO2     float64 `json:"co2"`
	Latency float64 `json:"latency"`
	Cost    float64 `json:"cost"`
	Overall float64 `json:"overall"`
}

// ScoredRegion pairs a region's raw metric with its scores.
type ScoredRegion struct {
	Metric RegionMetric `json:"metric"`
	Scores Scores       `json:"scores"`
}

// Normalize maps values onto [0,1] by min-max scaling. When every value is equal
// there is no signal to rank on and every entry maps to 1.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	span := max - min
	for i, v := range values {
		out[i] = (v - min) / span
	}
	return out
}

// invertedScores turns raw "lower is better" values into scores. A degenerate axis
// scores 1 for everyone.
func invertedScores(values []float64) []float64 {
	norm := Normalize(values)
	if allEqual(values) {
		return norm
	}
	for i, n := range norm {
		norm[i] = 1 - n
	}
	return norm
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Engine scores and ranks candidate regions. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	Factors ToleranceFactors
}

func NewEngine(factors ToleranceFactors) Engine {
	return Engine{Factors: factors}
}

// Rank scores every metric under the strategy and tolerance and returns them sorted
// by overall score, best first. Ties keep input order. Empty input yields an empty
// result.
func (e Engine) Rank(metrics []RegionMetric, strategy Strategy, tolerance LatencyTolerance) []ScoredRegion {
	return ScoreWith(metrics, WeightsFor(strategy, tolerance, e.Factors))
}

// ScoreWith scores metrics with explicit weights.
func ScoreWith(metrics []RegionMetric, w Weights) []ScoredRegion {
	if len(metrics) == 0 {
		return []ScoredRegion{}
	}

	co2Raw := make([]float64, len(metrics))
	costRaw := make([]float64, len(metrics))
	for i, m := range metrics {
		co2Raw[i] = m.CarbonIntensity
		costRaw[i] = m.BaseCostUSDPerReplicaHour
	}
	co2Scores := invertedScores(co2Raw)
	costScores := invertedScores(costRaw)

	scored := make([]ScoredRegion, len(metrics))
	for i, m := range metrics {
		latency := clamp01(m.LatencyScore)
		s := Scores{
			CO2:     co2Scores[i],
			Latency: latency,
			Cost:    costScores[i],
		}
		s.Overall = w.CO2*s.CO2 + w.Latency*s.Latency + w.Cost*s.Cost
		scored[i] = ScoredRegion{Metric: m, Scores: s}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Scores.Overall > scored[j].Scores.Overall
	})
	return scored
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
