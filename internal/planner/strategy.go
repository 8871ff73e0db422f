package planner

import (
	"fmt"

	"github.com/namansh70747/greenops-planner/internal/apperrors"
)

// Strategy is a named weighting preset.
type Strategy int

const (
	Balanced Strategy = iota
	MaxGreen
	Budget
)

// Weights is the (CO2, latency, cost) triple applied to axis scores.
type Weights struct {
	CO2     float64 `json:"co2"`
	Latency float64 `json:"latency"`
	Cost    float64 `json:"cost"`
}

// Sum returns CO2 + Latency + Cost.
func (w Weights) Sum() float64 {
	return w.CO2 + w.Latency + w.Cost
}

type strategyInfo struct {
	id          string
	label       string
	description string
	weights     Weights
}

var strategyTable = [...]strategyInfo{
	Balanced: {
		id:          "balanced",
		label:       "Balanced",
		description: "Optimal trade-off between carbon, latency and cost",
		weights:     Weights{CO2: 0.34, Latency: 0.33, Cost: 0.33},
	},
	MaxGreen: {
		id:          "max-green",
		label:       "Max Green",
		description: "Prioritize carbon efficiency",
		weights:     Weights{CO2: 0.60, Latency: 0.25, Cost: 0.15},
	},
	Budget: {
		id:          "budget",
		label:       "Budget Friendly",
		description: "Minimize cost",
		weights:     Weights{CO2: 0.15, Latency: 0.25, Cost: 0.60},
	},
}

// Strategies returns every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{Balanced, MaxGreen, Budget}
}

func (s Strategy) ID() string          { return strategyTable[s].id }
func (s Strategy) Label() string       { return strategyTable[s].label }
func (s Strategy) Description() string { return strategyTable[s].description }
func (s Strategy) String() string      { return s.ID() }

// BaseWeights returns the strategy's weights before any latency tolerance adjustment.
func (s Strategy) BaseWeights() Weights { return strategyTable[s].weights }

// ParseStrategy maps a strategy id to its Strategy. An empty id means Balanced.
func ParseStrategy(id string) (Strategy, error) {
	if id == "" {
		return Balanced, nil
	}
	for _, s := range Strategies() {
		if s.ID() == id {
			return s, nil
		}
	}
	return 0, apperrors.Validation("unknown optimization preference %q", id)
}

// LatencyTolerance adjusts how heavily latency is weighted.
type LatencyTolerance int

const (
	ToleranceBalanced LatencyTolerance = iota
	ToleranceStrict
	ToleranceRelaxed
)

var toleranceIDs = [...]string{
	ToleranceBalanced: "balanced",
	ToleranceStrict:   "strict",
	ToleranceRelaxed:  "relaxed",
}

func (t LatencyTolerance) String() string { return toleranceIDs[t] }

// ParseTolerance maps a tolerance id to its LatencyTolerance. An empty id means balanced.
func ParseTolerance(id string) (LatencyTolerance, error) {
	if id == "" {
		return ToleranceBalanced, nil
	}
	for t, name := range toleranceIDs {
		if name == id {
			return LatencyTolerance(t), nil
		}
	}
	return 0, apperrors.Validation("unknown latency tolerance %q", id)
}

// ToleranceFactors are the multipliers applied to the latency weight.
type ToleranceFactors struct {
	Strict  float64
	Relaxed float64
}

func DefaultToleranceFactors() ToleranceFactors {
	return ToleranceFactors{Strict: 1.5, Relaxed: 0.5}
}

func (f ToleranceFactors) factor(t LatencyTolerance) float64 {
	switch t {
	case ToleranceStrict:
		return f.Strict
	case ToleranceRelaxed:
		return f.Relaxed
	default:
		return 1
	}
}

// AdjustWeights scales the latency weight by factor (capped at 1) and rescales CO2
// and cost proportionally so the triple keeps summing to 1.
func AdjustWeights(base Weights, factor float64) Weights {
	if factor == 1 {
		return base
	}
	latency := base.Latency * factor
	if latency > 1 {
		latency = 1
	}
	if latency < 0 {
		latency = 0
	}

	rest := 1 - latency
	others := base.CO2 + base.Cost
	if others == 0 {
		return Weights{CO2: rest / 2, Latency: latency, Cost: rest / 2}
	}
	return Weights{
		CO2:     base.CO2 * rest / others,
		Latency: latency,
		Cost:    base.Cost * rest / others,
	}
}

// WeightsFor returns the strategy's weights after the tolerance adjustment.
func WeightsFor(s Strategy, t LatencyTolerance, f ToleranceFactors) Weights {
	return AdjustWeights(s.BaseWeights(), f.factor(t))
}

func (w Weights) String() string {
	return fmt.Sprintf("co2=%.3f latency=%.3f cost=%.3f", w.CO2, w.Latency, w.Cost)
}
