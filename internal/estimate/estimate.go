// Package estimate computes the hourly energy, emissions and cost attached to a
// recorded deployment.
package estimate

import (
	"github.com/shopspring/decimal"
)

// precision is the number of decimal places kept on every estimate.
const precision = 6

// Estimator holds the constants the estimates are derived from.
type Estimator struct {
	PowerPerReplicaKW float64
	USDToINR          float64
}

func New(powerPerReplicaKW, usdToINR float64) Estimator {
	return Estimator{PowerPerReplicaKW: powerPerReplicaKW, USDToINR: usdToINR}
}

// Hourly is the per-hour footprint of a deployment.
type Hourly struct {
	EnergyKwh float64 `json:"estimatedHourlyEnergyKwh"`
	CO2Kg     float64 `json:"estimatedHourlyCO2Kg"`
	CostUSD   float64 `json:"estimatedHourlyCostUsd"`
	CostINR   float64 `json:"estimatedHourlyCostInr"`
}

// Hourly computes energy = replicas * power, co2 = ci/1000 * energy,
// cost = baseCost * replicas and its INR conversion.
func (e Estimator) Hourly(carbonIntensity float64, replicas int, baseCostUSD float64) Hourly {
	n := decimal.NewFromInt(int64(replicas))

	energy := decimal.NewFromFloat(e.PowerPerReplicaKW).Mul(n)
	co2 := decimal.NewFromFloat(carbonIntensity).Div(decimal.NewFromInt(1000)).Mul(energy)
	costUSD := decimal.NewFromFloat(baseCostUSD).Mul(n)
	costINR := costUSD.Mul(decimal.NewFromFloat(e.USDToINR))

	return Hourly{
		EnergyKwh: round(energy),
		CO2Kg:     round(co2),
		CostUSD:   round(costUSD),
		CostINR:   round(costINR),
	}
}

func round(d decimal.Decimal) float64 {
	return d.Round(precision).InexactFloat64()
}
