package storage

import (
	"time"

	"github.com/namansh70747/greenops-planner/internal/planner"
)

// DeploymentEvent is one recorded deployment. Numeric estimates are pointers so a
// record with missing values can be stored and recognised as incomplete.
type DeploymentEvent struct {
	ID                       string          `json:"id"`
	Timestamp                time.Time       `json:"timestamp"`
	PlanID                   string          `json:"planId"`
	Region                   string          `json:"region"`
	RegionLabel              string          `json:"regionLabel"`
	CarbonIntensity          *float64        `json:"carbonIntensity_gCo2PerKwh"`
	Replicas                 int             `json:"replicas"`
	Scores                   *planner.Scores `json:"scores"`
	EstimatedHourlyEnergyKwh *float64        `json:"estimatedHourlyEnergyKwh"`
	EstimatedHourlyCO2Kg     *float64        `json:"estimatedHourlyCO2Kg"`
	EstimatedHourlyCostUSD   *float64        `json:"estimatedHourlyCostUsd"`
	EstimatedHourlyCostINR   *float64        `json:"estimatedHourlyCostInr"`
	CreatedAt                time.Time       `json:"createdAt,omitempty"`
}

// Complete reports whether every numeric field needed for aggregation is present.
func (e *DeploymentEvent) Complete() bool {
	return e.CarbonIntensity != nil &&
		e.EstimatedHourlyEnergyKwh != nil &&
		e.EstimatedHourlyCO2Kg != nil &&
		e.EstimatedHourlyCostUSD != nil &&
		e.EstimatedHourlyCostINR != nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
