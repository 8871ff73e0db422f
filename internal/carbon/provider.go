// Package carbon resolves grid carbon intensity per zone. Live providers are tried
// under a timeout and any failure degrades to a static fallback table, so callers
// always receive a usable value.
package carbon

import "context"

// Source records where a carbon intensity value came from.
type Source string

const (
	SourceElectricityMaps Source = "electricitymaps"
	SourcePrometheus      Source = "prometheus"
	SourceFallback        Source = "fallback-static"
)

// Live reports whether the value came from a live provider.
func (s Source) Live() bool {
	return s != "" && s != SourceFallback
}

// Reading is a resolved carbon intensity for one zone.
type Reading struct {
	Zone            string  `json:"zone"`
	ValueGCo2PerKwh float64 `json:"value_gCo2PerKwh"`
	Source          Source  `json:"source"`
}

// Provider fetches the latest carbon intensity, in gCO2/kWh, for a grid zone.
type Provider interface {
	Name() Source
	FetchCarbonIntensity(ctx context.Context, zone string) (float64, error)
}

// HealthChecker is implemented by providers that can check their backend without a zone.
type HealthChecker interface {
	Health(ctx context.Context) error
}
