package carbon

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/metrics"
)

// Resolver turns zone ids into Readings. It never fails: a missing provider, an
// error, a timeout or an implausible value all yield the fallback value.
type Resolver struct {
	provider Provider
	fallback *Fallback
	timeout  time.Duration
	logger   *zap.Logger
}

// NewResolver wires a live provider (nil for static-only) with a fallback table.
func NewResolver(provider Provider, fallback *Fallback, timeout time.Duration, logger *zap.Logger) *Resolver {
	if fallback == nil {
		fallback = NewFallback(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{
		provider: provider,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

// LiveEnabled reports whether a live provider is configured.
func (r *Resolver) LiveEnabled() bool {
	return r.provider != nil
}

// Resolve returns the reading for one zone.
func (r *Resolver) Resolve(ctx context.Context, zone string) Reading {
	if r.provider == nil {
		return r.fallbackReading(zone)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	value, err := r.provider.FetchCarbonIntensity(ctx, zone)
	if err != nil {
		r.logger.Warn("Carbon provider failed, using fallback",
			zap.String("provider", string(r.provider.Name())),
			zap.String("zone", zone),
			zap.Error(err),
		)
		return r.fallbackReading(zone)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		r.logger.Warn("Carbon provider returned implausible value, using fallback",
			zap.String("provider", string(r.provider.Name())),
			zap.String("zone", zone),
			zap.Float64("value", value),
		)
		return r.fallbackReading(zone)
	}

	return Reading{Zone: zone, ValueGCo2PerKwh: value, Source: r.provider.Name()}
}

// ResolveAll fetches every zone concurrently and returns readings in input order.
func (r *Resolver) ResolveAll(ctx context.Context, zones []string) []Reading {
	readings := make([]Reading, len(zones))

	var wg sync.WaitGroup
	for i, zone := range zones {
		wg.Add(1)
		go func(i int, zone string) {
			defer wg.Done()
			readings[i] = r.Resolve(ctx, zone)
		}(i, zone)
	}
	wg.Wait()

	return readings
}

func (r *Resolver) fallbackReading(zone string) Reading {
	metrics.ObserveCarbonFallback(zone)
	return Reading{Zone: zone, ValueGCo2PerKwh: r.fallback.Lookup(zone), Source: SourceFallback}
}
