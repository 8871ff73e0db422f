package carbon

import (
	"context"
	"fmt"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"
)

// PrometheusProvider reads carbon intensity from a gauge scraped into Prometheus,
// labelled by grid zone.
type PrometheusProvider struct {
	api    promv1.API
	metric string
	logger *zap.Logger
}

func NewPrometheusProvider(prometheusURL, metric string, logger *zap.Logger) (*PrometheusProvider, error) {
	client, err := promapi.NewClient(promapi.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PrometheusProvider{
		api:    promv1.NewAPI(client),
		metric: metric,
		logger: logger,
	}, nil
}

func (p *PrometheusProvider) Name() Source { return SourcePrometheus }

func (p *PrometheusProvider) FetchCarbonIntensity(ctx context.Context, zone string) (float64, error) {
	query := fmt.Sprintf("%s{zone=%q}", p.metric, zone)

	result, warnings, err := p.api.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("prometheus query failed: %w", err)
	}
	if len(warnings) > 0 {
		p.logger.Warn("Prometheus query warnings",
			zap.String("zone", zone),
			zap.Strings("warnings", warnings),
		)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return 0, fmt.Errorf("unexpected result type: %T", result)
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("no %s sample for zone %s", p.metric, zone)
	}
	return float64(vector[0].Value), nil
}

// Health runs a trivial query against the Prometheus API.
func (p *PrometheusProvider) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, _, err := p.api.Query(ctx, "up", time.Now()); err != nil {
		return fmt.Errorf("prometheus health check failed: %w", err)
	}
	return nil
}
