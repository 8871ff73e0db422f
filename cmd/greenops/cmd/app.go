package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/analytics"
	"github.com/namansh70747/greenops-planner/internal/carbon"
	"github.com/namansh70747/greenops-planner/internal/catalog"
	"github.com/namansh70747/greenops-planner/internal/core"
	"github.com/namansh70747/greenops-planner/internal/deploy"
	"github.com/namansh70747/greenops-planner/internal/estimate"
	"github.com/namansh70747/greenops-planner/internal/kube"
	"github.com/namansh70747/greenops-planner/internal/planner"
	"github.com/namansh70747/greenops-planner/internal/publish"
	"github.com/namansh70747/greenops-planner/internal/storage"
)

// openStore returns the Postgres event log when the database is enabled and the
// in-memory log otherwise.
func openStore(ctx context.Context, c *core.Config, log *zap.Logger) (storage.EventStore, error) {
	if !c.Database.Enabled {
		log.Info("Using in-memory event log")
		return storage.NewMemoryStore(), nil
	}

	db, err := storage.NewPostgresStore(c.GetDatabaseURL(), log)
	if err != nil {
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.Migrate(migrateCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// carbonProvider picks the live carbon source. A nil provider means static data only.
func carbonProvider(c *core.Config, log *zap.Logger) carbon.Provider {
	switch c.Carbon.Provider {
	case "electricitymaps":
		if !c.ElectricityMapsEnabled() {
			log.Warn("ELECTRICITY_MAPS_TOKEN not set, using static carbon data")
			return nil
		}
		return carbon.NewElectricityMaps(c.Carbon.ElectricityMaps.BaseURL, c.Carbon.ElectricityMaps.Token, nil)
	case "prometheus":
		p, err := carbon.NewPrometheusProvider(c.Carbon.Prometheus.URL, c.Carbon.Prometheus.Metric, log)
		if err != nil {
			log.Warn("Prometheus carbon source unavailable, using static carbon data", zap.Error(err))
			return nil
		}
		return p
	default:
		return nil
	}
}

type components struct {
	catalog    *catalog.Catalog
	provider   carbon.Provider
	resolver   *carbon.Resolver
	planner    *planner.Planner
	estimator  estimate.Estimator
	aggregator analytics.Aggregator
}

func buildPlanner(c *core.Config, log *zap.Logger) (*components, error) {
	cat, err := c.Catalog()
	if err != nil {
		return nil, fmt.Errorf("region catalog: %w", err)
	}

	provider := carbonProvider(c, log)
	resolver := carbon.NewResolver(provider, carbon.NewFallback(c.Carbon.Fallback), c.Carbon.Timeout, log)
	engine := planner.NewEngine(planner.ToleranceFactors{
		Strict:  c.Planner.StrictLatencyFactor,
		Relaxed: c.Planner.RelaxedLatencyFactor,
	})
	renderer := kube.NewRenderer(c.Kubernetes.Namespace, c.Kubernetes.Image)
	rule := planner.AssemblyRule{MinReplicas: c.Planner.MinReplicas}

	return &components{
		catalog:    cat,
		provider:   provider,
		resolver:   resolver,
		planner:    planner.New(cat, resolver, engine, rule, renderer, log),
		estimator:  estimate.New(c.Estimation.PowerPerReplicaKW, c.Estimation.USDToINR),
		aggregator: analytics.NewAggregator(cat.MaxBaseCost(), c.Estimation.USDToINR),
	}, nil
}

// carbonHealth returns the live provider's health check, or nil when the provider
// has none or only static data is configured.
func (c *components) carbonHealth() func(context.Context) error {
	if hc, ok := c.provider.(carbon.HealthChecker); ok {
		return hc.Health
	}
	return nil
}

// buildApplier connects to the cluster when deploys are enabled and degrades to a
// dry-run applier when the cluster cannot be reached.
func buildApplier(c *core.Config, log *zap.Logger) *kube.Applier {
	applier, err := kube.NewApplier(c.Kubernetes.Kubeconfig, c.Kubernetes.Namespace, c.Kubernetes.Deploy, log)
	if err != nil {
		log.Warn("Kubernetes unavailable, deploys run in dry-run mode", zap.Error(err))
		return kube.NewApplierWithClient(nil, c.Kubernetes.Namespace, false, log)
	}
	return applier
}

func buildPublisher(c *core.Config, log *zap.Logger) publish.Publisher {
	if !c.Kafka.Enabled {
		return publish.Noop{}
	}
	log.Info("Publishing deployment events to Kafka",
		zap.Strings("brokers", c.Kafka.Brokers),
		zap.String("topic", c.Kafka.Topic),
	)
	return publish.NewKafkaPublisher(c.Kafka.Brokers, c.Kafka.Topic, log)
}

func buildDeployer(comp *components, store storage.EventStore, pub publish.Publisher, applier *kube.Applier, log *zap.Logger) *deploy.Service {
	return deploy.NewService(comp.catalog, comp.estimator, store, pub, applier, log)
}
