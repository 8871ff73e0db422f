package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/api"
	"github.com/namansh70747/greenops-planner/internal/metrics"
	"github.com/namansh70747/greenops-planner/pkg/logger"
)

var requestLogging bool

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the planner HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&requestLogging, "request-logging", true, "log every HTTP request")
}

func runServe(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	log := logger.L()

	if cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		logger.Fatal("Event log init failed", zap.Error(err))
	}
	defer store.Close()

	comp, err := buildPlanner(cfg, log)
	if err != nil {
		logger.Fatal("Planner init failed", zap.Error(err))
	}

	applier := buildApplier(cfg, log)
	if !applier.Enabled() {
		logger.Warn("DRY-RUN MODE", zap.String("namespace", cfg.Kubernetes.Namespace))
	}

	pub := buildPublisher(cfg, log)
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn("Publisher close failed", zap.Error(err))
		}
	}()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Metrics registration failed", zap.Error(err))
	}

	router := api.NewRouter(api.Deps{
		AppName:        cfg.App.Name,
		Version:        cfg.App.Version,
		Planner:        comp.planner,
		Deployer:       buildDeployer(comp, store, pub, applier, log),
		Store:          store,
		Aggregator:     comp.aggregator,
		Catalog:        comp.catalog,
		LiveCarbon:     comp.resolver.LiveEnabled(),
		ClusterDeploy:  applier.Enabled(),
		MetricsHandler: promhttp.Handler(),
		Logger:         log,
		RequestLogging: requestLogging,
		CarbonHealth:   comp.carbonHealth(),
	})

	srv := &http.Server{
		Addr:           cfg.Server.Address,
		Handler:        api.WithCORS(router, cfg.Server.AllowedOrigins),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("HTTP server started",
			zap.String("addr", srv.Addr),
			zap.Bool("live_carbon", comp.resolver.LiveEnabled()),
			zap.Bool("cluster_deploy", applier.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulTimeout())
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

func gracefulTimeout() time.Duration {
	if cfg.Server.GracefulTimeout <= 0 {
		return 30 * time.Second
	}
	return cfg.Server.GracefulTimeout
}
