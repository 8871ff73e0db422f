// Package api exposes the planner over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/analytics"
	"github.com/namansh70747/greenops-planner/internal/catalog"
	"github.com/namansh70747/greenops-planner/internal/deploy"
	"github.com/namansh70747/greenops-planner/internal/planner"
	"github.com/namansh70747/greenops-planner/internal/storage"
)

// Planner produces plans and rankings.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (*planner.Response, error)
	Rank(ctx context.Context, req planner.Request) (*planner.Rankings, error)
}

// Deployer records deploy submissions.
type Deployer interface {
	Submit(ctx context.Context, req deploy.Request) (*deploy.Response, error)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	AppName        string
	Version        string
	Planner        Planner
	Deployer       Deployer
	Store          storage.EventStore
	Aggregator     analytics.Aggregator
	Catalog        *catalog.Catalog
	LiveCarbon     bool
	ClusterDeploy  bool
	MetricsHandler http.Handler
	Logger         *zap.Logger
	RequestLogging bool

	// CarbonHealth checks the live carbon source. Nil when there is none to check.
	CarbonHealth func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MetricsHandler == nil {
		d.MetricsHandler = promhttp.Handler()
	}
	router := gin.New()
	router.Use(gin.Recovery(), withLogger(d.Logger))
	if d.RequestLogging {
		router.Use(ginLogger(d.Logger))
	}

	router.GET("/health", healthHandler(d))
	router.GET("/ready", readyHandler(d.Store, d.CarbonHealth))
	router.GET("/metrics", gin.WrapH(d.MetricsHandler))

	api := router.Group("/api")
	{
		api.GET("/health", apiHealthHandler(d))
		api.GET("/regions", regionsHandler(d.Catalog))

		api.POST("/plan", planHandler(d.Planner))
		api.POST("/plan/rankings", rankingsHandler(d.Planner))

		api.POST("/deploy", deployHandler(d.Deployer))
		api.GET("/deployments/:id", deploymentHandler(d.Store))

		api.GET("/analytics", analyticsHandler(d.Store, d.Aggregator))
	}

	return router
}

// WithCORS wraps the router so browser clients on other origins can call it.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(h)
}
