package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/internal/analytics"
	"github.com/namansh70747/greenops-planner/internal/apperrors"
	"github.com/namansh70747/greenops-planner/internal/catalog"
	"github.com/namansh70747/greenops-planner/internal/deploy"
	"github.com/namansh70747/greenops-planner/internal/metrics"
	"github.com/namansh70747/greenops-planner/internal/planner"
	"github.com/namansh70747/greenops-planner/internal/storage"
)

func healthHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := d.Store.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		body := gin.H{
			"status":    "healthy",
			"version":   d.Version,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if pr, ok := d.Store.(storage.PoolReporter); ok {
			body["pool"] = pr.PoolStats()
		}
		c.JSON(http.StatusOK, body)
	}
}

// readyHandler fails only when the event store is down. An unreachable carbon source
// marks the service degraded since planning continues on fallback data.
func readyHandler(store storage.EventStore, carbonHealth func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := store.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"reason": "event store unavailable",
			})
			return
		}

		body := gin.H{
			"status":    "ready",
			"carbon":    "static",
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if carbonHealth != nil {
			body["carbon"] = "live"
			if err := carbonHealth(ctx); err != nil {
				loggerFrom(c).Warn("Carbon source unhealthy", zap.Error(err))
				body["status"] = "degraded"
				body["carbon"] = "fallback"
				body["reason"] = err.Error()
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

func apiHealthHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":                 "ok",
			"app":                    d.AppName,
			"message":                "GreenOps planner is running",
			"version":                d.Version,
			"electricityMapsEnabled": d.LiveCarbon,
			"clusterDeployEnabled":   d.ClusterDeploy,
		})
	}
}

func regionsHandler(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"regions":     cat.Regions(),
			"userRegions": cat.UserRegions(),
		})
	}
}

func planHandler(p Planner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req planner.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.Wrap(apperrors.TypeValidation, "invalid plan request body", err))
			return
		}

		start := time.Now()
		resp, err := p.Plan(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		if len(resp.Plans) > 0 {
			metrics.ObservePlan(resp.Plans[0].ID, time.Since(start))
		}

		c.JSON(http.StatusOK, resp)
	}
}

func rankingsHandler(p Planner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req planner.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.Wrap(apperrors.TypeValidation, "invalid plan request body", err))
			return
		}

		resp, err := p.Rank(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func deployHandler(d Deployer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deploy.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.Wrap(apperrors.TypeValidation, "invalid deploy request body", err))
			return
		}

		resp, err := d.Submit(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func deploymentHandler(store storage.EventStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, event)
	}
}

func analyticsHandler(store storage.EventStore, agg analytics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := store.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, agg.Aggregate(events))
	}
}

func writeError(c *gin.Context, err error) {
	errType := apperrors.TypeOf(err)
	status := http.StatusInternalServerError
	switch errType {
	case apperrors.TypeValidation:
		status = http.StatusBadRequest
	case apperrors.TypeNotFound:
		status = http.StatusNotFound
	}

	message := "internal error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
		if status == http.StatusBadRequest && appErr.Cause != nil {
			message += ": " + appErr.Cause.Error()
		}
	}

	if status == http.StatusInternalServerError {
		loggerFrom(c).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   string(errType),
		"message": message,
	})
}
