package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	plansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "greenops",
			Name:      "plans_total",
			Help:      "Total number of plan requests served, partitioned by optimization preference.",
		},
		[]string{"preference"},
	)

	planDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "greenops",
			Name:      "plan_duration_seconds",
			Help:      "Plan request latency in seconds, carbon lookups included.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)

	deploymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "greenops",
			Name:      "deployments_total",
			Help:      "Total number of recorded deployments, partitioned by plan and apply status.",
		},
		[]string{"plan", "status"},
	)

	carbonFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "greenops",
			Name:      "carbon_fallback_total",
			Help:      "Carbon intensity lookups answered from the static fallback table, by zone.",
		},
		[]string{"zone"},
	)
)

// Register attaches planner collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		plansTotal,
		planDurationSeconds,
		deploymentsTotal,
		carbonFallbackTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePlan records a plan request duration under its preference label.
func ObservePlan(preference string, duration time.Duration) {
	plansTotal.WithLabelValues(preference).Inc()
	if duration < 0 {
		duration = 0
	}
	planDurationSeconds.Observe(duration.Seconds())
}

// ObserveDeployment counts one deployment submission by plan and apply status.
func ObserveDeployment(plan, status string) {
	deploymentsTotal.WithLabelValues(plan, status).Inc()
}

// ObserveCarbonFallback counts one lookup served from the fallback table.
func ObserveCarbonFallback(zone string) {
	carbonFallbackTotal.WithLabelValues(zone).Inc()
}
