// Package metrics exposes pipeline measurements as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xcro3dile/ragprompt/internal/adapters/llm"
	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

const namespace = "ragprompt"

// Inference outcomes used as the "outcome" label value.
const (
	OutcomeSuccess   = "success"
	OutcomeStatus    = "endpoint_status"
	OutcomeMalformed = "malformed_response"
	OutcomeCanceled  = "canceled"
	OutcomeError     = "error"
)

// Collector implements ports.PipelineObserver.
type Collector struct {
	registry *prometheus.Registry

	documentsLoaded  prometheus.Counter
	documentsSkipped *prometheus.CounterVec
	lastLoaded       prometheus.Gauge
	inferences       *prometheus.CounterVec
	inferenceLatency prometheus.Histogram
}

// NewCollector registers the pipeline metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		documentsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "Documents successfully loaded across all runs",
		}),
		documentsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_skipped_total",
			Help:      "Documents skipped during loading, by status",
		}, []string{"status"}),
		lastLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents_last_loaded",
			Help:      "Documents loaded by the most recent run",
		}),
		inferences: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Inference requests by outcome",
		}, []string{"outcome"}),
		inferenceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Inference request latency",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// ObserveLoad records one load cycle.
func (c *Collector) ObserveLoad(report entities.LoadReport) {
	loaded := report.Loaded()
	c.documentsLoaded.Add(float64(loaded))
	c.lastLoaded.Set(float64(loaded))
	for _, e := range report.Skipped() {
		c.documentsSkipped.WithLabelValues(string(e.Status)).Inc()
	}
}

// ObserveInference records one generate call.
func (c *Collector) ObserveInference(err error, elapsed time.Duration) {
	c.inferences.WithLabelValues(Outcome(err)).Inc()
	c.inferenceLatency.Observe(elapsed.Seconds())
}

// Registry returns the registry holding the pipeline metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Outcome classifies an inference error into a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, llm.ErrEndpointStatus):
		return OutcomeStatus
	case errors.Is(err, llm.ErrMalformedResponse):
		return OutcomeMalformed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
