// Package metrics exports compile and render counters to Prometheus. A nil
// *Recorder records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the engine collectors.
type Recorder struct {
	compiles        *prometheus.CounterVec
	compileDuration *prometheus.HistogramVec
	renders         *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	lookups         *prometheus.CounterVec
}

// New registers the collectors on reg. Collectors already registered by
// another engine are shared.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return nil
	}
	return &Recorder{
		compiles: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blade_compiles_total",
			Help: "Template compilations by result",
		}, []string{"template", "result"})),
		compileDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blade_compile_duration_seconds",
			Help:    "Template compilation time in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"template"})),
		renders: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blade_renders_total",
			Help: "Top level renders by result",
		}, []string{"template", "result"})),
		renderDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blade_render_duration_seconds",
			Help:    "Top level render time in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"template"})),
		lookups: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blade_cache_lookups_total",
			Help: "Compiled template lookups by source: memory, artifact or compile",
		}, []string{"source"})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Compiled records one compilation.
func (r *Recorder) Compiled(template string, took time.Duration, err error) {
	if r == nil {
		return
	}
	r.compiles.WithLabelValues(template, result(err)).Inc()
	if err == nil {
		r.compileDuration.WithLabelValues(template).Observe(took.Seconds())
	}
}

// Rendered records one top level render.
func (r *Recorder) Rendered(template string, took time.Duration, err error) {
	if r == nil {
		return
	}
	r.renders.WithLabelValues(template, result(err)).Inc()
	r.renderDuration.WithLabelValues(template).Observe(took.Seconds())
}

// Lookup records where a compiled template came from.
func (r *Recorder) Lookup(source string) {
	if r == nil {
		return
	}
	r.lookups.WithLabelValues(source).Inc()
}
