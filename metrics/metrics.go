// Package metrics exports array lifecycle events as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/dynarray"
)

const namespace = "dynarray"

// Metrics counts array lifecycle events per engine. It implements
// dynarray.Observer and can be set as the Observer option of both engines.
type Metrics struct {
	created       *prometheus.CounterVec
	destroyed     *prometheus.CounterVec
	grows         *prometheus.CounterVec
	allocFailures *prometheus.CounterVec
	live          *prometheus.GaugeVec
	reservedBytes *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered. Collectors already registered by an earlier call are
// reused.
func New(reg prometheus.Registerer) *Metrics {
	labels := []string{"engine"}
	return &Metrics{
		created: RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arrays_created_total",
			Help:      "Total number of arrays initialized.",
		}, labels)),
		destroyed: RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arrays_destroyed_total",
			Help:      "Total number of arrays destroyed.",
		}, labels)),
		grows: RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grows_total",
			Help:      "Total number of capacity doublings.",
		}, labels)),
		allocFailures: RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_failures_total",
			Help:      "Total number of failed storage allocations.",
		}, labels)),
		live: RegisterOrGet(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_arrays",
			Help:      "Number of arrays initialized and not yet destroyed.",
		}, labels)),
		reservedBytes: RegisterOrGet(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reserved_bytes",
			Help:      "Element storage reserved by live arrays, capacity times element size.",
		}, labels)),
	}
}

// OnArrayEvent implements dynarray.Observer.
func (m *Metrics) OnArrayEvent(ev dynarray.Event) {
	engine := ev.Engine
	switch ev.Type {
	case dynarray.EventCreated:
		m.created.WithLabelValues(engine).Inc()
		m.live.WithLabelValues(engine).Inc()
		m.reservedBytes.WithLabelValues(engine).Add(float64(ev.Capacity * ev.ElemSize))
	case dynarray.EventGrown:
		m.grows.WithLabelValues(engine).Inc()
		m.reservedBytes.WithLabelValues(engine).Add(float64((ev.Capacity - ev.PrevCapacity) * ev.ElemSize))
	case dynarray.EventDestroyed:
		m.destroyed.WithLabelValues(engine).Inc()
		m.live.WithLabelValues(engine).Dec()
		m.reservedBytes.WithLabelValues(engine).Sub(float64(ev.PrevCapacity * ev.ElemSize))
	case dynarray.EventAllocFailed:
		m.allocFailures.WithLabelValues(engine).Inc()
	}
}

// RegisterOrGet registers c with reg and returns it. If an equal collector
// is already registered the existing one is returned. A nil reg returns c
// unregistered.
func RegisterOrGet[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(T)
		}
		panic(err)
	}
	return c
}
