// Package metrics exports role store events as Prometheus metrics.
package metrics

import (
	"errors"

	rolestate "github.com/goliatone/go-rolestate"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rolestate"

// Collector implements rolestate.Metrics on top of Prometheus collectors.
type Collector struct {
	switches        *prometheus.CounterVec
	listenerPanics  prometheus.Counter
	subscribers     prometheus.Gauge
	persistFailures *prometheus.CounterVec
}

var _ rolestate.Metrics = (*Collector)(nil)

// NewCollector builds the collectors and registers them on reg. A nil reg
// uses prometheus.DefaultRegisterer. Collectors already registered by an
// earlier Collector are reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		switches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "switches_total",
				Help:      "Role switches applied, by target role.",
			},
			[]string{"role"},
		),
		listenerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_panics_total",
			Help:      "Listener panics recovered during fan-out.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Listeners currently registered.",
		}),
		persistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_failures_total",
				Help:      "Persistence reads and writes that failed and were ignored.",
			},
			[]string{"op"},
		),
	}

	var err error
	if c.switches, err = register(reg, c.switches); err != nil {
		return nil, err
	}
	if c.listenerPanics, err = register(reg, c.listenerPanics); err != nil {
		return nil, err
	}
	if c.subscribers, err = register(reg, c.subscribers); err != nil {
		return nil, err
	}
	if c.persistFailures, err = register(reg, c.persistFailures); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewCollector is NewCollector that panics on registration errors.
func MustNewCollector(reg prometheus.Registerer) *Collector {
	c, err := NewCollector(reg)
	if err != nil {
		panic(err)
	}
	return c
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

// RoleSwitched implements rolestate.Metrics.
func (c *Collector) RoleSwitched(to rolestate.Role) {
	c.switches.WithLabelValues(string(to)).Inc()
}

// ListenerPanicked implements rolestate.Metrics.
func (c *Collector) ListenerPanicked() {
	c.listenerPanics.Inc()
}

// SubscribersChanged implements rolestate.Metrics.
func (c *Collector) SubscribersChanged(n int) {
	c.subscribers.Set(float64(n))
}

// PersistFailed implements rolestate.Metrics.
func (c *Collector) PersistFailed(op string) {
	c.persistFailures.WithLabelValues(op).Inc()
}
