package metrics_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	rolestate "github.com/goliatone/go-rolestate"
	"github.com/goliatone/go-rolestate/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type failingBackend struct{}

func (failingBackend) Load(context.Context, string) (string, bool, error) {
	return "", false, errors.New("load failed")
}

func (failingBackend) Save(context.Context, string, string) error {
	return errors.New("save failed")
}

func TestCollectorRecordsStoreEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	store := rolestate.New(
		rolestate.WithPersistence(failingBackend{}),
		rolestate.WithMetrics(collector),
	)
	tok := store.Subscribe(func() { panic("boom") })
	store.Subscribe(func() {})

	if err := store.Switch(rolestate.Coach); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if err := store.Switch(rolestate.Coach); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if err := store.Switch(rolestate.Student); err != nil {
		t.Fatalf("switch: %v", err)
	}
	store.Unsubscribe(tok)

	expected := `
# HELP rolestate_switches_total Role switches applied, by target role.
# TYPE rolestate_switches_total counter
rolestate_switches_total{role="coach"} 2
rolestate_switches_total{role="student"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "rolestate_switches_total"); err != nil {
		t.Fatalf("switch counter mismatch: %v", err)
	}

	expected = `
# HELP rolestate_listener_panics_total Listener panics recovered during fan-out.
# TYPE rolestate_listener_panics_total counter
rolestate_listener_panics_total 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "rolestate_listener_panics_total"); err != nil {
		t.Fatalf("listener panic counter mismatch: %v", err)
	}

	expected = `
# HELP rolestate_persist_failures_total Persistence reads and writes that failed and were ignored.
# TYPE rolestate_persist_failures_total counter
rolestate_persist_failures_total{op="read"} 1
rolestate_persist_failures_total{op="write"} 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "rolestate_persist_failures_total"); err != nil {
		t.Fatalf("persist failure counter mismatch: %v", err)
	}

	expected = `
# HELP rolestate_subscribers Listeners currently registered.
# TYPE rolestate_subscribers gauge
rolestate_subscribers 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "rolestate_subscribers"); err != nil {
		t.Fatalf("subscriber gauge mismatch: %v", err)
	}
}

func TestNewCollectorReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := metrics.NewCollector(reg)
	if err != nil {
		t.Fatalf("first collector: %v", err)
	}
	second, err := metrics.NewCollector(reg)
	if err != nil {
		t.Fatalf("second collector: %v", err)
	}

	first.RoleSwitched(rolestate.Coach)
	second.RoleSwitched(rolestate.Coach)

	expected := `
# HELP rolestate_switches_total Role switches applied, by target role.
# TYPE rolestate_switches_total counter
rolestate_switches_total{role="coach"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "rolestate_switches_total"); err != nil {
		t.Fatalf("shared counter mismatch: %v", err)
	}
}

func TestMustNewCollectorPanicsOnConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	conflicting := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rolestate_switches_total",
		Help: "conflicting type",
	})
	reg.MustRegister(conflicting)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on conflicting registration")
		}
	}()
	metrics.MustNewCollector(reg)
}
