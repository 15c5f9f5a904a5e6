package rolestate

// Metrics receives store events. pkg/metrics provides a Prometheus
// implementation.
type Metrics interface {
	RoleSwitched(to Role)
	ListenerPanicked()
	SubscribersChanged(n int)
	PersistFailed(op string)
}

type noopMetrics struct{}

func (noopMetrics) RoleSwitched(Role) {}
func (noopMetrics) ListenerPanicked() {}
func (noopMetrics) SubscribersChanged(int) {}
func (noopMetrics) PersistFailed(string) {}
