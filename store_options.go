package rolestate

import (
	"strings"

	"github.com/goliatone/go-rolestate/pkg/activity"
	"github.com/goliatone/go-rolestate/pkg/state"
	"go.uber.org/zap"
)

// StorageKey is the key the role is persisted under.
const StorageKey = "userRole"

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	backend state.Backend
	logger  *zap.Logger
	emitter *activity.Emitter
	actorID string
	tenant  string
	metrics Metrics
	key     string
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		backend: state.Noop{},
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
		key:     StorageKey,
	}
}

func applyStoreOptions(opts []Option) storeConfig {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithPersistence selects the storage backend. Without it, or with nil, the
// role is kept in memory only.
func WithPersistence(backend state.Backend) Option {
	return func(cfg *storeConfig) {
		if backend == nil {
			cfg.backend = state.Noop{}
			return
		}
		cfg.backend = backend
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.logger = zap.NewNop()
			return
		}
		cfg.logger = logger
	}
}

// WithActivity emits role.switched / role.restored events through emitter.
func WithActivity(emitter *activity.Emitter) Option {
	return func(cfg *storeConfig) {
		cfg.emitter = emitter
	}
}

// WithActor attributes activity events to actorID, optionally within tenant.
func WithActor(actorID, tenant string) Option {
	return func(cfg *storeConfig) {
		cfg.actorID = strings.TrimSpace(actorID)
		cfg.tenant = strings.TrimSpace(tenant)
	}
}

// WithMetrics records store events on m.
func WithMetrics(m Metrics) Option {
	return func(cfg *storeConfig) {
		if m == nil {
			cfg.metrics = noopMetrics{}
			return
		}
		cfg.metrics = m
	}
}

// WithStorageKey overrides StorageKey. Empty keys are ignored.
func WithStorageKey(key string) Option {
	return func(cfg *storeConfig) {
		if key = strings.TrimSpace(key); key != "" {
			cfg.key = key
		}
	}
}
