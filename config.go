package rolestate

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-rolestate/pkg/state"
	"go.uber.org/zap"
)

// Backend names accepted by Config.Backend.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config selects how a Store persists the role. It is normally read from the
// environment with LoadConfig.
type Config struct {
	Backend     string `env:"ROLESTATE_BACKEND" envDefault:"none"`
	Path        string `env:"ROLESTATE_PATH"`
	Key         string `env:"ROLESTATE_KEY" envDefault:"userRole"`
	AsyncWrites bool   `env:"ROLESTATE_ASYNC_WRITES" envDefault:"false"`
	ActorID     string `env:"ROLESTATE_ACTOR_ID"`
	TenantID    string `env:"ROLESTATE_TENANT_ID"`
}

// LoadConfig parses Config from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("rolestate: parse env: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, nil
}

// OpenBackend builds the persistence backend named by cfg.Backend. onFailure
// observes failed background saves when cfg.AsyncWrites is set.
func OpenBackend(cfg Config, logger *zap.Logger, onFailure state.FailureFunc) (state.Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var backend state.Backend
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return state.Noop{}, nil
	case BackendMemory:
		backend = state.NewMemoryStore()
	case BackendSQLite:
		store, err := state.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		backend = store
	case BackendFile:
		backend = state.NewFileStore(cfg.Path, state.FileWithLogger(logger.Named("persistence")))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if cfg.AsyncWrites {
		backend = state.NewAsyncBackend(backend,
			state.AsyncWithLogger(logger.Named("persistence")),
			state.AsyncWithFailureFunc(onFailure),
		)
	}
	return backend, nil
}

// Open builds the backend described by cfg and a Store over it. opts are
// applied after the ones derived from cfg, so they win.
func Open(cfg Config, opts ...Option) (*Store, error) {
	derived := applyStoreOptions(opts)
	logger := derived.logger
	backend, err := OpenBackend(cfg, logger, func(op state.Op, _ string, _ error) {
		derived.metrics.PersistFailed(string(op))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("opening role store",
		zap.String("backend", cfg.Backend),
		zap.Bool("async_writes", cfg.AsyncWrites),
	)
	base := []Option{
		WithPersistence(backend),
		WithStorageKey(cfg.Key),
		WithActor(cfg.ActorID, cfg.TenantID),
	}
	return New(append(base, opts...)...), nil
}
