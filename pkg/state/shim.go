package state

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Op names the shim operation that failed.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// FailureFunc observes swallowed persistence failures.
type FailureFunc func(op Op, key string, err error)

// ShimOption configures a Shim.
type ShimOption func(*Shim)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(logger *zap.Logger) ShimOption {
	return func(s *Shim) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFailureFunc registers fn to observe every swallowed failure.
func WithFailureFunc(fn FailureFunc) ShimOption {
	return func(s *Shim) {
		s.onFailure = fn
	}
}

// Shim is the best-effort facade over a Backend. None of its methods return
// errors or panic: a failed read is reported as absent and a failed write is
// dropped after logging.
type Shim struct {
	backend   Backend
	available bool
	logger    *zap.Logger
	onFailure FailureFunc
}

// NewShim wraps backend. A nil backend behaves like Noop.
func NewShim(backend Backend, opts ...ShimOption) *Shim {
	if backend == nil {
		backend = Noop{}
	}
	s := &Shim{
		backend:   backend,
		available: Available(backend),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Available reports whether writes can reach a storage facility.
func (s *Shim) Available() bool {
	return s != nil && s.available
}

// Backend returns the wrapped backend.
func (s *Shim) Backend() Backend {
	if s == nil {
		return Noop{}
	}
	return s.backend
}

// Read returns the value stored under key, or ("", false) when storage is
// unavailable, the key is missing, or the backend fails.
func (s *Shim) Read(key string) (value string, ok bool) {
	if !s.Available() {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			s.fail(OpRead, key, fmt.Errorf("state: backend panic: %v", r))
			value, ok = "", false
		}
	}()
	value, ok, err := s.backend.Load(context.Background(), key)
	if err != nil {
		s.fail(OpRead, key, err)
		return "", false
	}
	return value, ok
}

// Write attempts to persist value under key. It does not retry and does not
// report the outcome.
func (s *Shim) Write(key, value string) {
	if !s.Available() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.fail(OpWrite, key, fmt.Errorf("state: backend panic: %v", r))
		}
	}()
	if err := s.backend.Save(context.Background(), key, value); err != nil {
		s.fail(OpWrite, key, err)
	}
}

func (s *Shim) fail(op Op, key string, err error) {
	s.logger.Warn("persistence failure ignored",
		zap.String("op", string(op)),
		zap.String("key", key),
		zap.Error(err),
	)
	if s.onFailure != nil {
		s.onFailure(op, key, err)
	}
}
