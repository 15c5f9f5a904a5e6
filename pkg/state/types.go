package state

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("state: backend closed")

var ErrEmptyKey = errors.New("state: key is required")

// Backend loads/saves a single string value for a single key.
type Backend interface {
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key, value string) error
}

// Availability is implemented by backends that can report whether a storage
// facility actually sits behind them.
type Availability interface {
	Available() bool
}

// Noop is the backend for hosts without a storage facility.
type Noop struct{}

func (Noop) Load(context.Context, string) (string, bool, error) { return "", false, nil }

func (Noop) Save(context.Context, string, string) error { return nil }

// Available always reports false.
func (Noop) Available() bool { return false }

// Available reports whether backend is a real storage facility.
func Available(backend Backend) bool {
	if backend == nil {
		return false
	}
	if a, ok := backend.(Availability); ok {
		return a.Available()
	}
	return true
}
