package state

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// AsyncOption configures an AsyncBackend.
type AsyncOption func(*AsyncBackend)

// AsyncWithLogger sets the logger used for failed background saves.
func AsyncWithLogger(logger *zap.Logger) AsyncOption {
	return func(a *AsyncBackend) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// AsyncWithFailureFunc observes failed background saves.
func AsyncWithFailureFunc(fn FailureFunc) AsyncOption {
	return func(a *AsyncBackend) {
		a.onFailure = fn
	}
}

// AsyncBackend accepts Save calls immediately and applies them to the wrapped
// backend on a single worker goroutine. Pending saves for the same key are
// coalesced, only the latest value is written. Load sees pending values.
type AsyncBackend struct {
	next      Backend
	logger    *zap.Logger
	onFailure FailureFunc

	mu       sync.Mutex
	pending  map[string]string
	order    []string
	inflight map[string]string
	closed   bool

	wake      chan struct{}
	flush     chan chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsyncBackend starts the worker goroutine. Call Close to stop it.
func NewAsyncBackend(next Backend, opts ...AsyncOption) *AsyncBackend {
	if next == nil {
		next = Noop{}
	}
	a := &AsyncBackend{
		next:     next,
		logger:   zap.NewNop(),
		pending:  map[string]string{},
		inflight: map[string]string{},
		wake:     make(chan struct{}, 1),
		flush:    make(chan chan struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	go a.run()
	return a
}

// Available mirrors the wrapped backend.
func (a *AsyncBackend) Available() bool {
	return Available(a.next)
}

func (a *AsyncBackend) Load(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	a.mu.Lock()
	if value, ok := a.pending[key]; ok {
		a.mu.Unlock()
		return value, true, nil
	}
	if value, ok := a.inflight[key]; ok {
		a.mu.Unlock()
		return value, true, nil
	}
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return "", false, ErrClosed
	}
	return a.next.Load(ctx, key)
}

// Save queues value for key and returns without waiting for the write.
func (a *AsyncBackend) Save(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if _, queued := a.pending[key]; !queued {
		a.order = append(a.order, key)
	}
	a.pending[key] = value
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush blocks until every save queued before the call has been applied, or
// ctx is done.
func (a *AsyncBackend) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case a.flush <- ack:
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending saves, stops the worker and closes the wrapped backend
// when it implements io.Closer.
func (a *AsyncBackend) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		close(a.stop)
		<-a.done
		if closer, ok := a.next.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (a *AsyncBackend) run() {
	defer close(a.done)
	for {
		select {
		case <-a.wake:
			a.drain()
		case ack := <-a.flush:
			a.drain()
			close(ack)
		case <-a.stop:
			a.drain()
			return
		}
	}
}

func (a *AsyncBackend) drain() {
	for {
		a.mu.Lock()
		if len(a.order) == 0 {
			a.mu.Unlock()
			return
		}
		order := a.order
		batch := a.pending
		a.order = nil
		a.pending = map[string]string{}
		a.inflight = batch
		a.mu.Unlock()

		for _, key := range order {
			if err := a.saveOne(key, batch[key]); err != nil {
				a.logger.Warn("background save failed", zap.String("key", key), zap.Error(err))
				if a.onFailure != nil {
					a.onFailure(OpWrite, key, err)
				}
			}
		}

		a.mu.Lock()
		a.inflight = map[string]string{}
		a.mu.Unlock()
	}
}

// saveOne writes a single key, converting a backend panic into an error so
// the worker survives it.
func (a *AsyncBackend) saveOne(key, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("state: backend panic: %v", r)
		}
	}()
	return a.next.Save(context.Background(), key, value)
}
