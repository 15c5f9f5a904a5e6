package rolestate

import (
	"context"
	"sync"
)

// Binding is a consumer's live view of the role: a local snapshot that is
// refreshed on every switch until Close is called. Close is mandatory when
// the consumer goes away, otherwise its listener stays registered.
type Binding struct {
	store    *Store
	onChange func(Role)

	mu     sync.Mutex
	token  Token
	role   Role
	closed bool
}

// Bind subscribes to store and takes the initial snapshot. onChange, when
// non-nil, runs after every refresh with the new snapshot.
func Bind(store *Store, onChange func(Role)) *Binding {
	b := &Binding{store: store, onChange: onChange}

	// Holding b.mu across subscribe+read means a switch racing with Bind
	// refreshes after the initial read, never before it.
	b.mu.Lock()
	b.token = store.Subscribe(b.refresh)
	b.role = store.Current()
	b.mu.Unlock()
	return b
}

// Role returns the local snapshot.
func (b *Binding) Role() Role {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.role
}

// Token returns the subscription token held by the binding.
func (b *Binding) Token() Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// Close unsubscribes. It is safe to call more than once.
func (b *Binding) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	tok := b.token
	b.mu.Unlock()

	b.store.Unsubscribe(tok)
}

func (b *Binding) refresh() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	role := b.store.Current()
	b.role = role
	onChange := b.onChange
	b.mu.Unlock()

	if onChange != nil {
		onChange(role)
	}
}

// Watch delivers the current role and then every new role on the returned
// channel until ctx is done, at which point the subscription is removed and
// the channel closed. A slow reader only ever sees the latest role.
func Watch(ctx context.Context, store *Store) <-chan Role {
	w := &watcher{ch: make(chan Role, 1)}

	// Refreshes block on w.mu until the initial snapshot is queued, so they
	// can only replace it with a newer role.
	w.mu.Lock()
	b := Bind(store, w.send)
	w.push(b.Role())
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.Close()
		w.close()
	}()
	return w.ch
}

type watcher struct {
	mu     sync.Mutex
	ch     chan Role
	closed bool
}

func (w *watcher) send(role Role) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.push(role)
}

func (w *watcher) push(role Role) {
	select {
	case w.ch <- role:
		return
	default:
	}
	// Buffer full: replace the stale value.
	select {
	case <-w.ch:
	default:
	}
	w.ch <- role
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
}
