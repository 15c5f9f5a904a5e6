package rolestate

import (
	"context"
	"io"
	"sync"

	"github.com/goliatone/go-rolestate/pkg/activity"
	"github.com/goliatone/go-rolestate/pkg/state"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Listener is invoked after every role switch. It receives no value: the
// notification only says something changed, call Store.Current for the role.
type Listener func()

// Token identifies one subscription. The zero Token identifies nothing.
type Token struct {
	id uuid.UUID
}

// IsZero reports whether t is the zero Token.
func (t Token) IsZero() bool {
	return t.id == uuid.Nil
}

func (t Token) String() string {
	return t.id.String()
}

type subscription struct {
	token  Token
	fn     Listener
	active bool
}

type transition struct {
	from Role
	to   Role
}

// Store holds the active role, the ordered listener registry and the
// persistence shim. Construct one per application and hand it to whatever
// needs the role; there is no package-level instance.
//
// All methods are safe for concurrent use. Fan-out rounds never overlap: a
// Switch issued while a round is running (from a listener or another
// goroutine) applies its mutation immediately and its round runs right after
// the current one.
type Store struct {
	mu        sync.Mutex
	role      Role
	entries   []*subscription
	queue     []transition
	notifying bool

	shim    *state.Shim
	key     string
	logger  *zap.Logger
	emitter *activity.Emitter
	actorID string
	tenant  string
	metrics Metrics
}

// New builds a Store and resolves its initial role from persistence: an
// exact "student" or "coach" under the storage key is adopted, anything else
// falls back to DefaultRole.
func New(opts ...Option) *Store {
	cfg := applyStoreOptions(opts)
	s := &Store{
		key:     cfg.key,
		logger:  cfg.logger,
		emitter: cfg.emitter,
		actorID: cfg.actorID,
		tenant:  cfg.tenant,
		metrics: cfg.metrics,
	}
	s.shim = state.NewShim(cfg.backend,
		state.WithLogger(cfg.logger.Named("persistence")),
		state.WithFailureFunc(func(op state.Op, _ string, _ error) {
			s.metrics.PersistFailed(string(op))
		}),
	)
	s.role = s.restore()
	return s
}

func (s *Store) restore() Role {
	value, ok := s.shim.Read(s.key)
	if !ok {
		return DefaultRole
	}
	role, valid := roleFromStorage(value)
	if !valid {
		s.logger.Warn("discarding unrecognized persisted role",
			zap.String("key", s.key),
			zap.String("value", value),
			zap.Stringer("fallback", DefaultRole),
		)
		return DefaultRole
	}
	s.logger.Debug("restored persisted role", zap.Stringer("role", role))
	s.report(activity.VerbRoleRestored, s.emitter.RoleRestored(context.Background(), s.eventInput("", role)))
	return role
}

// Current returns the active role.
func (s *Store) Current() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Persistent reports whether role switches reach a storage facility.
func (s *Store) Persistent() bool {
	return s.shim.Available()
}

// Switch makes next the active role, persists it best-effort, then invokes
// every registered listener in subscription order. Invalid roles are rejected
// with an *InvalidRoleError before anything changes. Persistence failures and
// panicking listeners are logged and never returned.
func (s *Store) Switch(next Role) error {
	if !next.Valid() {
		return &InvalidRoleError{Value: string(next)}
	}

	s.mu.Lock()
	prev := s.role
	s.role = next
	s.queue = append(s.queue, transition{from: prev, to: next})
	if s.notifying {
		s.mu.Unlock()
		return nil
	}
	s.notifying = true
	s.mu.Unlock()

	s.drain()
	return nil
}

// SwitchString parses input and switches to it.
func (s *Store) SwitchString(input string) error {
	role, err := ParseRole(input)
	if err != nil {
		return err
	}
	return s.Switch(role)
}

// Subscribe appends fn to the registry and returns the token that removes
// exactly this registration. Subscribing the same function twice creates two
// registrations. A nil fn is ignored and yields the zero Token.
func (s *Store) Subscribe(fn Listener) Token {
	if fn == nil {
		return Token{}
	}
	sub := &subscription{
		token:  Token{id: uuid.New()},
		fn:     fn,
		active: true,
	}
	s.mu.Lock()
	s.entries = append(s.entries, sub)
	n := len(s.entries)
	s.mu.Unlock()

	s.metrics.SubscribersChanged(n)
	return sub.token
}

// Unsubscribe removes the registration for tok. Unknown, zero or already
// removed tokens are ignored.
func (s *Store) Unsubscribe(tok Token) {
	if tok.IsZero() {
		return
	}
	s.mu.Lock()
	removed := false
	for i, sub := range s.entries {
		if sub.token == tok {
			sub.active = false
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			removed = true
			break
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	if removed {
		s.metrics.SubscribersChanged(n)
	}
}

// Subscribers returns the number of live registrations.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close releases the persistence backend when it holds resources. The store
// keeps serving the in-memory role afterwards; later writes are dropped.
func (s *Store) Close() error {
	if closer, ok := s.shim.Backend().(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Store) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.queue = nil
			s.notifying = false
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.deliver(t)
	}
}

func (s *Store) deliver(t transition) {
	s.shim.Write(s.key, string(t.to))

	s.mu.Lock()
	round := make([]*subscription, len(s.entries))
	copy(round, s.entries)
	s.mu.Unlock()

	for _, sub := range round {
		if !s.isActive(sub) {
			continue
		}
		s.invoke(sub)
	}

	s.metrics.RoleSwitched(t.to)
	s.logger.Debug("role switched",
		zap.Stringer("from", t.from),
		zap.Stringer("to", t.to),
		zap.Int("listeners", len(round)),
	)
	s.report(activity.VerbRoleSwitched, s.emitter.RoleSwitched(context.Background(), s.eventInput(t.from, t.to)))
}

// isActive skips listeners unsubscribed earlier in the same round.
func (s *Store) isActive(sub *subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sub.active
}

func (s *Store) invoke(sub *subscription) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.ListenerPanicked()
			s.logger.Error("role listener panicked",
				zap.Stringer("token", sub.token),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	sub.fn()
}

func (s *Store) eventInput(from, to Role) activity.RoleEventInput {
	return activity.RoleEventInput{
		ActorID:  s.actorID,
		TenantID: s.tenant,
		From:     string(from),
		To:       string(to),
		Key:      s.key,
	}
}

// report logs a failed activity hook. Hooks never affect the switch.
func (s *Store) report(verb string, err error) {
	if err != nil {
		s.logger.Warn("role activity hook failed", zap.String("verb", verb), zap.Error(err))
	}
}
