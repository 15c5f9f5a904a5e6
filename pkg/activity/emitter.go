package activity

import (
	"context"
	"strings"
	"time"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "roles"

// Config controls what an Emitter stamps onto events that leave a field
// empty. A disabled emitter drops everything.
type Config struct {
	Enabled  bool
	Channel  string
	ActorID  string
	TenantID string
	Clock    func() time.Time
}

// Emitter delivers role events to a fixed set of hooks.
type Emitter struct {
	hooks    Hooks
	channel  string
	actorID  string
	tenantID string
	clock    func() time.Time
}

// NewEmitter drops nil hooks and returns an emitter that is enabled only when
// cfg.Enabled is set and at least one hook remains.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{
		channel:  strings.TrimSpace(cfg.Channel),
		actorID:  strings.TrimSpace(cfg.ActorID),
		tenantID: strings.TrimSpace(cfg.TenantID),
		clock:    cfg.Clock,
	}
	if cfg.Enabled {
		e.hooks = hooks.compact()
	}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e
}

// Enabled reports whether Emit reaches any hook. Safe on a nil receiver.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit stamps defaults onto event and forwards it to every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	return e.hooks.Notify(ctx, e.stamp(event))
}

// RoleSwitched emits a role.switched event for input.
func (e *Emitter) RoleSwitched(ctx context.Context, input RoleEventInput) error {
	if !e.Enabled() {
		return nil
	}
	return e.Emit(ctx, BuildRoleSwitchedEvent(input))
}

// RoleRestored emits a role.restored event for input.
func (e *Emitter) RoleRestored(ctx context.Context, input RoleEventInput) error {
	if !e.Enabled() {
		return nil
	}
	return e.Emit(ctx, BuildRoleRestoredEvent(input))
}

func (e *Emitter) stamp(event Event) Event {
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.actorID
	}
	if strings.TrimSpace(event.TenantID) == "" {
		event.TenantID = e.tenantID
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.clock()
	}
	return event
}
