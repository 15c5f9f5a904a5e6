package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is one audit record about a user's role. IDs are plain strings so
// callers do not need a UUID type; sinks parse them when they care.
type Event struct {
	Verb       string
	ActorID    string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// routable reports whether the event names what happened and to what.
func (e Event) routable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalized activity events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn. A nil HookFunc does nothing.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks is an ordered fan-out list.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and hands it to every hook in order. A hook that
// fails or panics does not stop the ones after it; all failures come back
// joined. Events missing a verb, object type or object id are dropped.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = NormalizeEvent(event)
	if !event.routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := deliver(ctx, i, hook, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h Hooks) compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

func deliver(ctx context.Context, index int, hook ActivityHook, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activity: hook %d panicked: %v", index, r)
		}
	}()
	return hook.Notify(ctx, event)
}

// NormalizeEvent returns a copy of event with surrounding whitespace removed
// from every identifier, its own metadata map, and a timestamp.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb,
		&event.ActorID,
		&event.TenantID,
		&event.ObjectType,
		&event.ObjectID,
		&event.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMap(event.Metadata)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
