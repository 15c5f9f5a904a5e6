// Package usersink forwards role activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-rolestate/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts role activity events to a go-users ActivitySink. The actor is
// also recorded as the user whose role changed.
type Hook struct {
	Sink usertypes.ActivitySink
	// Verbs restricts forwarding to the listed verbs. Empty forwards all.
	Verbs []string
}

// Notify forwards event to the sink when it is routable and its verb is
// selected.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil || !h.selects(event.Verb) {
		return nil
	}
	record, ok := Record(event)
	if !ok {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) selects(verb string) bool {
	if len(h.Verbs) == 0 {
		return true
	}
	verb = strings.TrimSpace(verb)
	for _, v := range h.Verbs {
		if v == verb {
			return true
		}
	}
	return false
}

// Record maps event onto an ActivityRecord. Identifiers that are not UUIDs
// are kept in Data under actor_ref / tenant_ref. It reports false for events
// missing a verb, object type or object id.
func Record(event activity.Event) (usertypes.ActivityRecord, bool) {
	event = activity.NormalizeEvent(event)
	if event.Verb == "" || event.ObjectType == "" || event.ObjectID == "" {
		return usertypes.ActivityRecord{}, false
	}

	data := event.Metadata
	if data == nil {
		data = map[string]any{}
	}
	actor, ok := parseID(event.ActorID)
	if !ok {
		data["actor_ref"] = event.ActorID
	}
	tenant, ok := parseID(event.TenantID)
	if !ok {
		data["tenant_ref"] = event.TenantID
	}
	if len(data) == 0 {
		data = nil
	}

	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return usertypes.ActivityRecord{
		ActorID:    actor,
		UserID:     actor,
		TenantID:   tenant,
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: occurred,
	}, true
}

// parseID parses a UUID. Empty input is ok and yields uuid.Nil; anything
// else that fails to parse is reported as not ok.
func parseID(input string) (uuid.UUID, bool) {
	if input == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(input)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
