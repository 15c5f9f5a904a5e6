package activity

import (
	"strings"
	"time"
)

const (
	VerbRoleSwitched = "role.switched"
	VerbRoleRestored = "role.restored"

	ObjectTypeRole = "user_role"
)

// RoleEventInput describes a role transition. Roles are plain strings so this
// package stays independent from the store.
type RoleEventInput struct {
	ActorID    string
	TenantID   string
	From       string
	To         string
	Key        string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildRoleSwitchedEvent constructs the event emitted after an explicit switch.
func BuildRoleSwitchedEvent(input RoleEventInput) Event {
	return buildRoleEvent(VerbRoleSwitched, input)
}

// BuildRoleRestoredEvent constructs the event emitted when a store adopts a
// persisted role at startup.
func BuildRoleRestoredEvent(input RoleEventInput) Event {
	return buildRoleEvent(VerbRoleRestored, input)
}

func buildRoleEvent(verb string, input RoleEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if from := strings.TrimSpace(input.From); from != "" {
		metadata["from"] = from
	}
	metadata["to"] = strings.TrimSpace(input.To)

	objectID := strings.TrimSpace(input.Key)
	if objectID == "" {
		objectID = strings.TrimSpace(input.ActorID)
	}
	if objectID == "" {
		objectID = ObjectTypeRole
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeRole,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
