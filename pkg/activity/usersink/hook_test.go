package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-rolestate/pkg/activity"
	"github.com/goliatone/go-rolestate/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsRoleSwitch(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildRoleSwitchedEvent(activity.RoleEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		From:       "student",
		To:         "coach",
		Key:        "userRole",
		Channel:    "roles",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != actorID {
		t.Fatalf("expected actor/user %s got %s/%s", actorID, record.ActorID, record.UserID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.Verb != activity.VerbRoleSwitched || record.ObjectType != activity.ObjectTypeRole || record.ObjectID != "userRole" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "roles" {
		t.Fatalf("expected channel roles got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["from"] != "student" || record.Data["to"] != "coach" {
		t.Fatalf("expected transition data, got %v", record.Data)
	}
}

func TestHookNotifyKeepsNonUUIDActorReference(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.BuildRoleSwitchedEvent(activity.RoleEventInput{
		ActorID: "device-7",
		To:      "coach",
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil uuid for non-uuid actor, got %s", record.ActorID)
	}
	if record.Data["actor_ref"] != "device-7" {
		t.Fatalf("expected actor_ref passthrough, got %v", record.Data["actor_ref"])
	}
}

func TestHookNotifySkipsEmptyEventsAndNilSink(t *testing.T) {
	sink := &recordingSink{}
	_ = usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}

	if err := (usersink.Hook{}).Notify(context.Background(), activity.BuildRoleSwitchedEvent(activity.RoleEventInput{To: "coach"})); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}

func TestHookVerbFilter(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbRoleSwitched}}

	restored := activity.BuildRoleRestoredEvent(activity.RoleEventInput{To: "coach", Key: "userRole"})
	switched := activity.BuildRoleSwitchedEvent(activity.RoleEventInput{From: "coach", To: "student", Key: "userRole"})
	for _, event := range []activity.Event{restored, switched} {
		if err := hook.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(sink.records) != 1 || sink.records[0].Verb != activity.VerbRoleSwitched {
		t.Fatalf("expected only the switch to be forwarded, got %+v", sink.records)
	}
}

func TestRecordKeepsNonUUIDTenantAndSkipsUnroutable(t *testing.T) {
	record, ok := usersink.Record(activity.BuildRoleSwitchedEvent(activity.RoleEventInput{
		TenantID: "club-7",
		To:       "coach",
		Key:      "userRole",
	}))
	if !ok {
		t.Fatalf("expected role event to map")
	}
	if record.TenantID != uuid.Nil || record.Data["tenant_ref"] != "club-7" {
		t.Fatalf("expected tenant_ref passthrough, got %s %v", record.TenantID, record.Data)
	}
	if _, present := record.Data["actor_ref"]; present {
		t.Fatalf("empty actor must not produce actor_ref: %v", record.Data)
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be filled")
	}

	if _, ok := usersink.Record(activity.Event{Verb: "role.switched"}); ok {
		t.Fatalf("event without object must not map")
	}
}
