package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/activity/usersink"
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

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()
	objectID := uuid.New().String()

	event := activity.Event{
		Verb:           "params.updated",
		ActorID:        actorID.String(),
		UserID:         userID.String(),
		TenantID:       tenantID.String(),
		ObjectType:     "params.key",
		ObjectID:       objectID,
		Channel:        "params",
		DefinitionCode: "params:update",
		Recipients:     []string{"recipient@example.com"},
		Metadata: map[string]any{
			"key": "theme",
		},
		OccurredAt: now,
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, record.UserID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.Verb != "params.updated" || record.ObjectType != "params.key" || record.ObjectID != objectID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "params" {
		t.Fatalf("expected channel params got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "params:update" {
		t.Fatalf("expected definition_code metadata got %v", record.Data["definition_code"])
	}
	if record.Data["key"] != "theme" {
		t.Fatalf("expected metadata passthrough got %v", record.Data["key"])
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "recipient@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "params.created",
		ObjectType: "params.key",
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookDerivesActorFromInstallation(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Installation: "a1B2c3D4e5F6g7H"}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "params.deleted",
		ObjectType: "params.key",
		ObjectID:   "theme",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	want := usersink.InstallationUUID("a1B2c3D4e5F6g7H")
	if want == uuid.Nil || sink.records[0].ActorID != want {
		t.Fatalf("expected derived actor %s got %s", want, sink.records[0].ActorID)
	}
	if usersink.InstallationUUID("a1B2c3D4e5F6g7H") != want {
		t.Fatalf("expected derived actor to be stable")
	}
	if sink.records[0].Data["installation"] != "a1B2c3D4e5F6g7H" {
		t.Fatalf("expected installation metadata got %v", sink.records[0].Data["installation"])
	}
}

func TestHookFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{"params.migrated"}}

	_ = hook.Notify(context.Background(), activity.Event{Verb: "params.updated", ObjectType: "params.key", ObjectID: "x"})
	_ = hook.Notify(context.Background(), activity.Event{Verb: "params.migrated", ObjectType: "params.file", ObjectID: "/tmp/p.json"})

	if len(sink.records) != 1 || sink.records[0].Verb != "params.migrated" {
		t.Fatalf("expected only migrated record, got %+v", sink.records)
	}
}
