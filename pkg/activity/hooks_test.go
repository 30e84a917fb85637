package activity

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

var fixedTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNormalizeEventCopiesAndTrims(t *testing.T) {
	meta := map[string]any{MetaKey: "theme"}
	recipients := []string{"ops"}
	evt := Event{
		Verb:       " " + VerbUpdated + " ",
		ObjectType: ObjectKey + " ",
		ObjectID:   " theme",
		ActorID:    " actor ",
		Channel:    " params ",
		Recipients: recipients,
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != VerbUpdated || got.ObjectType != ObjectKey || got.ObjectID != "theme" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.Channel != "params" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata[MetaKey] = "changed"
	got.Recipients[0] = "changed"
	if meta[MetaKey] != "theme" || recipients[0] != "ops" {
		t.Fatalf("expected inputs untouched: %v %v", meta, recipients)
	}
}

func TestEventKeys(t *testing.T) {
	keyEvent := BuildParamDeletedEvent(ParamEventInput{Key: "volume"})
	if keyEvent.Key() != "volume" || !reflect.DeepEqual(keyEvent.Keys(), []string{"volume"}) {
		t.Fatalf("unexpected key event keys: %q %v", keyEvent.Key(), keyEvent.Keys())
	}

	fileEvent := BuildParamsRefreshedEvent(ParamEventInput{Keys: []string{"a", "b"}})
	keys := fileEvent.Keys()
	if !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Fatalf("unexpected file event keys: %v", keys)
	}
	keys[0] = "changed"
	if fileEvent.Keys()[0] != "a" {
		t.Fatalf("expected Keys to return a copy")
	}

	if (Event{}).Keys() != nil {
		t.Fatalf("expected no keys on empty event")
	}
}

func TestHooksNotifyDropsInvalidEvents(t *testing.T) {
	capture := &CaptureHook{}
	if err := (Hooks{capture}).Notify(context.Background(), Event{Verb: VerbCreated}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		capture,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, BuildParamCreatedEvent(ParamEventInput{Key: "k"}))
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected a non-nil context")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected hooks after a failure to run, got %d events", len(capture.Events))
	}
}

func TestOnlyVerbs(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{OnlyVerbs(capture, VerbDeleted, VerbRefreshed)}

	ctx := context.Background()
	_ = hooks.Notify(ctx, BuildParamCreatedEvent(ParamEventInput{Key: "a"}))
	_ = hooks.Notify(ctx, BuildParamDeletedEvent(ParamEventInput{Key: "a"}))
	_ = hooks.Notify(ctx, BuildParamsRefreshedEvent(ParamEventInput{Keys: []string{"b"}}))

	if got := capture.Verbs(); !reflect.DeepEqual(got, []string{VerbDeleted, VerbRefreshed}) {
		t.Fatalf("unexpected verbs %v", got)
	}
	if err := OnlyVerbs(nil, VerbDeleted).Notify(ctx, Event{Verb: VerbDeleted}); err != nil {
		t.Fatalf("expected nil hook to be ignored, got %v", err)
	}
}

func TestEmitterDisabled(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if emitter.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := emitter.Emit(context.Background(), BuildParamCreatedEvent(ParamEventInput{Key: "k"})); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}
	if NewEmitter(Hooks{nil}, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected nil hooks to be ignored")
	}
}

func TestEmitterAppliesDefaults(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{
		Enabled: true,
		Now:     func() time.Time { return fixedTime },
	})

	if err := emitter.Emit(context.Background(), BuildParamCreatedEvent(ParamEventInput{Key: "k"})); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got := capture.Events[0]; got.Channel != DefaultChannel || !got.OccurredAt.Equal(fixedTime) {
		t.Fatalf("expected default channel and clock, got %q %v", got.Channel, got.OccurredAt)
	}
}

func TestEmitterKeepsExplicitFields(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "device"})

	when := fixedTime.Add(time.Hour)
	err := emitter.Emit(context.Background(), BuildParamCreatedEvent(ParamEventInput{
		Key:        "k",
		Channel:    "custom",
		OccurredAt: when,
	}))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got := capture.Events[0]; got.Channel != "custom" || !got.OccurredAt.Equal(when) {
		t.Fatalf("expected explicit fields preserved, got %q %v", got.Channel, got.OccurredAt)
	}

	capture.Reset()
	_ = emitter.Emit(context.Background(), BuildParamDeletedEvent(ParamEventInput{Key: "k"}))
	if got := capture.Events[0].Channel; got != "device" {
		t.Fatalf("expected configured channel, got %q", got)
	}
}
