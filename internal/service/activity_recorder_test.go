package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/events"
)

func TestActivityRecorder_PersistsPublishedEvents(t *testing.T) {
	activity := newFakeActivityRepo()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	recorder := NewActivityRecorder(activity, dispatcher, zap.NewNop())
	recorder.RegisterHandlers()

	actorID := "admin-1"
	err := dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-1",
		Type:      events.EventRoleChanged,
		UserID:    "user-1",
		ActorID:   &actorID,
		Timestamp: time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC),
		Details:   map[string]any{"old_role": "user", "new_role": "admin"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	entries, err := activity.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Action != string(events.EventRoleChanged) {
		t.Fatalf("unexpected action %q", entry.Action)
	}
	if entry.ActorID == nil || *entry.ActorID != actorID {
		t.Fatalf("unexpected actor %v", entry.ActorID)
	}
	if entry.Details["new_role"] != "admin" {
		t.Fatalf("details not carried: %v", entry.Details)
	}
}
