package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
)

// ActivityRecorder subscribes to account events and persists them as
// activity log rows for the admin console's activity views.
type ActivityRecorder struct {
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityRecorder builds the recorder.
func NewActivityRecorder(activity repository.ActivityRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{activity: activity, dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes the recorder to every emitted event type.
func (r *ActivityRecorder) RegisterHandlers() {
	for _, eventType := range events.AllTypes() {
		r.dispatcher.Subscribe(eventType, r.record)
	}
}

func (r *ActivityRecorder) record(ctx context.Context, event events.Event) error {
	entry := &domain.ActivityLog{
		ID:        event.ID,
		UserID:    event.UserID,
		ActorID:   event.ActorID,
		Action:    string(event.Type),
		Details:   event.Details,
		CreatedAt: event.Timestamp,
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	if err := r.activity.Insert(ctx, entry); err != nil {
		r.logger.Warn("failed to record activity",
			zap.String("action", entry.Action),
			zap.String("user_id", entry.UserID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
