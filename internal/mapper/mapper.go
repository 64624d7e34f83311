package mapper

import (
	"context"

	"pacelink.app/relay/internal/model"
)

type CanonicalEventType string

const (
	EventActivityCreated     CanonicalEventType = "activity_created"
	EventActivityUpdated     CanonicalEventType = "activity_updated"
	EventActivityDeleted     CanonicalEventType = "activity_deleted"
	EventAthleteDeauthorized CanonicalEventType = "athlete_deauthorized"
	EventAthleteUpdated      CanonicalEventType = "athlete_updated"
)

// Notifies reports whether an event of this type produces a notification.
func (t CanonicalEventType) Notifies() bool {
	return t == EventActivityCreated || t == EventActivityUpdated
}

type EventMapper interface {
	Map(ctx context.Context, event *model.WebhookEvent) (CanonicalEventType, error)
}
