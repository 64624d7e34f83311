package mapper

import (
	"context"
	"fmt"

	"pacelink.app/relay/internal/model"
)

type StravaEventMapper struct{}

func NewStravaEventMapper() *StravaEventMapper {
	return &StravaEventMapper{}
}

func (m *StravaEventMapper) Map(ctx context.Context, event *model.WebhookEvent) (CanonicalEventType, error) {
	if event == nil {
		return "", fmt.Errorf("nil strava event")
	}

	canonicalType := m.mapStravaEvent(event)
	if canonicalType == "" {
		return "", fmt.Errorf("unknown strava event type: object_type=%q aspect_type=%q", event.ObjectType, event.AspectType)
	}

	return canonicalType, nil
}

func (m *StravaEventMapper) mapStravaEvent(event *model.WebhookEvent) CanonicalEventType {
	switch event.ObjectType {
	case model.ObjectTypeActivity:
		switch event.AspectType {
		case model.AspectCreate:
			return EventActivityCreated
		case model.AspectUpdate:
			return EventActivityUpdated
		case model.AspectDelete:
			return EventActivityDeleted
		}
	case model.ObjectTypeAthlete:
		// Strava signals revoked access as an athlete update with authorized=false.
		if event.AspectType == model.AspectUpdate {
			if event.Updates["authorized"] == "false" {
				return EventAthleteDeauthorized
			}
			return EventAthleteUpdated
		}
	}

	return ""
}
