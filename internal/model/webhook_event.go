package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	ObjectTypeActivity = "activity"
	ObjectTypeAthlete  = "athlete"

	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"
)

// WebhookEvent is the push payload Strava sends to the subscription callback.
// ObjectID stays raw until ActivityID validates it: Strava sends a JSON
// integer, some proxies re-encode it as a string.
type WebhookEvent struct {
	ObjectType     string            `json:"object_type"`
	AspectType     string            `json:"aspect_type"`
	ObjectID       json.RawMessage   `json:"object_id"`
	OwnerID        int64             `json:"owner_id"`
	SubscriptionID int64             `json:"subscription_id"`
	EventTime      int64             `json:"event_time"`
	Updates        map[string]string `json:"updates,omitempty"`
}

// IsActivityUpsert reports whether the event is an activity create or update,
// the only events that trigger a notification.
func (e *WebhookEvent) IsActivityUpsert() bool {
	if e.ObjectType != ObjectTypeActivity {
		return false
	}
	return e.AspectType == AspectCreate || e.AspectType == AspectUpdate
}

// ActivityID parses ObjectID as a JSON integer or a numeric string.
func (e *WebhookEvent) ActivityID() (int64, error) {
	raw := bytes.TrimSpace(e.ObjectID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("object_id missing")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("object_id: %w", err)
		}
		raw = []byte(strings.TrimSpace(s))
	}

	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("object_id %q is not an integer", string(raw))
	}
	return id, nil
}

// DedupeKey is "<aspect>:<object_id>", so a create and a later update of the
// same activity are distinct deliveries.
func DedupeKey(aspect string, objectID int64) string {
	return aspect + ":" + strconv.FormatInt(objectID, 10)
}
