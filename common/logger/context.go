package logger

import (
	"context"
	"strconv"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// A webhook delivery enriches the context once and every downstream log line
// (fetch, analysis, relay) carries the delivery and activity ids.
type LogFields struct {
	DeliveryID     *int64  // Snowflake id assigned to one inbound webhook delivery
	ActivityID     *int64  // Strava activity id
	EventType      *string // Canonical event type (e.g., "activity_created")
	InstallationID *string // Credential installation key
	Tool           *string // Tool endpoint name
	Component      string  // Component name (OTel semantic convention style, e.g., "relay.webhook.dispatcher")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.DeliveryID != nil {
		result.DeliveryID = next.DeliveryID
	}
	if next.ActivityID != nil {
		result.ActivityID = next.ActivityID
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.InstallationID != nil {
		result.InstallationID = next.InstallationID
	}
	if next.Tool != nil {
		result.Tool = next.Tool
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{ActivityID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Upstream response bodies are truncated before they reach a log line.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Mask shows the first few characters of a secret and its length, for startup logs.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "…(len " + strconv.Itoa(len(s)) + ")"
	}
	return s[:4] + "…(len " + strconv.Itoa(len(s)) + ")"
}
