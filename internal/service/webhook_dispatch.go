package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pacelink.app/relay/common/id"
	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/internal/activity"
	"pacelink.app/relay/internal/dedupe"
	"pacelink.app/relay/internal/mapper"
	"pacelink.app/relay/internal/model"
	"pacelink.app/relay/internal/service/integration"
)

const DefaultDedupeTTL = 60 * time.Second

type DispatchOutcome string

const (
	DispatchNoop      DispatchOutcome = "noop"
	DispatchDuplicate DispatchOutcome = "duplicate"
	DispatchProcessed DispatchOutcome = "processed"
)

// MalformedEventError is a webhook body or object id that could not be read.
// The delivery is still acknowledged.
type MalformedEventError struct {
	Reason string
	Err    error
}

func (e *MalformedEventError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed webhook event: %s: %v", e.Reason, e.Err)
	}
	return "malformed webhook event: " + e.Reason
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

// DispatchResult records how far one delivery got. Err holds the first stage
// failure; it is logged, never returned to Strava.
type DispatchResult struct {
	DeliveryID int64
	Outcome    DispatchOutcome
	EventType  mapper.CanonicalEventType
	ActivityID int64
	Fetched    bool
	Relayed    bool
	Content    string
	Err        error
}

type WebhookDispatcher interface {
	Dispatch(ctx context.Context, body []byte) DispatchResult
}

type WebhookDispatcherOptions struct {
	Mapper mapper.EventMapper
	Dedupe dedupe.Admitter
	TTL    time.Duration
	Strava integration.StravaClient
	Relay  NotificationRelay
}

type webhookDispatcher struct {
	mapper mapper.EventMapper
	dedupe dedupe.Admitter
	ttl    time.Duration
	strava integration.StravaClient
	relay  NotificationRelay
}

func NewWebhookDispatcher(opts WebhookDispatcherOptions) WebhookDispatcher {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	m := opts.Mapper
	if m == nil {
		m = mapper.NewStravaEventMapper()
	}
	return &webhookDispatcher{
		mapper: m,
		dedupe: opts.Dedupe,
		ttl:    ttl,
		strava: opts.Strava,
		relay:  opts.Relay,
	}
}

func (d *webhookDispatcher) Dispatch(ctx context.Context, body []byte) DispatchResult {
	result := DispatchResult{DeliveryID: id.New(), Outcome: DispatchNoop}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DeliveryID: logger.Ptr(result.DeliveryID),
		Component:  "relay.webhook.dispatcher",
	})

	sc := logger.StartSpan(ctx, "webhook.dispatch")
	defer sc.End()
	ctx = sc.Context()

	d.run(ctx, body, &result)

	sc.SetAttributes(
		attribute.String("outcome", string(result.Outcome)),
		attribute.Bool("fetched", result.Fetched),
		attribute.Bool("relayed", result.Relayed),
	)
	if result.Err != nil {
		sc.RecordError(result.Err)
	}

	slog.InfoContext(ctx, "webhook delivery dispatched",
		"outcome", result.Outcome,
		"fetched", result.Fetched,
		"relayed", result.Relayed,
		"error", result.Err)
	return result
}

// run walks the stages in order and stops at the first one that ends the
// delivery. Every exit leaves result describing the outcome.
func (d *webhookDispatcher) run(ctx context.Context, body []byte, result *DispatchResult) {
	var event model.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		result.Err = &MalformedEventError{Reason: "body is not a json object", Err: err}
		slog.WarnContext(ctx, "webhook body unreadable, treating as empty event", "error", err)
		return
	}

	eventType, err := d.mapper.Map(ctx, &event)
	if err != nil {
		slog.DebugContext(ctx, "ignoring webhook event", "reason", err)
		return
	}
	result.EventType = eventType
	ctx = logger.WithLogFields(ctx, logger.LogFields{EventType: logger.Ptr(string(eventType))})

	if eventType == mapper.EventAthleteDeauthorized {
		slog.WarnContext(ctx, "athlete revoked strava access",
			"owner_id", event.OwnerID)
	}
	if !eventType.Notifies() {
		return
	}

	activityID, err := event.ActivityID()
	if err != nil {
		result.Err = &MalformedEventError{Reason: "object_id", Err: err}
		slog.WarnContext(ctx, "webhook object_id unreadable", "error", err)
		return
	}
	result.ActivityID = activityID
	ctx = logger.WithLogFields(ctx, logger.LogFields{ActivityID: logger.Ptr(activityID)})

	if !d.dedupe.Admit(ctx, model.DedupeKey(event.AspectType, activityID), d.ttl) {
		result.Outcome = DispatchDuplicate
		return
	}
	result.Outcome = DispatchProcessed

	raw, err := d.strava.GetActivity(ctx, activityID)
	if err != nil {
		result.Err = fmt.Errorf("fetching activity: %w", err)
		slog.ErrorContext(ctx, "failed to fetch activity for notification", "error", err)
		return
	}
	result.Fetched = true

	result.Content = activity.Analyze(*raw).Content
	if result.Content == "" {
		slog.InfoContext(ctx, "no notification content, skipping relay")
		return
	}

	if err := d.relay.Send(ctx, result.Content); err != nil {
		result.Err = err
		var relayErr *RelayError
		if errors.As(err, &relayErr) && relayErr.Reason == RelayMissingAPIKey {
			slog.InfoContext(ctx, "notification relay not configured, skipping")
			return
		}
		slog.ErrorContext(ctx, "failed to relay notification", "error", err)
		return
	}
	result.Relayed = true
}
