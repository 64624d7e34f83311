package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/internal/activity"
	"pacelink.app/relay/internal/model"
	"pacelink.app/relay/internal/service/integration"
)

type ToolStatus string

const (
	ToolSuccess       ToolStatus = "success"
	ToolError         ToolStatus = "error"
	ToolAlreadyExists ToolStatus = "already_exists"
	ToolNone          ToolStatus = "none"
)

const (
	maxRecentActivities = 100
	weeklyFetchSize     = 200
	defaultDateLimit    = 30
)

// ToolResult is the uniform envelope every tool endpoint returns. Err is the
// underlying failure, kept for status mapping and never serialized.
type ToolResult struct {
	Status  ToolStatus `json:"status"`
	Error   string     `json:"error,omitempty"`
	Content string     `json:"content,omitempty"`
	Data    any        `json:"data,omitempty"`
	Err     error      `json:"-"`
}

type ToolService interface {
	RecentActivities(ctx context.Context, limit int) ToolResult
	AnalyzeActivity(ctx context.Context, activityID int64) ToolResult
	WeeklySummary(ctx context.Context, includeContent bool) ToolResult
	ActivitiesByDate(ctx context.Context, query activity.DateQuery, limit int) ToolResult
	Athlete(ctx context.Context) ToolResult
	CreateSubscription(ctx context.Context) ToolResult
	ListSubscriptions(ctx context.Context) ToolResult
	DeleteSubscription(ctx context.Context, subscriptionID int64) ToolResult
}

type ToolServiceOptions struct {
	Strava        integration.StravaClient
	Subscriptions integration.SubscriptionClient
	CallbackURL   string
	VerifyToken   string
	Now           func() time.Time
}

type toolService struct {
	strava        integration.StravaClient
	subscriptions integration.SubscriptionClient
	callbackURL   string
	verifyToken   string
	now           func() time.Time
}

func NewToolService(opts ToolServiceOptions) ToolService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &toolService{
		strava:        opts.Strava,
		subscriptions: opts.Subscriptions,
		callbackURL:   opts.CallbackURL,
		verifyToken:   opts.VerifyToken,
		now:           now,
	}
}

func (s *toolService) RecentActivities(ctx context.Context, limit int) ToolResult {
	ctx = withTool(ctx, "recent_activities")
	limit = max(1, min(limit, maxRecentActivities))

	raw, err := s.strava.ListActivities(ctx, integration.ListActivitiesParams{PerPage: limit})
	if err != nil {
		return toolFailure(ctx, "fetching recent activities", err)
	}
	recent := activity.NewRecent(raw)
	return ToolResult{
		Status:  ToolSuccess,
		Content: recentContent(recent),
		Data:    recent,
	}
}

func (s *toolService) AnalyzeActivity(ctx context.Context, activityID int64) ToolResult {
	ctx = withTool(ctx, "analyze_activity")
	ctx = logger.WithLogFields(ctx, logger.LogFields{ActivityID: logger.Ptr(activityID)})

	raw, err := s.strava.GetActivity(ctx, activityID)
	if err != nil {
		return toolFailure(ctx, "fetching activity", err)
	}
	analysis := activity.Analyze(*raw)
	return ToolResult{
		Status:  ToolSuccess,
		Content: analysis.Content,
		Data:    analysis,
	}
}

func (s *toolService) WeeklySummary(ctx context.Context, includeContent bool) ToolResult {
	ctx = withTool(ctx, "weekly_summary")

	raw, err := s.strava.ListActivities(ctx, integration.ListActivitiesParams{PerPage: weeklyFetchSize})
	if err != nil {
		return toolFailure(ctx, "fetching weekly activities", err)
	}
	weekly := activity.NewWeekly(s.now(), raw, includeContent)
	return ToolResult{
		Status:  ToolSuccess,
		Content: weekly.Content,
		Data:    weekly,
	}
}

func (s *toolService) ActivitiesByDate(ctx context.Context, query activity.DateQuery, limit int) ToolResult {
	ctx = withTool(ctx, "activities_by_date")
	if limit <= 0 {
		limit = defaultDateLimit
	}

	window, err := query.Resolve()
	if err != nil {
		return ToolResult{Status: ToolError, Error: err.Error(), Content: err.Error(), Err: err}
	}

	raw, err := s.strava.ListActivities(ctx, integration.ListActivitiesParams{
		PerPage: limit,
		After:   &window.After,
		Before:  &window.Before,
	})
	if err != nil {
		return toolFailure(ctx, "fetching activities by date", err)
	}
	report := activity.NewDateReport(window, raw)
	return ToolResult{
		Status:  ToolSuccess,
		Content: report.Content,
		Data:    report,
	}
}

func (s *toolService) Athlete(ctx context.Context) ToolResult {
	ctx = withTool(ctx, "athlete")

	athlete, err := s.strava.GetAthlete(ctx)
	if err != nil {
		return toolFailure(ctx, "fetching athlete", err)
	}
	name := strings.TrimSpace(athlete.Firstname + " " + athlete.Lastname)
	return ToolResult{
		Status:  ToolSuccess,
		Content: fmt.Sprintf("Connected as %s (athlete %d)", name, athlete.ID),
		Data:    athlete,
	}
}

func (s *toolService) CreateSubscription(ctx context.Context) ToolResult {
	ctx = withTool(ctx, "create_webhook_subscription")

	res, err := s.subscriptions.Create(ctx, s.callbackURL, s.verifyToken)
	if err != nil {
		return toolFailure(ctx, "creating webhook subscription", err)
	}
	if res.Outcome == model.SubscriptionAlreadyExists {
		return ToolResult{
			Status:  ToolAlreadyExists,
			Content: "Webhook subscription already exists. List subscriptions to see details.",
			Data:    res,
		}
	}
	return ToolResult{
		Status:  ToolSuccess,
		Content: fmt.Sprintf("Webhook subscription created.\nID: %d\nCallback URL: %s", res.Subscription.ID, s.callbackURL),
		Data:    res,
	}
}

func (s *toolService) ListSubscriptions(ctx context.Context) ToolResult {
	ctx = withTool(ctx, "list_webhook_subscriptions")

	subs, err := s.subscriptions.List(ctx)
	if err != nil {
		return toolFailure(ctx, "listing webhook subscriptions", err)
	}
	if len(subs) == 0 {
		return ToolResult{
			Status:  ToolNone,
			Content: "No webhook subscriptions found. Create one to start receiving activity uploads.",
			Data:    []model.Subscription{},
		}
	}

	lines := []string{"Active webhook subscriptions:"}
	for _, sub := range subs {
		lines = append(lines,
			fmt.Sprintf("- ID: %d", sub.ID),
			"  Callback: "+sub.CallbackURL,
			"  Created: "+sub.CreatedAt,
		)
	}
	return ToolResult{
		Status:  ToolSuccess,
		Content: strings.Join(lines, "\n"),
		Data:    subs,
	}
}

func (s *toolService) DeleteSubscription(ctx context.Context, subscriptionID int64) ToolResult {
	ctx = withTool(ctx, "delete_webhook_subscription")

	if err := s.subscriptions.Delete(ctx, subscriptionID); err != nil {
		return toolFailure(ctx, "deleting webhook subscription", err)
	}
	return ToolResult{
		Status:  ToolSuccess,
		Content: fmt.Sprintf("Webhook subscription %d deleted.", subscriptionID),
	}
}

func withTool(ctx context.Context, name string) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{Tool: logger.Ptr(name)})
}

func toolFailure(ctx context.Context, action string, err error) ToolResult {
	if errors.Is(err, ErrNotAuthenticated) {
		slog.InfoContext(ctx, "tool called before strava authorization")
	} else {
		slog.ErrorContext(ctx, "tool failed", "action", action, "error", err)
	}

	msg := err.Error()
	var apiErr *integration.UpstreamAPIError
	if errors.As(err, &apiErr) {
		msg = fmt.Sprintf("strava returned %d: %s", apiErr.Status, logger.Truncate(apiErr.Body, 500))
	}
	return ToolResult{
		Status:  ToolError,
		Error:   msg,
		Content: fmt.Sprintf("Failed %s: %s", action, msg),
		Err:     err,
	}
}

func recentContent(r activity.Recent) string {
	if r.Count == 0 {
		return "No recent activities."
	}
	lines := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		name := a.Name
		if name == "" {
			name = a.Sport
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", name, a.Sport, a.Summary))
	}
	return strings.Join(lines, "\n")
}
