package handler_test

import (
	"context"

	"pacelink.app/relay/internal/activity"
	"pacelink.app/relay/internal/service"
)

type mockOAuthService struct {
	authURLFn  func(state string) string
	callbackFn func(ctx context.Context, code string) (*service.AuthorizedAthlete, error)
}

func (m *mockOAuthService) AuthorizationURL(state string) string {
	if m.authURLFn != nil {
		return m.authURLFn(state)
	}
	return "https://www.strava.com/oauth/authorize?state=" + state
}

func (m *mockOAuthService) HandleCallback(ctx context.Context, code string) (*service.AuthorizedAthlete, error) {
	if m.callbackFn != nil {
		return m.callbackFn(ctx, code)
	}
	return &service.AuthorizedAthlete{}, nil
}

// mockToolService answers every tool with result and records the arguments.
type mockToolService struct {
	result service.ToolResult

	limit          int
	activityID     int64
	includeContent bool
	dateQuery      activity.DateQuery
	subscriptionID int64
	called         string
}

func (m *mockToolService) RecentActivities(_ context.Context, limit int) service.ToolResult {
	m.called, m.limit = "recent_activities", limit
	return m.result
}

func (m *mockToolService) AnalyzeActivity(_ context.Context, activityID int64) service.ToolResult {
	m.called, m.activityID = "analyze_activity", activityID
	return m.result
}

func (m *mockToolService) WeeklySummary(_ context.Context, includeContent bool) service.ToolResult {
	m.called, m.includeContent = "weekly_summary", includeContent
	return m.result
}

func (m *mockToolService) ActivitiesByDate(_ context.Context, query activity.DateQuery, limit int) service.ToolResult {
	m.called, m.dateQuery, m.limit = "activities_by_date", query, limit
	return m.result
}

func (m *mockToolService) Athlete(context.Context) service.ToolResult {
	m.called = "athlete"
	return m.result
}

func (m *mockToolService) CreateSubscription(context.Context) service.ToolResult {
	m.called = "create_subscription"
	return m.result
}

func (m *mockToolService) ListSubscriptions(context.Context) service.ToolResult {
	m.called = "list_subscriptions"
	return m.result
}

func (m *mockToolService) DeleteSubscription(_ context.Context, subscriptionID int64) service.ToolResult {
	m.called, m.subscriptionID = "delete_subscription", subscriptionID
	return m.result
}
