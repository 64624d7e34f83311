package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/internal/activity"
)

const (
	DefaultAPIBaseURL = "https://www.strava.com/api/v3"

	apiTimeout     = 30 * time.Second
	maxErrorBody   = 2048
	maxPerPage     = 200
	defaultPerPage = 30
)

// Authorizer supplies the bearer header for data calls. CredentialManager
// implements it; the interface lives here to keep service -> integration
// one-directional.
type Authorizer interface {
	AuthHeader(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

type StravaClient interface {
	GetAthlete(ctx context.Context) (*Athlete, error)
	ListActivities(ctx context.Context, params ListActivitiesParams) ([]activity.Raw, error)
	GetActivity(ctx context.Context, id int64) (*activity.Raw, error)
}

type Athlete struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	Sex       string  `json:"sex"`
	Premium   bool    `json:"premium"`
	Summit    bool    `json:"summit"`
	CreatedAt string  `json:"created_at"`
	Weight    float64 `json:"weight"`
}

type ListActivitiesParams struct {
	PerPage int
	After   *time.Time
	Before  *time.Time
}

// UpstreamAPIError is a non-success response from Strava, after the single
// 401 retry if one applied.
type UpstreamAPIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("strava %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

type StravaClientOptions struct {
	BaseURL    string
	Authorizer Authorizer
	HTTPClient *http.Client
	Timeout    time.Duration
}

type stravaClient struct {
	baseURL    string
	auth       Authorizer
	httpClient *http.Client
	timeout    time.Duration
}

func NewStravaClient(opts StravaClientOptions) StravaClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = apiTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &stravaClient{
		baseURL:    baseURL,
		auth:       opts.Authorizer,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

func (c *stravaClient) GetAthlete(ctx context.Context) (*Athlete, error) {
	var athlete Athlete
	if err := c.getJSON(ctx, "/athlete", nil, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

func (c *stravaClient) ListActivities(ctx context.Context, params ListActivitiesParams) ([]activity.Raw, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(clampPerPage(params.PerPage)))
	if params.After != nil {
		query.Set("after", strconv.FormatInt(params.After.Unix(), 10))
	}
	if params.Before != nil {
		query.Set("before", strconv.FormatInt(params.Before.Unix(), 10))
	}

	var acts []activity.Raw
	if err := c.getJSON(ctx, "/athlete/activities", query, &acts); err != nil {
		return nil, err
	}
	return acts, nil
}

func (c *stravaClient) GetActivity(ctx context.Context, id int64) (*activity.Raw, error) {
	query := url.Values{}
	query.Set("include_all_efforts", "false")

	var a activity.Raw
	if err := c.getJSON(ctx, "/activities/"+strconv.FormatInt(id, 10), query, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// getJSON issues an authenticated GET. A 401 triggers exactly one credential
// refresh and one retry of the identical request; there is never a third attempt.
func (c *stravaClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.auth == nil {
		return fmt.Errorf("strava client has no authorizer")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status, body, err := c.send(ctx, path, query)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		slog.InfoContext(ctx, "strava rejected access token, refreshing once",
			"path", path)
		if err := c.auth.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh after 401 on %s: %w", path, err)
		}
		status, body, err = c.send(ctx, path, query)
		if err != nil {
			return err
		}
	}

	if status < 200 || status > 299 {
		slog.WarnContext(ctx, "strava request failed",
			"path", path,
			"status", status,
			"body", logger.Truncate(string(body), 200))
		return &UpstreamAPIError{
			Method: http.MethodGet,
			Path:   path,
			Status: status,
			Body:   string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding strava %s response: %w", path, err)
	}
	return nil
}

func (c *stravaClient) send(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	header, err := c.auth.AuthHeader(ctx)
	if err != nil {
		return 0, nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building strava request: %w", err)
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("strava GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, resp.StatusCode >= 300)
	if err != nil {
		return 0, nil, fmt.Errorf("reading strava %s response: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

func readBody(resp *http.Response, isError bool) ([]byte, error) {
	if isError {
		return io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}
	return io.ReadAll(resp.Body)
}

func clampPerPage(n int) int {
	switch {
	case n <= 0:
		return defaultPerPage
	case n > maxPerPage:
		return maxPerPage
	default:
		return n
	}
}
