package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/internal/model"
)

const subscriptionTimeout = 20 * time.Second

// SubscriptionClient manages the application's push subscription. These calls
// authenticate with the app's client id and secret, not an athlete token.
type SubscriptionClient interface {
	Create(ctx context.Context, callbackURL, verifyToken string) (*model.SubscriptionResult, error)
	List(ctx context.Context) ([]model.Subscription, error)
	Delete(ctx context.Context, id int64) error
}

type SubscriptionClientOptions struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

type subscriptionClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewSubscriptionClient(opts SubscriptionClientOptions) SubscriptionClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: subscriptionTimeout}
	}
	return &subscriptionClient{
		baseURL:      baseURL,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		httpClient:   httpClient,
	}
}

func (c *subscriptionClient) Create(ctx context.Context, callbackURL, verifyToken string) (*model.SubscriptionResult, error) {
	form := c.appCredentials()
	form.Set("callback_url", callbackURL)
	form.Set("verify_token", verifyToken)

	status, body, err := c.do(ctx, http.MethodPost, "/push_subscriptions", nil, form)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		var sub model.Subscription
		if err := json.Unmarshal(body, &sub); err != nil {
			return nil, fmt.Errorf("decoding subscription: %w", err)
		}
		sub.CallbackURL = callbackURL
		sub.VerifyToken = verifyToken
		slog.InfoContext(ctx, "strava subscription created",
			"subscription_id", sub.ID,
			"callback_url", callbackURL)
		return &model.SubscriptionResult{
			Outcome:      model.SubscriptionCreated,
			Subscription: &sub,
		}, nil
	case isAlreadyExists(status, body):
		slog.InfoContext(ctx, "strava subscription already exists",
			"callback_url", callbackURL)
		return &model.SubscriptionResult{
			Outcome: model.SubscriptionAlreadyExists,
			Detail:  strings.TrimSpace(string(body)),
		}, nil
	default:
		return nil, &UpstreamAPIError{
			Method: http.MethodPost,
			Path:   "/push_subscriptions",
			Status: status,
			Body:   string(body),
		}
	}
}

func (c *subscriptionClient) List(ctx context.Context) ([]model.Subscription, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/push_subscriptions", c.appCredentials(), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &UpstreamAPIError{
			Method: http.MethodGet,
			Path:   "/push_subscriptions",
			Status: status,
			Body:   string(body),
		}
	}

	var subs []model.Subscription
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, fmt.Errorf("decoding subscriptions: %w", err)
	}
	return subs, nil
}

func (c *subscriptionClient) Delete(ctx context.Context, id int64) error {
	path := "/push_subscriptions/" + strconv.FormatInt(id, 10)
	status, body, err := c.do(ctx, http.MethodDelete, path, c.appCredentials(), nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return &UpstreamAPIError{
			Method: http.MethodDelete,
			Path:   path,
			Status: status,
			Body:   string(body),
		}
	}
	slog.InfoContext(ctx, "strava subscription deleted", "subscription_id", id)
	return nil
}

func (c *subscriptionClient) appCredentials() url.Values {
	v := url.Values{}
	v.Set("client_id", c.clientID)
	v.Set("client_secret", c.clientSecret)
	return v
}

func (c *subscriptionClient) do(ctx context.Context, method, path string, query, form url.Values) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, subscriptionTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var req *http.Request
	var err error
	if form != nil {
		req, err = http.NewRequestWithContext(ctx, method, u, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("building strava request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("strava %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, resp.StatusCode >= 300)
	if err != nil {
		return 0, nil, fmt.Errorf("reading strava %s response: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		slog.DebugContext(ctx, "strava subscription call returned non-success",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"body", logger.Truncate(string(body), 200))
	}
	return resp.StatusCode, body, nil
}

// isAlreadyExists covers both the 409 Strava documents and the 400
// "already exists" validation error it actually returns.
func isAlreadyExists(status int, body []byte) bool {
	if status == http.StatusConflict {
		return true
	}
	return status == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "already exists")
}
