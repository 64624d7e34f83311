package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/core/config"
)

const (
	DefaultPokeInboundURL = "https://poke.com/api/v1/inbound-sms/webhook"

	relayTimeout = 10 * time.Second
)

type RelayFailure string

const (
	RelayMissingAPIKey RelayFailure = "missing_api_key"
	RelayTransport     RelayFailure = "transport"
	RelayRejected      RelayFailure = "rejected"
)

// RelayError describes a notification that did not reach Poke.
type RelayError struct {
	Reason RelayFailure
	Status int
	Body   string
	Err    error
}

func (e *RelayError) Error() string {
	switch e.Reason {
	case RelayMissingAPIKey:
		return "poke relay skipped: missing api key"
	case RelayRejected:
		return fmt.Sprintf("poke relay rejected: status %d: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("poke relay failed: %v", e.Err)
	}
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

type NotificationRelay interface {
	Send(ctx context.Context, message string) error
}

type pokeRelay struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

func NewPokeRelay(cfg config.PokeConfig, httpClient *http.Client) NotificationRelay {
	url := cfg.InboundURL
	if url == "" {
		url = DefaultPokeInboundURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: relayTimeout}
	}
	return &pokeRelay{
		apiKey:     cfg.APIKey,
		url:        url,
		httpClient: httpClient,
	}
}

// Send posts {"message": ...} to Poke. A missing API key is reported without
// a network call. Failures are returned for logging only.
func (r *pokeRelay) Send(ctx context.Context, message string) error {
	if r.apiKey == "" {
		return &RelayError{Reason: RelayMissingAPIKey}
	}

	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return &RelayError{Reason: RelayTransport, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, relayTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return &RelayError{Reason: RelayTransport, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &RelayError{Reason: RelayTransport, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RelayError{Reason: RelayRejected, Status: resp.StatusCode, Body: string(body)}
	}

	slog.DebugContext(ctx, "poke relay delivered",
		"status", resp.StatusCode,
		"body", logger.Truncate(string(body), 200))
	return nil
}
