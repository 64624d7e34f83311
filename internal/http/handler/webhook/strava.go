package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pacelink.app/relay/internal/http/dto"
	"pacelink.app/relay/internal/service"
)

// Strava events are a few hundred bytes.
const maxEventBytes = 64 << 10

type StravaWebhookHandler struct {
	dispatcher  service.WebhookDispatcher
	verifyToken string
}

func NewStravaWebhookHandler(dispatcher service.WebhookDispatcher, verifyToken string) *StravaWebhookHandler {
	return &StravaWebhookHandler{
		dispatcher:  dispatcher,
		verifyToken: verifyToken,
	}
}

// Verify answers the subscription handshake Strava sends when a push
// subscription is created.
func (h *StravaWebhookHandler) Verify(c *gin.Context) {
	var q dto.VerificationQuery
	_ = c.ShouldBindQuery(&q)

	res := service.VerifySubscription(q.Mode, q.VerifyToken, q.Challenge, h.verifyToken)
	if !res.OK {
		slog.WarnContext(c.Request.Context(), "webhook verification rejected",
			"mode", q.Mode,
			"has_challenge", q.Challenge != "")
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}

	slog.InfoContext(c.Request.Context(), "webhook subscription verified")
	c.JSON(http.StatusOK, dto.VerificationResponse{Challenge: res.Challenge})
}

// HandleEvent always acknowledges. Strava retries anything else, and every
// failure past this point is already logged by the dispatcher.
//
// Dispatch runs detached from the request: once the event is admitted its
// dedupe key is spent, so a pusher that hangs up early must not cancel the
// fetch or the relay. The gateway and relay timeouts still bound the work.
func (h *StravaWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBytes))
	if err != nil {
		slog.WarnContext(ctx, "failed to read webhook body", "error", err)
	}

	h.dispatcher.Dispatch(ctx, body)
	c.JSON(http.StatusOK, dto.WebhookAck{OK: true})
}
