package webhook_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/internal/activity"
	"pacelink.app/relay/internal/dedupe"
	"pacelink.app/relay/internal/http/handler/webhook"
	"pacelink.app/relay/internal/service"
	"pacelink.app/relay/internal/service/integration"
)

type fakeStrava struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
}

func (f *fakeStrava) GetAthlete(context.Context) (*integration.Athlete, error) {
	return &integration.Athlete{}, nil
}

func (f *fakeStrava) ListActivities(context.Context, integration.ListActivitiesParams) ([]activity.Raw, error) {
	return nil, nil
}

func (f *fakeStrava) GetActivity(ctx context.Context, id int64) (*activity.Raw, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &activity.Raw{ID: id, Name: "Evening Ride", SportType: "Ride", Distance: 20000, MovingTime: 2400}, nil
}

type fakeRelay struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeRelay) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func (f *fakeRelay) Send(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

var _ = Describe("StravaWebhookHandler", func() {
	var (
		router *gin.Engine
		buf    *bytes.Buffer
		strava *fakeStrava
		relay  *fakeRelay
	)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/strava/webhook", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	get := func(query string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/strava/webhook"+query, nil))
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		buf = &bytes.Buffer{}
		prev := slog.Default()
		slog.SetDefault(slog.New(logger.NewTraceHandler(slog.NewJSONHandler(buf, nil))))
		DeferCleanup(func() { slog.SetDefault(prev) })

		strava = &fakeStrava{}
		relay = &fakeRelay{}
		dispatcher := service.NewWebhookDispatcher(service.WebhookDispatcherOptions{
			Dedupe: dedupe.NewMemory(),
			TTL:    time.Minute,
			Strava: strava,
			Relay:  relay,
		})
		h := webhook.NewStravaWebhookHandler(dispatcher, "secret")
		router.GET("/strava/webhook", h.Verify)
		router.POST("/strava/webhook", h.HandleEvent)
	})

	Describe("verification", func() {
		It("echoes the challenge", func() {
			w := get("?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=abc123")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"hub.challenge":"abc123"}`))
		})

		It("forbids a mismatched token", func() {
			w := get("?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=abc123")

			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"verification failed"}`))
		})

		It("forbids a request without parameters", func() {
			Expect(get("").Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("events", func() {
		It("relays a new activity", func() {
			w := post(`{"object_type":"activity","aspect_type":"create","object_id":555,"owner_id":7}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"ok":true}`))
			Expect(relay.messages).To(ConsistOf("Evening Ride • Ride • 20.0 km • 40.0 min • 30.0 km/h"))
			Expect(buf.String()).To(ContainSubstring(`"outcome":"processed"`))
			Expect(buf.String()).To(ContainSubstring(`"delivery_id"`))
		})

		It("acknowledges a redelivery without processing it again", func() {
			body := `{"object_type":"activity","aspect_type":"create","object_id":555}`

			Expect(post(body).Body.String()).To(MatchJSON(`{"ok":true}`))
			Expect(post(body).Body.String()).To(MatchJSON(`{"ok":true}`))

			Expect(strava.calls).To(Equal(1))
			Expect(relay.messages).To(HaveLen(1))
		})

		It("finishes a delivery after the pusher hangs up", func() {
			strava.delay = 300 * time.Millisecond
			server := httptest.NewServer(router)
			DeferCleanup(server.Close)
			body := `{"object_type":"activity","aspect_type":"create","object_id":555}`

			impatient := &http.Client{Timeout: 50 * time.Millisecond}
			_, err := impatient.Post(server.URL+"/strava/webhook", "application/json", bytes.NewBufferString(body))
			Expect(err).To(HaveOccurred())

			res, err := http.Post(server.URL+"/strava/webhook", "application/json", bytes.NewBufferString(body))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			_ = res.Body.Close()

			Eventually(relay.sent).WithTimeout(2 * time.Second).Should(
				ConsistOf("Evening Ride • Ride • 20.0 km • 40.0 min • 30.0 km/h"))
			Consistently(relay.sent).Within(200 * time.Millisecond).Should(HaveLen(1))

			// Close waits for in-flight handlers before the log buffer is read.
			server.Close()
			Expect(strava.calls).To(Equal(1))
			Expect(buf.String()).To(ContainSubstring(`"outcome":"duplicate"`))
			Expect(buf.String()).NotTo(ContainSubstring("context canceled"))
		})

		It("acknowledges athlete events without fetching", func() {
			w := post(`{"object_type":"athlete","aspect_type":"update","object_id":7,"updates":{"authorized":"false"}}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(strava.calls).To(BeZero())
			Expect(buf.String()).To(ContainSubstring("athlete revoked strava access"))
		})

		It("acknowledges a malformed body", func() {
			w := post(`{"object_type":`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"ok":true}`))
			Expect(strava.calls).To(BeZero())
		})
	})
})
