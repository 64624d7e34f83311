package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pacelink.app/relay/core/config"
	"pacelink.app/relay/internal/dedupe"
	"pacelink.app/relay/internal/http/router"
	"pacelink.app/relay/internal/model"
	"pacelink.app/relay/internal/service"
	"pacelink.app/relay/internal/store"
)

type emptyStore struct{}

func (emptyStore) Get(context.Context, string) (*model.Credential, error) {
	return nil, store.ErrNotFound
}

func (emptyStore) Save(context.Context, *model.Credential) error {
	return nil
}

var _ = Describe("SetupRoutes", func() {
	var engine *gin.Engine

	serve := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		cfg := config.Config{
			Env:       "development",
			PublicURL: "https://relay.example.com",
			Strava: config.StravaConfig{
				ClientID:     "cid",
				ClientSecret: "secret",
				RedirectURI:  "https://relay.example.com/strava/callback",
				APIBaseURL:   "http://127.0.0.1:1",
				OAuthBaseURL: "https://www.strava.com/oauth",
				Scope:        "read,activity:read_all",
			},
			Webhook:    config.WebhookConfig{VerifyToken: "verify-me"},
			Credential: config.CredentialConfig{InstallationID: "default", RefreshMargin: time.Minute},
			Dedupe:     config.DedupeConfig{Backend: "memory", TTL: time.Minute},
		}

		services := service.NewServices(cfg, emptyStore{}, dedupe.NewMemory())
		engine = gin.New()
		router.SetupRoutes(engine, services, router.RouterConfig{
			ServiceName: "pacelink-relay",
			VerifyToken: cfg.Webhook.VerifyToken,
		})
	})

	It("serves both health paths", func() {
		Expect(serve(http.MethodGet, "/health").Code).To(Equal(http.StatusOK))
		Expect(serve(http.MethodGet, "/healthz").Code).To(Equal(http.StatusOK))
		Expect(serve(http.MethodGet, "/").Code).To(Equal(http.StatusOK))
	})

	It("wires the webhook handshake to the configured token", func() {
		w := serve(http.MethodGet, "/strava/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=xyz")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"hub.challenge":"xyz"}`))
	})

	It("starts the oauth flow", func() {
		w := serve(http.MethodGet, "/strava/auth")
		Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
		Expect(w.Header().Get("Location")).To(HavePrefix("https://www.strava.com/oauth/authorize?"))
		Expect(w.Header().Get("Location")).To(ContainSubstring("client_id=cid"))
	})

	It("answers tools with 401 before authorization", func() {
		w := serve(http.MethodGet, "/api/v1/tools/athlete")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring("/strava/auth"))
	})

	It("acknowledges webhook events", func() {
		w := serve(http.MethodPost, "/strava/webhook")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"ok":true}`))
	})
})
