package service_test

import (
	"context"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/oauth2"

	"pacelink.app/relay/core/config"
	"pacelink.app/relay/internal/service"
)

var _ = Describe("OAuthService", func() {
	var (
		tokens   *mockTokenStore
		endpoint *tokenEndpoint
		oauthCfg *oauth2.Config
		creds    *service.CredentialManager
		svc      service.OAuthService
	)

	BeforeEach(func() {
		tokens = newMockTokenStore()
		endpoint = newTokenEndpoint()
		DeferCleanup(endpoint.close)

		oauthCfg = service.NewOAuthConfig(config.StravaConfig{
			ClientID:     "cid",
			ClientSecret: "secret",
			RedirectURI:  "https://relay.example.com/strava/callback",
			Scope:        "read,activity:read_all",
			OAuthBaseURL: "https://www.strava.com/oauth",
		})
		oauthCfg.Endpoint.TokenURL = endpoint.url()

		creds = service.NewCredentialManager(service.CredentialManagerOptions{
			Store: tokens,
			OAuth: oauthCfg,
		})
		svc = service.NewOAuthService(oauthCfg, creds, nil)
	})

	It("builds the authorization url", func() {
		u, err := url.Parse(svc.AuthorizationURL("state-123"))
		Expect(err).ToNot(HaveOccurred())

		Expect(u.Host).To(Equal("www.strava.com"))
		Expect(u.Path).To(Equal("/oauth/authorize"))
		q := u.Query()
		Expect(q.Get("client_id")).To(Equal("cid"))
		Expect(q.Get("redirect_uri")).To(Equal("https://relay.example.com/strava/callback"))
		Expect(q.Get("response_type")).To(Equal("code"))
		Expect(q.Get("approval_prompt")).To(Equal("auto"))
		Expect(q.Get("scope")).To(Equal("read,activity:read_all"))
		Expect(q.Get("state")).To(Equal("state-123"))
	})

	It("exchanges the code and stores the credential", func() {
		expiresAt := time.Now().Add(6 * time.Hour).Unix()
		endpoint.response = map[string]any{
			"token_type":    "Bearer",
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_at":    expiresAt,
			"expires_in":    21600,
			"athlete":       map[string]any{"id": 7, "firstname": "Ada", "lastname": "Lovelace"},
		}

		athlete, err := svc.HandleCallback(context.Background(), "the-code")
		Expect(err).ToNot(HaveOccurred())

		Expect(athlete.ID).To(Equal(int64(7)))
		Expect(athlete.Firstname).To(Equal("Ada"))
		Expect(athlete.ExpiresAt).To(Equal(expiresAt))
		Expect(athlete.Scope).To(Equal("read,activity:read_all"))

		form := endpoint.lastForm()
		Expect(form.Get("grant_type")).To(Equal("authorization_code"))
		Expect(form.Get("code")).To(Equal("the-code"))
		Expect(form.Get("client_secret")).To(Equal("secret"))

		saved := tokens.saved("default")
		Expect(saved.AccessToken).To(Equal("new-access"))
		Expect(saved.RefreshToken).To(Equal("new-refresh"))

		header, err := creds.AuthHeader(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(header).To(Equal("Bearer new-access"))
	})

	It("rejects a missing code without calling strava", func() {
		_, err := svc.HandleCallback(context.Background(), "")
		Expect(err).To(MatchError(service.ErrMissingCode))
		Expect(endpoint.calls.Load()).To(BeZero())
	})

	It("stores nothing when the exchange is rejected", func() {
		endpoint.status = 400

		_, err := svc.HandleCallback(context.Background(), "bad-code")
		Expect(err).To(HaveOccurred())
		Expect(tokens.saveCount()).To(BeZero())
	})
})
