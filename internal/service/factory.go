package service

import (
	"golang.org/x/oauth2"

	"pacelink.app/relay/core/config"
	"pacelink.app/relay/internal/dedupe"
	"pacelink.app/relay/internal/mapper"
	"pacelink.app/relay/internal/model"
	"pacelink.app/relay/internal/service/integration"
	"pacelink.app/relay/internal/store"
)

// Services wires the relay's services around one shared CredentialManager.
type Services struct {
	cfg           config.Config
	oauth         *oauth2.Config
	credentials   *CredentialManager
	strava        integration.StravaClient
	subscriptions integration.SubscriptionClient
	relay         NotificationRelay
	dedupe        dedupe.Admitter
}

func NewServices(cfg config.Config, tokens store.TokenStore, admitter dedupe.Admitter) *Services {
	oauthCfg := NewOAuthConfig(cfg.Strava)

	var fallback *model.Credential
	if cfg.Strava.HasStaticCredential() {
		fallback = &model.Credential{
			AccessToken:  cfg.Strava.AccessToken,
			RefreshToken: cfg.Strava.RefreshToken,
			ExpiresAt:    cfg.Strava.ExpiresAt,
			Scope:        cfg.Strava.Scope,
		}
	}

	credentials := NewCredentialManager(CredentialManagerOptions{
		Store:          tokens,
		OAuth:          oauthCfg,
		InstallationID: cfg.Credential.InstallationID,
		RefreshMargin:  cfg.Credential.RefreshMargin,
		Fallback:       fallback,
		DefaultScope:   cfg.Strava.Scope,
	})

	if admitter == nil {
		admitter = dedupe.NewMemory()
	}

	return &Services{
		cfg:         cfg,
		oauth:       oauthCfg,
		credentials: credentials,
		strava: integration.NewStravaClient(integration.StravaClientOptions{
			BaseURL:    cfg.Strava.APIBaseURL,
			Authorizer: credentials,
		}),
		subscriptions: integration.NewSubscriptionClient(integration.SubscriptionClientOptions{
			BaseURL:      cfg.Strava.APIBaseURL,
			ClientID:     cfg.Strava.ClientID,
			ClientSecret: cfg.Strava.ClientSecret,
		}),
		relay:  NewPokeRelay(cfg.Poke, nil),
		dedupe: admitter,
	}
}

func (s *Services) Credentials() *CredentialManager {
	return s.credentials
}

func (s *Services) OAuth() OAuthService {
	return NewOAuthService(s.oauth, s.credentials, nil)
}

func (s *Services) Strava() integration.StravaClient {
	return s.strava
}

func (s *Services) Subscriptions() integration.SubscriptionClient {
	return s.subscriptions
}

func (s *Services) Relay() NotificationRelay {
	return s.relay
}

func (s *Services) Webhooks() WebhookDispatcher {
	return NewWebhookDispatcher(WebhookDispatcherOptions{
		Mapper: mapper.NewStravaEventMapper(),
		Dedupe: s.dedupe,
		TTL:    s.cfg.Dedupe.TTL,
		Strava: s.strava,
		Relay:  s.relay,
	})
}

func (s *Services) Tools() ToolService {
	return NewToolService(ToolServiceOptions{
		Strava:        s.strava,
		Subscriptions: s.subscriptions,
		CallbackURL:   s.cfg.WebhookCallbackURL(),
		VerifyToken:   s.cfg.Webhook.VerifyToken,
	})
}
