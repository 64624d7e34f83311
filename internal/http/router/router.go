package router

import (
	"github.com/gin-gonic/gin"

	"pacelink.app/relay/internal/http/handler"
	"pacelink.app/relay/internal/http/handler/webhook"
	"pacelink.app/relay/internal/service"
)

type RouterConfig struct {
	ServiceName  string
	IsProduction bool
	VerifyToken  string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	healthHandler := handler.NewHealthHandler(cfg.ServiceName)
	router.GET("/", healthHandler.Index)
	router.GET("/health", healthHandler.Health)
	router.GET("/healthz", healthHandler.Health)

	webhookHandler := webhook.NewStravaWebhookHandler(services.Webhooks(), cfg.VerifyToken)
	oauthHandler := handler.NewOAuthHandler(services.OAuth(), cfg.IsProduction)
	StravaRouter(router.Group("/strava"), webhookHandler, oauthHandler)

	v1 := router.Group("/api/v1")
	{
		toolsHandler := handler.NewToolsHandler(services.Tools())
		ToolsRouter(v1.Group("/tools"), toolsHandler)
	}
}
