package router

import (
	"github.com/gin-gonic/gin"

	"pacelink.app/relay/internal/http/handler"
	"pacelink.app/relay/internal/http/handler/webhook"
)

func StravaRouter(rg *gin.RouterGroup, webhookHandler *webhook.StravaWebhookHandler, oauthHandler *handler.OAuthHandler) {
	rg.GET("/webhook", webhookHandler.Verify)
	rg.POST("/webhook", webhookHandler.HandleEvent)
	rg.GET("/auth", oauthHandler.Authorize)
	rg.GET("/callback", oauthHandler.Callback)
}
