package router

import (
	"github.com/gin-gonic/gin"

	"pacelink.app/relay/internal/http/handler"
)

func ToolsRouter(rg *gin.RouterGroup, h *handler.ToolsHandler) {
	rg.GET("/recent_activities", h.RecentActivities)
	rg.GET("/analyze_activity/:id", h.AnalyzeActivity)
	rg.GET("/weekly_summary", h.WeeklySummary)
	rg.GET("/activities_by_date", h.ActivitiesByDate)
	rg.GET("/athlete", h.Athlete)
	rg.GET("/webhook_subscriptions", h.ListSubscriptions)
	rg.POST("/webhook_subscriptions", h.CreateSubscription)
	rg.DELETE("/webhook_subscriptions/:id", h.DeleteSubscription)
}
