package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pacelink.app/relay/internal/activity"
	"pacelink.app/relay/internal/http/dto"
	"pacelink.app/relay/internal/service"
)

type ToolsHandler struct {
	tools service.ToolService
}

func NewToolsHandler(tools service.ToolService) *ToolsHandler {
	return &ToolsHandler{tools: tools}
}

func (h *ToolsHandler) RecentActivities(c *gin.Context) {
	var q dto.RecentActivitiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respond(c, h.tools.RecentActivities(c.Request.Context(), q.Limit))
}

func (h *ToolsHandler) AnalyzeActivity(c *gin.Context) {
	var uri dto.ActivityURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity id"})
		return
	}
	respond(c, h.tools.AnalyzeActivity(c.Request.Context(), uri.ID))
}

func (h *ToolsHandler) WeeklySummary(c *gin.Context) {
	var q dto.WeeklySummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respond(c, h.tools.WeeklySummary(c.Request.Context(), q.IncludeContent))
}

func (h *ToolsHandler) ActivitiesByDate(c *gin.Context) {
	var q dto.ActivitiesByDateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respond(c, h.tools.ActivitiesByDate(c.Request.Context(), activity.DateQuery{
		Date:      q.Date,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}, q.Limit))
}

func (h *ToolsHandler) Athlete(c *gin.Context) {
	respond(c, h.tools.Athlete(c.Request.Context()))
}

func (h *ToolsHandler) ListSubscriptions(c *gin.Context) {
	respond(c, h.tools.ListSubscriptions(c.Request.Context()))
}

func (h *ToolsHandler) CreateSubscription(c *gin.Context) {
	respond(c, h.tools.CreateSubscription(c.Request.Context()))
}

func (h *ToolsHandler) DeleteSubscription(c *gin.Context) {
	var uri dto.SubscriptionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription id"})
		return
	}
	respond(c, h.tools.DeleteSubscription(c.Request.Context(), uri.ID))
}

// respond reports tool failures in the body with a 200, except a missing
// authorization, which is a 401 so the client can start /strava/auth.
func respond(c *gin.Context, res service.ToolResult) {
	if errors.Is(res.Err, service.ErrNotAuthenticated) {
		c.JSON(http.StatusUnauthorized, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
