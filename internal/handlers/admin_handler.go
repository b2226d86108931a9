package handlers

import (
	"net/http"
	"strconv"

	"ottbot/internal/middleware"
	"ottbot/internal/models"
	"ottbot/internal/services"
	"ottbot/internal/utils"
	"ottbot/internal/validators"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the dashboard overview and broadcast operations.
type AdminHandler struct {
	statsService     services.StatsService
	broadcastService services.BroadcastService
	sender           services.MessageSender
}

func NewAdminHandler(
	statsService services.StatsService,
	broadcastService services.BroadcastService,
	sender services.MessageSender,
) *AdminHandler {
	return &AdminHandler{
		statsService:     statsService,
		broadcastService: broadcastService,
		sender:           sender,
	}
}

// GetOverview aggregates the admin dashboard numbers
func (h *AdminHandler) GetOverview(c *gin.Context) {
	overview, err := h.statsService.GetOverview(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "STATS_FAILED", "Failed to compute overview: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Overview retrieved", overview)
}

// SendBroadcast sends a message to the chosen audience via the bot
func (h *AdminHandler) SendBroadcast(c *gin.Context) {
	var request validators.BroadcastRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	audience := models.BroadcastAudience(request.Audience)
	if audience == "" {
		audience = models.BroadcastAudienceAll
	}

	// Delivery is throttled, so it runs in the background; the broadcasts
	// listing carries the final counts.
	broadcast, err := h.broadcastService.Start(c.Request.Context(), request.Message, audience, middleware.AdminUsername(c), h.sender)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "BROADCAST_FAILED", "Failed to start broadcast: "+err.Error())
		return
	}

	utils.AcceptedResponse(c, "Broadcast started", broadcast)
}

// GetRecentBroadcasts lists the latest delivery records
func (h *AdminHandler) GetRecentBroadcasts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	broadcasts, err := h.broadcastService.GetRecent(c.Request.Context(), limit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "BROADCASTS_FETCH_FAILED", "Failed to fetch broadcasts: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Broadcasts retrieved", broadcasts)
}
