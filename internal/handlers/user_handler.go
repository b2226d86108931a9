package handlers

import (
	"net/http"
	"strconv"
	"time"

	"ottbot/internal/middleware"
	"ottbot/internal/models"
	"ottbot/internal/services"
	"ottbot/internal/utils"
	"ottbot/internal/validators"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService         services.UserService
	quotaService        services.QuotaService
	subscriptionService services.SubscriptionService
}

func NewUserHandler(
	userService services.UserService,
	quotaService services.QuotaService,
	subscriptionService services.SubscriptionService,
) *UserHandler {
	return &UserHandler{
		userService:         userService,
		quotaService:        quotaService,
		subscriptionService: subscriptionService,
	}
}

// telegramIDParam parses the :telegram_id path segment shared by the user,
// referral and extraction routes.
func telegramIDParam(c *gin.Context) (int64, bool) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil || telegramID <= 0 {
		utils.BadRequestResponse(c, "Invalid Telegram ID")
		return 0, false
	}
	return telegramID, true
}

// ListUsers lists registered users with pagination and search
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "USERS_FETCH_FAILED", "Failed to fetch users: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Users retrieved", users, meta)
}

// GetUser returns a user by Telegram ID
func (h *UserHandler) GetUser(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), telegramID)
	if err != nil {
		utils.NotFoundResponse(c, "User")
		return
	}

	utils.SuccessResponse(c, "User retrieved", user)
}

// GetQuotaStatus reports the user's daily quota without consuming it
func (h *UserHandler) GetQuotaStatus(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	status, err := h.quotaService.GetStatus(c.Request.Context(), telegramID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "QUOTA_FETCH_FAILED", "Failed to fetch quota: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Quota status retrieved", status)
}

// GetSubscriptionStatus summarizes a user's subscription state
func (h *UserHandler) GetSubscriptionStatus(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	status, err := h.subscriptionService.GetStatus(c.Request.Context(), telegramID, time.Now().UTC())
	if err != nil {
		utils.NotFoundResponse(c, "User")
		return
	}

	utils.SuccessResponse(c, "Subscription status retrieved", status)
}

// GrantDays manually grants premium days to a user
func (h *UserHandler) GrantDays(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	var request validators.GrantDaysRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	subscription, err := h.subscriptionService.GrantDays(c.Request.Context(), telegramID, request.PlanType, request.Days, models.SubscriptionSourceAdmin)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "GRANT_FAILED", "Failed to grant days: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Days granted by "+middleware.AdminUsername(c), subscription)
}

// UpdatePreferences replaces a user's content and notification preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	var request validators.PreferencesUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	if _, err := h.userService.GetUser(c.Request.Context(), telegramID); err != nil {
		utils.NotFoundResponse(c, "User")
		return
	}

	prefs := &models.UserPreferences{
		PreferredLanguages:    request.PreferredLanguages,
		PreferredGenres:       request.PreferredGenres,
		PreferredPlatforms:    request.PreferredPlatforms,
		NotificationFrequency: request.NotificationFrequency,
		NotificationTime:      request.NotificationTime,
		Region:                request.Region,
	}

	if err := h.userService.UpdatePreferences(c.Request.Context(), telegramID, prefs); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PREFERENCES_UPDATE_FAILED", "Failed to update preferences: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Preferences updated", prefs)
}

// DeleteUser removes a user and their embedded subscriptions
func (h *UserHandler) DeleteUser(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	if _, err := h.userService.GetUser(c.Request.Context(), telegramID); err != nil {
		utils.NotFoundResponse(c, "User")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), telegramID); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "USER_DELETE_FAILED", "Failed to delete user: "+err.Error())
		return
	}

	utils.NoContentResponse(c)
}
