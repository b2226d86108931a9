package handlers

import (
	"net/http"

	"ottbot/internal/middleware"
	"ottbot/internal/models"
	"ottbot/internal/services"
	"ottbot/internal/utils"
	"ottbot/internal/validators"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	subscriptionService services.SubscriptionService
}

func NewPlanHandler(subscriptionService services.SubscriptionService) *PlanHandler {
	return &PlanHandler{
		subscriptionService: subscriptionService,
	}
}

// GetPlans lists the active subscription plans
func (h *PlanHandler) GetPlans(c *gin.Context) {
	plans, err := h.subscriptionService.GetActivePlans(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PLANS_FETCH_FAILED", "Failed to fetch plans: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Plans retrieved", plans)
}

// CreatePlan adds a new subscription plan
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var request validators.PlanCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	plan := &models.SubscriptionPlan{
		PlanName:     request.PlanName,
		PlanType:     request.PlanType,
		Platforms:    request.Platforms,
		Price:        request.Price,
		DurationDays: request.DurationDays,
		Features:     request.Features,
		IsActive:     true,
		CreatedBy:    middleware.AdminUsername(c),
	}

	if err := h.subscriptionService.CreatePlan(c.Request.Context(), plan); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PLAN_CREATE_FAILED", "Failed to create plan: "+err.Error())
		return
	}

	utils.CreatedResponse(c, "Plan created", plan)
}

// SavePlatform creates or updates an OTT platform entry
func (h *PlanHandler) SavePlatform(c *gin.Context) {
	var request validators.PlatformSaveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	platform := &models.OTTPlatform{
		Name:        request.Name,
		DisplayName: request.DisplayName,
		Icon:        request.Icon,
		Country:     request.Country,
		MonthlyPlan: request.MonthlyPlan,
		YearlyPlan:  request.YearlyPlan,
		Features:    request.Features,
		WebsiteURL:  request.WebsiteURL,
		IsActive:    true,
	}

	if err := h.subscriptionService.SavePlatform(c.Request.Context(), platform); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PLATFORM_SAVE_FAILED", "Failed to save platform: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Platform saved", platform)
}

// GetPlatforms lists the active OTT platforms offered in bundles
func (h *PlanHandler) GetPlatforms(c *gin.Context) {
	platforms, err := h.subscriptionService.GetActivePlatforms(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PLATFORMS_FETCH_FAILED", "Failed to fetch platforms: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Platforms retrieved", platforms)
}
