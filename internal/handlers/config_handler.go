package handlers

import (
	"net/http"

	"ottbot/internal/models"
	"ottbot/internal/services"
	"ottbot/internal/utils"
	"ottbot/internal/validators"

	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	configService services.ConfigService
}

func NewConfigHandler(configService services.ConfigService) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
	}
}

// SaveConfig upserts a user's extraction configuration
func (h *ConfigHandler) SaveConfig(c *gin.Context) {
	var request validators.ConfigSaveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	cfg := &models.UserConfig{
		UserID:         request.UserID,
		WidevineAPIKey: request.WidevineAPIKey,
		TelegramChatID: request.TelegramChatID,
	}

	if err := h.configService.SaveConfig(c.Request.Context(), cfg); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "CONFIG_SAVE_FAILED", "Failed to save configuration: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Configuration saved", cfg)
}

// GetConfig returns a user's stored configuration
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	userID := c.Param("user_id")

	cfg, err := h.configService.GetConfig(c.Request.Context(), userID)
	if err != nil {
		utils.NotFoundResponse(c, "User configuration")
		return
	}

	utils.SuccessResponse(c, "Configuration retrieved", cfg)
}
