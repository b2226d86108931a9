package handlers

import (
	"errors"
	"net/http"

	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/services"
	"ottbot/internal/utils"
	"ottbot/internal/validators"

	"github.com/gin-gonic/gin"
)

type ExtractionHandler struct {
	extractionService services.ExtractionService
}

func NewExtractionHandler(extractionService services.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{
		extractionService: extractionService,
	}
}

// ExtractKeys runs a key extraction for the given PSSH and license URL
func (h *ExtractionHandler) ExtractKeys(c *gin.Context) {
	var request validators.ExtractKeysRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	extraction, err := h.extractionService.ExtractKeys(c.Request.Context(), &services.ExtractRequest{
		TelegramID:  request.TelegramID,
		PSSH:        request.PSSH,
		LicenseURL:  request.LicenseURL,
		ManifestURL: request.ManifestURL,
		Headers:     request.Headers,
	})
	if err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "QUOTA_EXCEEDED", utils.ErrQuotaExceeded)
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "EXTRACTION_FAILED", "Failed to extract keys: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Keys extracted", extraction)
}

// StartDownload records the chosen quality on an extraction
func (h *ExtractionHandler) StartDownload(c *gin.Context) {
	var request validators.StartDownloadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	extraction, err := h.extractionService.StartDownload(c.Request.Context(), request.TelegramID, request.ExtractionID, request.Quality)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuotaExceeded):
			utils.ErrorResponse(c, http.StatusTooManyRequests, "QUOTA_EXCEEDED", utils.ErrQuotaExceeded)
		case errors.Is(err, interfaces.ErrNotFound):
			utils.NotFoundResponse(c, "Extraction")
		default:
			utils.ErrorResponse(c, http.StatusBadRequest, "DOWNLOAD_FAILED", "Failed to start download: "+err.Error())
		}
		return
	}

	utils.SuccessResponse(c, "Download started", extraction)
}

// GetExtraction returns an extraction by its extraction ID
func (h *ExtractionHandler) GetExtraction(c *gin.Context) {
	extractionID := c.Param("extraction_id")
	if extractionID == "" {
		utils.BadRequestResponse(c, "Invalid extraction ID")
		return
	}

	extraction, err := h.extractionService.GetExtraction(c.Request.Context(), extractionID)
	if err != nil {
		utils.NotFoundResponse(c, "Extraction")
		return
	}

	utils.SuccessResponse(c, "Extraction retrieved", extraction)
}

// GetUserExtractions lists a user's extraction history with pagination
func (h *ExtractionHandler) GetUserExtractions(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	extractions, total, err := h.extractionService.GetUserExtractions(c.Request.Context(), telegramID, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "EXTRACTIONS_FETCH_FAILED", "Failed to fetch extractions: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Extractions retrieved", extractions, meta)
}
