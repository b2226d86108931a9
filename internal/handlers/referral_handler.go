package handlers

import (
	"net/http"
	"strconv"

	"ottbot/internal/services"
	"ottbot/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralService services.ReferralService
}

func NewReferralHandler(referralService services.ReferralService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
	}
}

// GetReferralStats returns a user's referral ledger and reward progress
func (h *ReferralHandler) GetReferralStats(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	stats, err := h.referralService.GetOrCreateStats(c.Request.Context(), telegramID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "REFERRAL_FETCH_FAILED", "Failed to fetch referral stats: "+err.Error())
		return
	}

	rewards, err := h.referralService.CheckRewards(c.Request.Context(), telegramID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "REFERRAL_FETCH_FAILED", "Failed to compute rewards: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Referral stats retrieved", gin.H{
		"stats":   stats,
		"rewards": rewards,
	})
}

// GetReferrals lists the users referred by the given referrer
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	referrals, err := h.referralService.GetReferrals(c.Request.Context(), telegramID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "REFERRAL_FETCH_FAILED", "Failed to fetch referrals: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Referrals retrieved", referrals)
}

// GetLeaderboard lists the top referrers by valid referral count
func (h *ReferralHandler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	leaders, err := h.referralService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "LEADERBOARD_FAILED", "Failed to fetch leaderboard: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Leaderboard retrieved", leaders)
}
