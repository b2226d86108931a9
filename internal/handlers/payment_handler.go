package handlers

import (
	"io"
	"net/http"

	"ottbot/internal/middleware"
	"ottbot/internal/models"
	"ottbot/internal/services"
	"ottbot/internal/utils"
	"ottbot/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxWebhookBody caps webhook payload reads at 1 MiB.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// GetPendingPayments lists payments awaiting a decision
func (h *PaymentHandler) GetPendingPayments(c *gin.Context) {
	payments, err := h.paymentService.GetPendingPayments(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYMENTS_FETCH_FAILED", "Failed to fetch pending payments: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Pending payments retrieved", payments)
}

// ListPayments lists payments filtered by status, newest first
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	status := models.PaymentStatus(c.DefaultQuery("status", string(models.PaymentStatusPending)))
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusVerified, models.PaymentStatusRejected:
	default:
		utils.BadRequestResponse(c, "Unknown payment status: "+string(status))
		return
	}

	params := utils.GetPaginationParams(c)

	payments, total, err := h.paymentService.GetPaymentsByStatus(c.Request.Context(), status, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYMENTS_FETCH_FAILED", "Failed to fetch payments: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Payments retrieved", payments, meta)
}

// RazorpayWebhook settles payments from paid payment links. Authenticity
// comes from the signature header, not from JWT.
func (h *PaymentHandler) RazorpayWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read webhook body")
		return
	}

	payment, err := h.paymentService.ConfirmPaymentLink(c.Request.Context(), payload, c.GetHeader("X-Razorpay-Signature"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "WEBHOOK_REJECTED", "Webhook rejected: "+err.Error())
		return
	}
	if payment == nil {
		utils.SuccessResponse(c, "Event ignored", nil)
		return
	}

	utils.SuccessResponse(c, "Payment confirmed", payment)
}

// GetPayment returns a single payment by ID
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		utils.NotFoundResponse(c, "Payment")
		return
	}

	utils.SuccessResponse(c, "Payment retrieved", payment)
}

// ApprovePayment verifies a pending payment and activates the subscription
func (h *PaymentHandler) ApprovePayment(c *gin.Context) {
	paymentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID")
		return
	}

	decided, subscription, err := h.paymentService.ApprovePayment(c.Request.Context(), paymentID, middleware.AdminUsername(c))
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYMENT_APPROVE_FAILED", "Failed to approve payment: "+err.Error())
		return
	}
	if !decided {
		utils.ConflictResponse(c, utils.ErrPaymentDecided)
		return
	}

	utils.SuccessResponse(c, "Payment approved", subscription)
}

// RejectPayment rejects a pending payment with a reason
func (h *PaymentHandler) RejectPayment(c *gin.Context) {
	paymentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID")
		return
	}

	var request validators.PaymentRejectRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	decided, err := h.paymentService.RejectPayment(c.Request.Context(), paymentID, middleware.AdminUsername(c), request.Reason)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYMENT_REJECT_FAILED", "Failed to reject payment: "+err.Error())
		return
	}
	if !decided {
		utils.ConflictResponse(c, utils.ErrPaymentDecided)
		return
	}

	utils.SuccessResponse(c, "Payment rejected", nil)
}

// GetUserPayments lists a user's payment history with pagination
func (h *PaymentHandler) GetUserPayments(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	payments, total, err := h.paymentService.GetUserPayments(c.Request.Context(), telegramID, params)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYMENTS_FETCH_FAILED", "Failed to fetch payments: "+err.Error())
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Payments retrieved", payments, meta)
}

// GetPaymentStats reports payment counts and total verified revenue
func (h *PaymentHandler) GetPaymentStats(c *gin.Context) {
	stats, err := h.paymentService.GetPaymentStats(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYMENT_STATS_FAILED", "Failed to compute payment stats: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Payment stats retrieved", stats)
}
