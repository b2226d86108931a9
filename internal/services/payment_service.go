package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"ottbot/internal/config"
	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/utils"
	"ottbot/pkg/logger"
	"ottbot/pkg/payment"
	"ottbot/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentService interface {
	// CreatePayment opens a pending payment for a picked plan and returns
	// UPI payment details for the user.
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentDetails, error)

	// AttachProof stores the payment screenshot and links it to the payment.
	AttachProof(ctx context.Context, paymentID primitive.ObjectID, fileID string, screenshot []byte) error

	// ApprovePayment verifies a pending payment, activates the subscription
	// and validates the payer's referral edge. It reports false when the
	// payment was already decided.
	ApprovePayment(ctx context.Context, paymentID primitive.ObjectID, adminName string) (bool, *models.Subscription, error)

	// RejectPayment rejects a pending payment with a reason. It reports
	// false when the payment was already decided.
	RejectPayment(ctx context.Context, paymentID primitive.ObjectID, adminName, reason string) (bool, error)

	// ConfirmPaymentLink settles a payment from a Razorpay webhook. The
	// raw body and signature come straight off the request; events other
	// than a paid link are ignored and return a nil payment.
	ConfirmPaymentLink(ctx context.Context, payload []byte, signature string) (*models.Payment, error)

	// Queries
	GetPayment(ctx context.Context, paymentID primitive.ObjectID) (*models.Payment, error)
	GetPendingPayments(ctx context.Context) ([]*models.Payment, error)
	GetPaymentsByStatus(ctx context.Context, status models.PaymentStatus, params *utils.PaginationParams) ([]*models.Payment, int64, error)
	GetUserPayments(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Payment, int64, error)
	GetLatestPendingForUser(ctx context.Context, telegramID int64) (*models.Payment, error)

	// Reporting
	GetPaymentStats(ctx context.Context) (*PaymentStats, error)
}

type CreatePaymentRequest struct {
	UserID     primitive.ObjectID `json:"user_id"`
	TelegramID int64              `json:"telegram_id" validate:"required"`
	Amount     float64            `json:"amount" validate:"required"`
	PlanType   string             `json:"plan_type" validate:"required"`
	Platforms  []string           `json:"platforms"`
}

type PaymentDetails struct {
	Payment        *models.Payment `json:"payment"`
	UPIID          string          `json:"upi_id"`
	UPIURI         string          `json:"upi_uri"`
	QRCode         []byte          `json:"-"`
	PaymentLinkURL string          `json:"payment_link_url,omitempty"`
	Instructions   string          `json:"instructions"`
}

type PaymentStats struct {
	Pending          int64   `json:"pending"`
	Verified         int64   `json:"verified"`
	Rejected         int64   `json:"rejected"`
	TotalRevenue     float64 `json:"total_revenue"`
	RevenueLast7Days float64 `json:"revenue_last_7_days"`
}

type paymentService struct {
	paymentRepo  interfaces.PaymentRepository
	subscription SubscriptionService
	referral     ReferralService
	proofStore   storage.Provider
	razorpay     *payment.RazorpayProvider
	cfg          *config.PaymentConfig
	logger       *logger.Logger
}

func NewPaymentService(
	paymentRepo interfaces.PaymentRepository,
	subscription SubscriptionService,
	referral ReferralService,
	proofStore storage.Provider,
	razorpay *payment.RazorpayProvider,
	cfg *config.PaymentConfig,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo:  paymentRepo,
		subscription: subscription,
		referral:     referral,
		proofStore:   proofStore,
		razorpay:     razorpay,
		cfg:          cfg,
		logger:       log,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentDetails, error) {
	if req.Amount < utils.MinPaymentAmount || req.Amount > utils.MaxPaymentAmount {
		return nil, fmt.Errorf("amount %.2f outside accepted range", req.Amount)
	}

	p := &models.Payment{
		UserID:     req.UserID,
		TelegramID: req.TelegramID,
		Amount:     req.Amount,
		PlanType:   req.PlanType,
		Platforms:  req.Platforms,
		UPIID:      s.cfg.AdminUPIID,
	}

	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	upiReq := &payment.UPIRequest{
		UPIID:         s.cfg.AdminUPIID,
		PayeeName:     s.cfg.PayeeName,
		Amount:        req.Amount,
		TransactionID: p.ID.Hex(),
	}

	details := &PaymentDetails{
		Payment:      p,
		UPIID:        s.cfg.AdminUPIID,
		UPIURI:       payment.BuildUPIURI(upiReq),
		Instructions: payment.PaymentInstructions(s.cfg.AdminUPIID, req.Amount, req.Platforms),
	}

	qr, err := payment.GenerateUPIQR(upiReq, 256)
	if err != nil {
		s.logger.WithError(err).WithPaymentID(p.ID).Warn("failed to render UPI QR")
	} else {
		details.QRCode = qr
	}

	// Hosted payment links are optional; the manual QR flow always works.
	if s.razorpay != nil && s.cfg.PaymentLinks {
		link, err := s.razorpay.CreatePaymentLink(req.Amount, fmt.Sprintf("%s plan", req.PlanType), p.ID.Hex())
		if err != nil {
			s.logger.WithError(err).WithPaymentID(p.ID).Warn("failed to create payment link")
		} else {
			details.PaymentLinkURL = link.ShortURL
			if err := s.paymentRepo.Update(ctx, p.ID, map[string]interface{}{"payment_link_id": link.LinkID}); err != nil {
				s.logger.WithError(err).WithPaymentID(p.ID).Warn("failed to store payment link id")
			}
		}
	}

	s.logger.LogPaymentEvent(p.ID, utils.EventPaymentCreated, p.Amount, p.TelegramID)

	return details, nil
}

func (s *paymentService) AttachProof(ctx context.Context, paymentID primitive.ObjectID, fileID string, screenshot []byte) error {
	p, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if p.IsDecided() {
		return fmt.Errorf("payment %s is already decided", paymentID.Hex())
	}

	url := ""
	if s.proofStore != nil && len(screenshot) > 0 {
		key := fmt.Sprintf("proofs/%d/%s.jpg", p.TelegramID, paymentID.Hex())
		resp, err := s.proofStore.Upload(ctx, &storage.UploadRequest{
			Key:         key,
			Reader:      bytes.NewReader(screenshot),
			ContentType: "image/jpeg",
			Metadata: map[string]string{
				"payment_id": paymentID.Hex(),
			},
		})
		if err != nil {
			// The Telegram file id is proof enough; storage is best effort.
			s.logger.WithError(err).WithPaymentID(paymentID).Warn("failed to store proof screenshot")
		} else {
			url = resp.URL
		}
	}

	if err := s.paymentRepo.SetScreenshot(ctx, paymentID, fileID, url); err != nil {
		return err
	}

	s.logger.WithPaymentID(paymentID).WithTelegramID(p.TelegramID).Info("payment proof attached")

	return nil
}

func (s *paymentService) ApprovePayment(ctx context.Context, paymentID primitive.ObjectID, adminName string) (bool, *models.Subscription, error) {
	won, err := s.paymentRepo.MarkDecided(ctx, paymentID, models.PaymentStatusVerified, adminName, "")
	if err != nil {
		return false, nil, err
	}
	if !won {
		return false, nil, nil
	}

	p, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return true, nil, fmt.Errorf("payment verified but reload failed: %w", err)
	}

	sub, err := s.subscription.ActivateForPayment(ctx, p)
	if err != nil {
		return true, nil, fmt.Errorf("payment verified but activation failed: %w", err)
	}

	// A verified payment is what makes the payer's referral count.
	if _, err := s.referral.ValidateReferral(ctx, p.TelegramID); err != nil {
		s.logger.WithError(err).WithTelegramID(p.TelegramID).Error("failed to validate referral on approval")
	}

	s.logger.LogPaymentEvent(paymentID, utils.EventPaymentVerified, p.Amount, p.TelegramID)

	return true, sub, nil
}

func (s *paymentService) RejectPayment(ctx context.Context, paymentID primitive.ObjectID, adminName, reason string) (bool, error) {
	won, err := s.paymentRepo.MarkDecided(ctx, paymentID, models.PaymentStatusRejected, adminName, reason)
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}

	if p, err := s.paymentRepo.GetByID(ctx, paymentID); err == nil {
		s.logger.LogPaymentEvent(paymentID, utils.EventPaymentRejected, p.Amount, p.TelegramID)
	}

	return true, nil
}

func (s *paymentService) ConfirmPaymentLink(ctx context.Context, payload []byte, signature string) (*models.Payment, error) {
	if s.razorpay == nil {
		return nil, fmt.Errorf("payment links are not configured")
	}

	event, err := s.razorpay.ValidateWebhook(payload, signature)
	if err != nil {
		return nil, err
	}
	if event.EventType != payment.EventPaymentLinkPaid {
		return nil, nil
	}

	p, err := s.paymentRepo.GetByPaymentLinkID(ctx, event.PaymentLinkID)
	if err != nil {
		return nil, fmt.Errorf("no payment for link %s: %w", event.PaymentLinkID, err)
	}

	// Razorpay retries webhooks; an already decided payment is not an error.
	decided, _, err := s.ApprovePayment(ctx, p.ID, "razorpay")
	if err != nil {
		return nil, err
	}
	if !decided {
		s.logger.WithPaymentID(p.ID).Info("payment link webhook for decided payment")
	}

	return s.paymentRepo.GetByID(ctx, p.ID)
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID primitive.ObjectID) (*models.Payment, error) {
	return s.paymentRepo.GetByID(ctx, paymentID)
}

func (s *paymentService) GetPendingPayments(ctx context.Context) ([]*models.Payment, error) {
	return s.paymentRepo.GetPending(ctx)
}

func (s *paymentService) GetPaymentsByStatus(ctx context.Context, status models.PaymentStatus, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return s.paymentRepo.GetByStatus(ctx, status, params)
}

func (s *paymentService) GetUserPayments(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return s.paymentRepo.GetByUser(ctx, telegramID, params)
}

// GetLatestPendingForUser returns the user's most recent pending payment, or
// ErrNotFound when none is open. The bot uses it to attach screenshots.
func (s *paymentService) GetLatestPendingForUser(ctx context.Context, telegramID int64) (*models.Payment, error) {
	params := &utils.PaginationParams{Page: 1, PageSize: utils.MaxPageSize, Sort: "created_at", Order: "desc"}

	payments, _, err := s.paymentRepo.GetByUser(ctx, telegramID, params)
	if err != nil {
		return nil, err
	}

	for _, p := range payments {
		if p.Status == models.PaymentStatusPending {
			return p, nil
		}
	}

	return nil, interfaces.ErrNotFound
}

func (s *paymentService) GetPaymentStats(ctx context.Context) (*PaymentStats, error) {
	stats := &PaymentStats{}

	var err error
	if stats.Pending, err = s.paymentRepo.CountByStatus(ctx, models.PaymentStatusPending); err != nil {
		return nil, err
	}
	if stats.Verified, err = s.paymentRepo.CountByStatus(ctx, models.PaymentStatusVerified); err != nil {
		return nil, err
	}
	if stats.Rejected, err = s.paymentRepo.CountByStatus(ctx, models.PaymentStatusRejected); err != nil {
		return nil, err
	}
	if stats.TotalRevenue, err = s.paymentRepo.TotalRevenue(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recent, err := s.paymentRepo.GetPaymentsByDateRange(ctx, now.AddDate(0, 0, -7), now)
	if err != nil {
		return nil, err
	}
	for _, p := range recent {
		if p.Status == models.PaymentStatusVerified {
			stats.RevenueLast7Days += p.Amount
		}
	}

	return stats, nil
}
