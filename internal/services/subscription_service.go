package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/utils"
	"ottbot/pkg/logger"
)

type SubscriptionService interface {
	// ActivateForPayment appends a subscription entry derived from a
	// verified payment. The expiry window comes from the payment's plan type.
	ActivateForPayment(ctx context.Context, payment *models.Payment) (*models.Subscription, error)

	// GrantDays appends a subscription entry that is not backed by a
	// payment, e.g. a referral reward or a manual admin grant.
	GrantDays(ctx context.Context, telegramID int64, planType string, days int, source models.SubscriptionSource) (*models.Subscription, error)

	// GetStatus summarizes a user's subscription state at the given time.
	GetStatus(ctx context.Context, telegramID int64, now time.Time) (*SubscriptionStatus, error)

	// RefreshFlags syncs stored is_active flags with actual expiry dates.
	RefreshFlags(ctx context.Context, telegramID int64, now time.Time) error

	// Plans and platforms
	GetActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	GetActivePlatforms(ctx context.Context) ([]*models.OTTPlatform, error)
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	SavePlatform(ctx context.Context, platform *models.OTTPlatform) error
}

type SubscriptionStatus struct {
	TelegramID    int64                 `json:"telegram_id"`
	IsPremium     bool                  `json:"is_premium"`
	Subscriptions []models.Subscription `json:"subscriptions"`
	ExpiresAt     *time.Time            `json:"expires_at,omitempty"`
	DaysRemaining int                   `json:"days_remaining"`
	TotalSpent    float64               `json:"total_spent"`
}

type subscriptionService struct {
	userRepo interfaces.UserRepository
	planRepo interfaces.PlanRepository
	logger   *logger.Logger
}

func NewSubscriptionService(userRepo interfaces.UserRepository, planRepo interfaces.PlanRepository, log *logger.Logger) SubscriptionService {
	return &subscriptionService{
		userRepo: userRepo,
		planRepo: planRepo,
		logger:   log,
	}
}

func (s *subscriptionService) ActivateForPayment(ctx context.Context, payment *models.Payment) (*models.Subscription, error) {
	if payment.Status != models.PaymentStatusVerified {
		return nil, fmt.Errorf("cannot activate subscription for %s payment", payment.Status)
	}

	now := time.Now()
	days := models.DurationForPlanType(payment.PlanType)

	sub := &models.Subscription{
		SubscriptionID: utils.GenerateUUID(),
		PlanType:       payment.PlanType,
		Platforms:      payment.Platforms,
		AmountPaid:     payment.Amount,
		StartDate:      now,
		ExpiryDate:     now.AddDate(0, 0, days),
		IsActive:       true,
		PaymentID:      payment.ID.Hex(),
		Source:         models.SubscriptionSourcePayment,
	}

	if err := s.userRepo.AppendSubscription(ctx, payment.TelegramID, sub, payment.Amount); err != nil {
		return nil, fmt.Errorf("failed to activate subscription: %w", err)
	}

	s.logger.WithTelegramID(payment.TelegramID).WithFields(map[string]interface{}{
		"plan_type":     payment.PlanType,
		"duration_days": days,
		"payment_id":    payment.ID.Hex(),
	}).Info("subscription activated")

	return sub, nil
}

func (s *subscriptionService) GrantDays(ctx context.Context, telegramID int64, planType string, days int, source models.SubscriptionSource) (*models.Subscription, error) {
	if days <= 0 {
		return nil, fmt.Errorf("grant days must be positive, got %d", days)
	}

	now := time.Now()
	sub := &models.Subscription{
		SubscriptionID: utils.GenerateUUID(),
		PlanType:       planType,
		StartDate:      now,
		ExpiryDate:     now.AddDate(0, 0, days),
		IsActive:       true,
		Source:         source,
	}

	if err := s.userRepo.AppendSubscription(ctx, telegramID, sub, 0); err != nil {
		return nil, fmt.Errorf("failed to grant subscription: %w", err)
	}

	s.logger.WithTelegramID(telegramID).WithFields(map[string]interface{}{
		"days":   days,
		"source": source,
	}).Info("subscription granted")

	return sub, nil
}

func (s *subscriptionService) GetStatus(ctx context.Context, telegramID int64, now time.Time) (*SubscriptionStatus, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user for status: %w", err)
	}

	status := &SubscriptionStatus{
		TelegramID: telegramID,
		TotalSpent: user.TotalSpent,
	}

	var latestExpiry time.Time
	for _, sub := range user.ActiveSubscriptions {
		if sub.Expired(now) {
			continue
		}
		status.Subscriptions = append(status.Subscriptions, sub)
		if sub.ExpiryDate.After(latestExpiry) {
			latestExpiry = sub.ExpiryDate
		}
	}

	if len(status.Subscriptions) > 0 {
		status.IsPremium = true
		status.ExpiresAt = &latestExpiry
		status.DaysRemaining = utils.DaysUntil(latestExpiry, now)
	}

	return status, nil
}

func (s *subscriptionService) RefreshFlags(ctx context.Context, telegramID int64, now time.Time) error {
	if err := s.userRepo.DeactivateExpiredSubscriptions(ctx, telegramID, now); err != nil {
		return fmt.Errorf("failed to refresh subscription flags: %w", err)
	}
	return nil
}

func (s *subscriptionService) GetActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	return s.planRepo.GetActivePlans(ctx)
}

func (s *subscriptionService) GetActivePlatforms(ctx context.Context) ([]*models.OTTPlatform, error) {
	return s.planRepo.GetActivePlatforms(ctx)
}

func (s *subscriptionService) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	if plan.PlanName == "" || plan.Price <= 0 {
		return fmt.Errorf("plan name and positive price are required")
	}
	return s.planRepo.CreatePlan(ctx, plan)
}

func (s *subscriptionService) SavePlatform(ctx context.Context, platform *models.OTTPlatform) error {
	if platform.Name == "" {
		return fmt.Errorf("platform name is required")
	}
	return s.planRepo.UpsertPlatform(ctx, platform)
}
