package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ottbot/internal/config"
	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/utils"
	"ottbot/pkg/logger"
)

type QuotaService interface {
	// GetStatus reports today's usage without consuming anything.
	GetStatus(ctx context.Context, telegramID int64) (*models.QuotaStatus, error)

	// Consume atomically takes one unit of today's quota. It reports false
	// with the current status when the daily limit is already spent.
	Consume(ctx context.Context, telegramID int64, usageType models.UsageType) (bool, *models.QuotaStatus, error)

	// DailyLimit resolves the per-day allowance for a user.
	DailyLimit(ctx context.Context, telegramID int64) (int, error)
}

type quotaService struct {
	usageRepo interfaces.UsageRepository
	userRepo  interfaces.UserRepository
	cfg       *config.QuotaConfig
	logger    *logger.Logger
}

func NewQuotaService(usageRepo interfaces.UsageRepository, userRepo interfaces.UserRepository, cfg *config.QuotaConfig, log *logger.Logger) QuotaService {
	return &quotaService{
		usageRepo: usageRepo,
		userRepo:  userRepo,
		cfg:       cfg,
		logger:    log,
	}
}

func (s *quotaService) DailyLimit(ctx context.Context, telegramID int64) (int, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return s.cfg.FreeDailyLimit, nil
		}
		return 0, fmt.Errorf("failed to resolve quota tier: %w", err)
	}

	switch {
	case user.IsAdmin:
		return s.cfg.AdminDailyLimit, nil
	case user.HasActiveSubscription(time.Now()):
		return s.cfg.PremiumDailyLimit, nil
	default:
		return s.cfg.FreeDailyLimit, nil
	}
}

func (s *quotaService) GetStatus(ctx context.Context, telegramID int64) (*models.QuotaStatus, error) {
	limit, err := s.DailyLimit(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	usage, err := s.usageRepo.GetUsage(ctx, telegramID, utils.UsageDateKey(now))
	if err != nil {
		return nil, err
	}

	return buildQuotaStatus(telegramID, limit, usage.ExtractionCount, now), nil
}

func (s *quotaService) Consume(ctx context.Context, telegramID int64, usageType models.UsageType) (bool, *models.QuotaStatus, error) {
	limit, err := s.DailyLimit(ctx, telegramID)
	if err != nil {
		return false, nil, err
	}

	now := time.Now().UTC()
	date := utils.UsageDateKey(now)

	// Increment first, judge after: the post-increment count is the only
	// view that stays correct when requests race.
	usage, err := s.usageRepo.IncrementUsage(ctx, telegramID, date, usageType)
	if err != nil {
		return false, nil, err
	}

	count := usage.ExtractionCount
	if usageType == models.UsageTypeDownload {
		count = usage.DownloadCount
	}

	if count > limit {
		s.logger.WithTelegramID(telegramID).WithFields(map[string]interface{}{
			"limit":      limit,
			"used_today": count,
			"usage_type": usageType,
		}).Info("daily quota exceeded")
		return false, buildQuotaStatus(telegramID, limit, count, now), nil
	}

	return true, buildQuotaStatus(telegramID, limit, count, now), nil
}

func buildQuotaStatus(telegramID int64, limit, used int, now time.Time) *models.QuotaStatus {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &models.QuotaStatus{
		TelegramID: telegramID,
		DailyLimit: limit,
		UsedToday:  used,
		Remaining:  remaining,
		HasQuota:   used < limit,
		ResetsAt:   utils.StartOfDay(now).AddDate(0, 0, 1),
	}
}
