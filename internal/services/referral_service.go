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

const referralCodeRetries = 5

type ReferralService interface {
	// GetOrCreateStats returns the user's ledger row, creating it with a
	// fresh referral code on first use.
	GetOrCreateStats(ctx context.Context, telegramID int64) (*models.ReferralStats, error)

	// RecordReferral links a newly joined user to the owner of the given
	// referral code. It reports false for self-referrals, unknown codes and
	// users who were already referred.
	RecordReferral(ctx context.Context, code string, referred *TelegramProfile) (bool, error)

	// ValidateReferral marks the referred user's edge valid. Only the first
	// call per referred user succeeds; later calls report false.
	ValidateReferral(ctx context.Context, referredTelegramID int64) (bool, error)

	// CheckRewards summarizes reward progress for a referrer.
	CheckRewards(ctx context.Context, telegramID int64) (*models.RewardStatus, error)

	// ClaimReward converts one pending reward into premium days. It reports
	// false when nothing is claimable, including when a concurrent claim won.
	ClaimReward(ctx context.Context, telegramID int64) (bool, *models.Subscription, error)

	// Queries
	GetReferrals(ctx context.Context, telegramID int64) ([]*models.Referral, error)
	GetLeaderboard(ctx context.Context, limit int) ([]*models.ReferralStats, error)
}

type referralService struct {
	referralRepo interfaces.ReferralRepository
	subscription SubscriptionService
	cfg          *config.ReferralConfig
	logger       *logger.Logger
}

func NewReferralService(
	referralRepo interfaces.ReferralRepository,
	subscription SubscriptionService,
	cfg *config.ReferralConfig,
	log *logger.Logger,
) ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		subscription: subscription,
		cfg:          cfg,
		logger:       log,
	}
}

func (s *referralService) GetOrCreateStats(ctx context.Context, telegramID int64) (*models.ReferralStats, error) {
	stats, err := s.referralRepo.GetStats(ctx, telegramID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}

	// Insert with a fresh code, retrying on collisions. The unique index on
	// telegram_id also catches a concurrent first-use race.
	for attempt := 0; attempt < referralCodeRetries; attempt++ {
		stats = &models.ReferralStats{
			TelegramID:   telegramID,
			ReferralCode: utils.GenerateReferralCode(),
		}

		err = s.referralRepo.InsertStats(ctx, stats)
		if err == nil {
			return stats, nil
		}
		if !errors.Is(err, interfaces.ErrDuplicate) {
			return nil, fmt.Errorf("failed to insert referral stats: %w", err)
		}

		// Duplicate on telegram_id means someone else inserted our row.
		if existing, getErr := s.referralRepo.GetStats(ctx, telegramID); getErr == nil {
			return existing, nil
		}
	}

	return nil, fmt.Errorf("failed to allocate referral code after %d attempts", referralCodeRetries)
}

func (s *referralService) RecordReferral(ctx context.Context, code string, referred *TelegramProfile) (bool, error) {
	referrerStats, err := s.referralRepo.GetStatsByCode(ctx, code)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve referral code: %w", err)
	}

	if referrerStats.TelegramID == referred.TelegramID {
		return false, nil
	}

	edge := &models.Referral{
		ReferrerTelegramID: referrerStats.TelegramID,
		ReferredTelegramID: referred.TelegramID,
		ReferredUsername:   referred.Username,
	}

	if err := s.referralRepo.CreateEdge(ctx, edge); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			// Already referred by someone; first edge wins.
			return false, nil
		}
		return false, fmt.Errorf("failed to record referral: %w", err)
	}

	if err := s.referralRepo.IncrementStats(ctx, referrerStats.TelegramID, 1, 0, 1); err != nil {
		s.logger.WithError(err).WithTelegramID(referrerStats.TelegramID).Error("failed to bump referral counters")
	}

	s.logger.LogReferralEvent(referrerStats.TelegramID, referred.TelegramID, utils.EventReferralRecorded)

	return true, nil
}

func (s *referralService) ValidateReferral(ctx context.Context, referredTelegramID int64) (bool, error) {
	edge, err := s.referralRepo.GetEdgeByReferred(ctx, referredTelegramID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get referral edge: %w", err)
	}

	won, err := s.referralRepo.MarkValidated(ctx, referredTelegramID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to validate referral: %w", err)
	}
	if !won {
		return false, nil
	}

	if err := s.referralRepo.IncrementStats(ctx, edge.ReferrerTelegramID, 0, 1, -1); err != nil {
		s.logger.WithError(err).WithTelegramID(edge.ReferrerTelegramID).Error("failed to bump valid referral counters")
	}

	s.logger.LogReferralEvent(edge.ReferrerTelegramID, referredTelegramID, utils.EventReferralValidated)

	return true, nil
}

func (s *referralService) CheckRewards(ctx context.Context, telegramID int64) (*models.RewardStatus, error) {
	stats, err := s.GetOrCreateStats(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	return s.rewardStatus(stats), nil
}

func (s *referralService) ClaimReward(ctx context.Context, telegramID int64) (bool, *models.Subscription, error) {
	stats, err := s.GetOrCreateStats(ctx, telegramID)
	if err != nil {
		return false, nil, err
	}

	status := s.rewardStatus(stats)
	if status.PendingRewards <= 0 {
		return false, nil, nil
	}

	won, err := s.referralRepo.IncrementEarnedIf(ctx, telegramID, stats.RewardsEarned)
	if err != nil {
		return false, nil, fmt.Errorf("failed to claim reward: %w", err)
	}
	if !won {
		// A concurrent claim advanced the counter first.
		return false, nil, nil
	}

	sub, err := s.subscription.GrantDays(ctx, telegramID, s.cfg.RewardPlan, s.cfg.RewardDays, models.SubscriptionSourceReferral)
	if err != nil {
		return false, nil, fmt.Errorf("reward claimed but grant failed: %w", err)
	}

	s.logger.WithTelegramID(telegramID).WithField("reward_days", s.cfg.RewardDays).Info("referral reward claimed")

	return true, sub, nil
}

func (s *referralService) GetReferrals(ctx context.Context, telegramID int64) ([]*models.Referral, error) {
	return s.referralRepo.GetEdgesByReferrer(ctx, telegramID)
}

func (s *referralService) GetLeaderboard(ctx context.Context, limit int) ([]*models.ReferralStats, error) {
	return s.referralRepo.TopReferrers(ctx, limit)
}

// rewardStatus derives reward progress from the ledger counters. Rewards are
// earned in whole threshold units; partially completed units show as progress.
func (s *referralService) rewardStatus(stats *models.ReferralStats) *models.RewardStatus {
	threshold := s.cfg.RewardThreshold
	if threshold <= 0 {
		threshold = 1
	}

	eligible := stats.ValidReferrals / threshold
	pending := eligible - stats.RewardsEarned
	if pending < 0 {
		pending = 0
	}

	progress := stats.ValidReferrals % threshold

	return &models.RewardStatus{
		ValidReferrals:  stats.ValidReferrals,
		RequiredCount:   threshold,
		EligibleRewards: eligible,
		PendingRewards:  pending,
		RewardsEarned:   stats.RewardsEarned,
		Progress:        progress,
		NextRewardAt:    threshold - progress,
	}
}
