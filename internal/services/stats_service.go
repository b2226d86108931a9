package services

import (
	"context"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/pkg/logger"
)

type StatsService interface {
	// GetOverview aggregates the numbers shown on the admin dashboard.
	GetOverview(ctx context.Context) (*StatsOverview, error)
}

type StatsOverview struct {
	TotalUsers       int64   `json:"total_users"`
	PremiumUsers     int64   `json:"premium_users"`
	PendingPayments  int64   `json:"pending_payments"`
	VerifiedPayments int64   `json:"verified_payments"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalReferrals   int64   `json:"total_referrals"`
	ValidReferrals   int64   `json:"valid_referrals"`
	Extractions24h   int64   `json:"extractions_24h"`
	GeneratedAt      string  `json:"generated_at"`
}

type statsService struct {
	userRepo       interfaces.UserRepository
	paymentRepo    interfaces.PaymentRepository
	referralRepo   interfaces.ReferralRepository
	extractionRepo interfaces.ExtractionRepository
	logger         *logger.Logger
}

func NewStatsService(
	userRepo interfaces.UserRepository,
	paymentRepo interfaces.PaymentRepository,
	referralRepo interfaces.ReferralRepository,
	extractionRepo interfaces.ExtractionRepository,
	log *logger.Logger,
) StatsService {
	return &statsService{
		userRepo:       userRepo,
		paymentRepo:    paymentRepo,
		referralRepo:   referralRepo,
		extractionRepo: extractionRepo,
		logger:         log,
	}
}

func (s *statsService) GetOverview(ctx context.Context) (*StatsOverview, error) {
	now := time.Now()
	overview := &StatsOverview{GeneratedAt: now.UTC().Format(time.RFC3339)}

	var err error
	if overview.TotalUsers, err = s.userRepo.CountTotal(ctx); err != nil {
		return nil, err
	}
	if overview.PremiumUsers, err = s.userRepo.CountWithActiveSubscription(ctx, now); err != nil {
		return nil, err
	}
	if overview.PendingPayments, err = s.paymentRepo.CountByStatus(ctx, models.PaymentStatusPending); err != nil {
		return nil, err
	}
	if overview.VerifiedPayments, err = s.paymentRepo.CountByStatus(ctx, models.PaymentStatusVerified); err != nil {
		return nil, err
	}
	if overview.TotalRevenue, err = s.paymentRepo.TotalRevenue(ctx); err != nil {
		return nil, err
	}
	if overview.TotalReferrals, err = s.referralRepo.CountEdges(ctx); err != nil {
		return nil, err
	}
	if overview.ValidReferrals, err = s.referralRepo.CountValidEdges(ctx); err != nil {
		return nil, err
	}
	if overview.Extractions24h, err = s.extractionRepo.CountSince(ctx, now.Add(-24*time.Hour)); err != nil {
		return nil, err
	}

	return overview, nil
}
