package interfaces

import (
	"context"
	"time"

	"ottbot/internal/models"
)

type ReferralRepository interface {
	// Edges. CreateEdge relies on the unique index on referred_telegram_id;
	// inserting a second edge for the same referred user fails.
	CreateEdge(ctx context.Context, referral *models.Referral) error
	GetEdgeByReferred(ctx context.Context, referredTelegramID int64) (*models.Referral, error)
	GetEdgesByReferrer(ctx context.Context, referrerTelegramID int64) ([]*models.Referral, error)

	// MarkValidated flips is_valid from false to true exactly once. It
	// reports false when the edge is missing or already valid.
	MarkValidated(ctx context.Context, referredTelegramID int64, at time.Time) (bool, error)

	// Stats ledger
	InsertStats(ctx context.Context, stats *models.ReferralStats) error
	GetStats(ctx context.Context, telegramID int64) (*models.ReferralStats, error)
	GetStatsByCode(ctx context.Context, code string) (*models.ReferralStats, error)
	IncrementStats(ctx context.Context, telegramID int64, totalDelta, validDelta, pendingDelta int) error

	// IncrementEarnedIf bumps rewards_earned only when it still equals the
	// expected value, so concurrent claims settle to a single winner.
	IncrementEarnedIf(ctx context.Context, telegramID int64, expectedEarned int) (bool, error)

	// Reporting
	TopReferrers(ctx context.Context, limit int) ([]*models.ReferralStats, error)
	CountEdges(ctx context.Context) (int64, error)
	CountValidEdges(ctx context.Context) (int64, error)
}
