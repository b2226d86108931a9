package interfaces

import (
	"context"

	"ottbot/internal/models"
)

type UsageRepository interface {
	// IncrementUsage bumps the counter for (telegramID, date) with an upsert
	// and returns the post-increment document.
	IncrementUsage(ctx context.Context, telegramID int64, date string, usageType models.UsageType) (*models.DailyUsage, error)

	// GetUsage returns the day bucket, or a zeroed bucket when none exists.
	GetUsage(ctx context.Context, telegramID int64, date string) (*models.DailyUsage, error)
}
