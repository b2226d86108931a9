package interfaces

import (
	"context"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/utils"
)

type ExtractionRepository interface {
	Create(ctx context.Context, extraction *models.Extraction) error
	GetByExtractionID(ctx context.Context, extractionID string) (*models.Extraction, error)
	GetByUser(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Extraction, int64, error)

	// MarkDownloadStarted records the chosen quality and flips the download
	// status to ready.
	MarkDownloadStarted(ctx context.Context, extractionID, quality string, at time.Time) (bool, error)

	// Reporting
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByUser(ctx context.Context, telegramID int64) (int64, error)
}
