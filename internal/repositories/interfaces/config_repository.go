package interfaces

import (
	"context"

	"ottbot/internal/models"
)

type ConfigRepository interface {
	// Save upserts the configuration keyed by user id.
	Save(ctx context.Context, cfg *models.UserConfig) error

	GetByUserID(ctx context.Context, userID string) (*models.UserConfig, error)
}
