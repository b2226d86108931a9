package services

import (
	"context"
	"fmt"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/pkg/logger"
)

type ConfigService interface {
	// SaveConfig upserts the per-user extraction configuration.
	SaveConfig(ctx context.Context, cfg *models.UserConfig) error

	// GetConfig returns the stored configuration, or interfaces.ErrNotFound
	// when the user never saved one.
	GetConfig(ctx context.Context, userID string) (*models.UserConfig, error)
}

type configService struct {
	configRepo interfaces.ConfigRepository
	logger     *logger.Logger
}

func NewConfigService(configRepo interfaces.ConfigRepository, log *logger.Logger) ConfigService {
	return &configService{
		configRepo: configRepo,
		logger:     log,
	}
}

func (s *configService) SaveConfig(ctx context.Context, cfg *models.UserConfig) error {
	if cfg.UserID == "" {
		return fmt.Errorf("user id is required")
	}

	if err := s.configRepo.Save(ctx, cfg); err != nil {
		return err
	}

	s.logger.WithField("user_id", cfg.UserID).Info("user config saved")
	return nil
}

func (s *configService) GetConfig(ctx context.Context, userID string) (*models.UserConfig, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.configRepo.GetByUserID(ctx, userID)
}
