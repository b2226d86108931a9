package services

import (
	"context"
	"errors"
	"fmt"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/utils"
	"ottbot/pkg/logger"
)

type UserService interface {
	// EnsureUser upserts the user from Telegram profile data and reports
	// whether the user was newly created.
	EnsureUser(ctx context.Context, profile *TelegramProfile) (*models.User, bool, error)
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	ListUsers(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error)
	UpdatePreferences(ctx context.Context, telegramID int64, prefs *models.UserPreferences) error
	TouchLastActive(ctx context.Context, telegramID int64) error
	DeleteUser(ctx context.Context, telegramID int64) error
}

type TelegramProfile struct {
	TelegramID int64  `json:"telegram_id" validate:"required"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

type userService struct {
	userRepo interfaces.UserRepository
	adminIDs map[int64]bool
	logger   *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, adminIDs []int64, log *logger.Logger) UserService {
	adminSet := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		adminSet[id] = true
	}

	return &userService{
		userRepo: userRepo,
		adminIDs: adminSet,
		logger:   log,
	}
}

func (s *userService) EnsureUser(ctx context.Context, profile *TelegramProfile) (*models.User, bool, error) {
	existing, err := s.userRepo.GetByTelegramID(ctx, profile.TelegramID)
	if err == nil {
		// Keep profile fields current; Telegram users rename themselves.
		if existing.TelegramUsername != profile.Username ||
			existing.FirstName != profile.FirstName ||
			existing.LastName != profile.LastName {
			updates := map[string]interface{}{
				"telegram_username": profile.Username,
				"first_name":        profile.FirstName,
				"last_name":         profile.LastName,
			}
			if err := s.userRepo.Update(ctx, profile.TelegramID, updates); err != nil {
				s.logger.WithError(err).WithTelegramID(profile.TelegramID).Warn("failed to refresh user profile")
			}
		}
		return existing, false, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	user := &models.User{
		TelegramID:       profile.TelegramID,
		TelegramUsername: profile.Username,
		FirstName:        profile.FirstName,
		LastName:         profile.LastName,
		IsAdmin:          s.adminIDs[profile.TelegramID],
		Preferences: models.UserPreferences{
			NotificationFrequency: "daily",
			NotificationTime:      "09:00",
			Region:                "India",
		},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			// Lost a create race; the other writer's document wins.
			existing, err := s.userRepo.GetByTelegramID(ctx, profile.TelegramID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to get user after create race: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithTelegramID(user.TelegramID).Info("new user registered")

	return user, true, nil
}

func (s *userService) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error) {
	return s.userRepo.List(ctx, params)
}

func (s *userService) UpdatePreferences(ctx context.Context, telegramID int64, prefs *models.UserPreferences) error {
	if err := s.userRepo.Update(ctx, telegramID, map[string]interface{}{"preferences": prefs}); err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}

func (s *userService) TouchLastActive(ctx context.Context, telegramID int64) error {
	return s.userRepo.TouchLastActive(ctx, telegramID)
}

func (s *userService) DeleteUser(ctx context.Context, telegramID int64) error {
	if err := s.userRepo.Delete(ctx, telegramID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.WithTelegramID(telegramID).Warn("user deleted")
	return nil
}
