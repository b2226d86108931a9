package services

import (
	"context"
	"fmt"

	"ottbot/internal/config"
	"ottbot/internal/utils"
	"ottbot/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	// Login checks admin credentials and issues a token pair.
	Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*utils.AdminClaims, error)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Username string           `json:"username"`
	Role     string           `json:"role"`
	Tokens   *utils.TokenPair `json:"tokens"`
}

type authService struct {
	cfg    *config.SecurityConfig
	logger *logger.Logger
}

func NewAuthService(cfg *config.SecurityConfig, log *logger.Logger) AuthService {
	return &authService{
		cfg:    cfg,
		logger: log,
	}
}

func (s *authService) Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error) {
	if request.Username != s.cfg.AdminUsername {
		return nil, fmt.Errorf(utils.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(request.Password)); err != nil {
		s.logger.WithField("username", request.Username).Warn("admin login rejected")
		return nil, fmt.Errorf(utils.ErrInvalidCredentials)
	}

	tokens, err := utils.GenerateTokenPair(request.Username, "admin", s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	s.logger.WithField("username", request.Username).Info("admin logged in")

	return &AuthResponse{
		Username: request.Username,
		Role:     "admin",
		Tokens:   tokens,
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	tokens, err := utils.RefreshAccessToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf(utils.ErrInvalidToken)
	}

	claims, err := utils.ValidateToken(tokens.AccessToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf(utils.ErrInvalidToken)
	}

	return &AuthResponse{
		Username: claims.Username,
		Role:     claims.Role,
		Tokens:   tokens,
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.AdminClaims, error) {
	return utils.ValidateToken(token, s.cfg.JWTSecret)
}
