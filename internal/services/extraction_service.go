package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/utils"
	"ottbot/pkg/logger"
	"ottbot/pkg/video"
	"ottbot/pkg/widevine"
)

var ErrQuotaExceeded = errors.New(utils.ErrQuotaExceeded)

type ExtractionService interface {
	// ExtractKeys consumes one extraction quota unit, calls the key API and
	// persists the attempt with detected platform and quality ladder.
	ExtractKeys(ctx context.Context, req *ExtractRequest) (*models.Extraction, error)

	// StartDownload consumes one download quota unit and records the chosen
	// quality on an existing extraction.
	StartDownload(ctx context.Context, telegramID int64, extractionID, quality string) (*models.Extraction, error)

	// Queries
	GetExtraction(ctx context.Context, extractionID string) (*models.Extraction, error)
	GetUserExtractions(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Extraction, int64, error)
	CountUserExtractions(ctx context.Context, telegramID int64) (int64, error)
}

type ExtractRequest struct {
	TelegramID  int64             `json:"telegram_id" validate:"required"`
	UserID      string            `json:"user_id"`
	PSSH        string            `json:"pssh" validate:"required"`
	LicenseURL  string            `json:"license_url" validate:"required"`
	ManifestURL string            `json:"manifest_url"`
	Headers     map[string]string `json:"headers"`
}

type extractionService struct {
	extractionRepo interfaces.ExtractionRepository
	userRepo       interfaces.UserRepository
	quota          QuotaService
	extractor      *widevine.Extractor
	detector       *video.Detector
	logger         *logger.Logger
}

func NewExtractionService(
	extractionRepo interfaces.ExtractionRepository,
	userRepo interfaces.UserRepository,
	quota QuotaService,
	extractor *widevine.Extractor,
	detector *video.Detector,
	log *logger.Logger,
) ExtractionService {
	return &extractionService{
		extractionRepo: extractionRepo,
		userRepo:       userRepo,
		quota:          quota,
		extractor:      extractor,
		detector:       detector,
		logger:         log,
	}
}

func (s *extractionService) ExtractKeys(ctx context.Context, req *ExtractRequest) (*models.Extraction, error) {
	ok, _, err := s.quota.Consume(ctx, req.TelegramID, models.UsageTypeExtraction)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrQuotaExceeded
	}

	started := time.Now()

	result, err := s.extractor.ExtractKeys(ctx, &widevine.ExtractRequest{
		PSSH:       req.PSSH,
		LicenseURL: req.LicenseURL,
		Headers:    req.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("key extraction failed: %w", err)
	}

	extraction := &models.Extraction{
		ExtractionID:     utils.GenerateExtractionID(),
		Success:          result.Success,
		Error:            result.Error,
		Platform:         video.DetectPlatform(req.LicenseURL),
		PSSH:             req.PSSH,
		LicenseURL:       req.LicenseURL,
		ExtractionTimeMS: time.Since(started).Milliseconds(),
		UserID:           req.UserID,
		TelegramID:       req.TelegramID,
	}

	for _, key := range result.Keys {
		extraction.Keys = append(extraction.Keys, models.ExtractionKey{KID: key.KID, Key: key.Key})
	}

	if result.Success {
		var ladder []video.Quality
		if req.ManifestURL != "" {
			ladder = s.detector.DetectFromManifest(ctx, req.ManifestURL, req.Headers)
		} else {
			ladder = video.DefaultLadder()
		}

		for _, q := range ladder {
			extraction.AvailableQualities = append(extraction.AvailableQualities, models.VideoQuality{
				QualityID:  q.QualityID,
				Resolution: q.Resolution,
				Bitrate:    q.Bitrate,
				Codec:      q.Codec,
				FPS:        q.FPS,
				FileSizeMB: q.FileSizeMB,
			})
		}
		extraction.RecommendedQuality = video.RecommendedQuality(ladder)
	}

	if err := s.extractionRepo.Create(ctx, extraction); err != nil {
		return nil, err
	}

	if err := s.userRepo.IncrementUsageTotals(ctx, req.TelegramID, 1, 0, 0); err != nil {
		s.logger.WithError(err).WithTelegramID(req.TelegramID).Warn("failed to bump extraction totals")
	}

	s.logger.WithTelegramID(req.TelegramID).WithFields(map[string]interface{}{
		"extraction_id": extraction.ExtractionID,
		"platform":      extraction.Platform,
		"success":       extraction.Success,
		"keys":          len(extraction.Keys),
	}).Info("keys extracted")

	return extraction, nil
}

func (s *extractionService) StartDownload(ctx context.Context, telegramID int64, extractionID, quality string) (*models.Extraction, error) {
	extraction, err := s.extractionRepo.GetByExtractionID(ctx, extractionID)
	if err != nil {
		return nil, err
	}
	if extraction.TelegramID != telegramID {
		return nil, interfaces.ErrNotFound
	}
	if !extraction.Success {
		return nil, fmt.Errorf("extraction %s has no usable keys", extractionID)
	}

	if quality == "" {
		quality = extraction.RecommendedQuality
	}
	if !hasQuality(extraction.AvailableQualities, quality) {
		return nil, fmt.Errorf("quality %s not available for extraction %s", quality, extractionID)
	}

	ok, _, err := s.quota.Consume(ctx, telegramID, models.UsageTypeDownload)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrQuotaExceeded
	}

	now := time.Now()
	if _, err := s.extractionRepo.MarkDownloadStarted(ctx, extractionID, quality, now); err != nil {
		return nil, err
	}

	sizeMB := 0.0
	for _, q := range extraction.AvailableQualities {
		if q.QualityID == quality {
			sizeMB = q.FileSizeMB
			break
		}
	}

	if err := s.userRepo.IncrementUsageTotals(ctx, telegramID, 0, 1, sizeMB); err != nil {
		s.logger.WithError(err).WithTelegramID(telegramID).Warn("failed to bump download totals")
	}

	extraction.DownloadedQuality = quality
	extraction.DownloadStatus = models.DownloadStatusReady
	extraction.DownloadStartedAt = &now

	return extraction, nil
}

func (s *extractionService) GetExtraction(ctx context.Context, extractionID string) (*models.Extraction, error) {
	return s.extractionRepo.GetByExtractionID(ctx, extractionID)
}

func (s *extractionService) GetUserExtractions(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Extraction, int64, error) {
	return s.extractionRepo.GetByUser(ctx, telegramID, params)
}

func (s *extractionService) CountUserExtractions(ctx context.Context, telegramID int64) (int64, error) {
	return s.extractionRepo.CountByUser(ctx, telegramID)
}

func hasQuality(qualities []models.VideoQuality, qualityID string) bool {
	for _, q := range qualities {
		if q.QualityID == qualityID {
			return true
		}
	}
	return false
}
