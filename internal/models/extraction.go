package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DownloadStatus string

const (
	DownloadStatusNone  DownloadStatus = ""
	DownloadStatusReady DownloadStatus = "ready"
)

type VideoQuality struct {
	QualityID  string  `json:"quality_id" bson:"quality_id"`
	Resolution string  `json:"resolution" bson:"resolution"`
	Bitrate    int     `json:"bitrate" bson:"bitrate"`
	Codec      string  `json:"codec" bson:"codec"`
	FPS        int     `json:"fps" bson:"fps"`
	FileSizeMB float64 `json:"file_size_mb" bson:"file_size_mb"`
}

type ExtractionKey struct {
	KID string `json:"kid" bson:"kid"`
	Key string `json:"key" bson:"key"`
}

// Extraction is a persisted DRM key-extraction attempt.
type Extraction struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ExtractionID string             `json:"extraction_id" bson:"extraction_id"`
	Success      bool               `json:"success" bson:"success"`
	Keys         []ExtractionKey    `json:"keys" bson:"keys"`
	Error        string             `json:"error" bson:"error"`
	Platform     string             `json:"platform" bson:"platform"`

	PSSH       string `json:"pssh" bson:"pssh"`
	LicenseURL string `json:"license_url" bson:"license_url"`

	AvailableQualities []VideoQuality `json:"available_qualities" bson:"available_qualities"`
	RecommendedQuality string         `json:"recommended_quality" bson:"recommended_quality"`

	DownloadedQuality string         `json:"downloaded_quality" bson:"downloaded_quality"`
	DownloadStatus    DownloadStatus `json:"download_status" bson:"download_status"`
	DownloadStartedAt *time.Time     `json:"download_started_at" bson:"download_started_at"`

	ExtractionTimeMS int64 `json:"extraction_time_ms" bson:"extraction_time_ms"`

	UserID     string    `json:"user_id" bson:"user_id"`
	TelegramID int64     `json:"telegram_id" bson:"telegram_id"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}
