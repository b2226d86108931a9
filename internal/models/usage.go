package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UsageType string

const (
	UsageTypeExtraction UsageType = "extraction"
	UsageTypeDownload   UsageType = "download"
)

// DailyUsage tracks per-day counters for a user, keyed by telegram id and
// UTC date. Counters only move via atomic increments.
type DailyUsage struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TelegramID      int64              `json:"telegram_id" bson:"telegram_id"`
	Date            string             `json:"date" bson:"date"` // YYYY-MM-DD, UTC
	ExtractionCount int                `json:"extraction_count" bson:"extraction_count"`
	DownloadCount   int                `json:"download_count" bson:"download_count"`
	LastUsedAt      time.Time          `json:"last_used_at" bson:"last_used_at"`
}

// QuotaStatus is the snapshot reported to callers.
type QuotaStatus struct {
	TelegramID int64     `json:"telegram_id"`
	DailyLimit int       `json:"daily_limit"`
	UsedToday  int       `json:"used_today"`
	Remaining  int       `json:"remaining"`
	HasQuota   bool      `json:"has_quota"`
	ResetsAt   time.Time `json:"resets_at"`
}
