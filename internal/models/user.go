package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionSource string

const (
	SubscriptionSourcePayment  SubscriptionSource = "payment"
	SubscriptionSourceReferral SubscriptionSource = "referral_reward"
	SubscriptionSourceAdmin    SubscriptionSource = "admin_grant"
)

// Subscription is embedded in the user document. Entries are append-only;
// renewals add a new entry rather than mutating an existing one.
type Subscription struct {
	SubscriptionID string             `json:"subscription_id" bson:"subscription_id"`
	PlanType       string             `json:"plan_type" bson:"plan_type"`
	Platforms      []string           `json:"platforms" bson:"platforms"`
	AmountPaid     float64            `json:"amount_paid" bson:"amount_paid"`
	StartDate      time.Time          `json:"start_date" bson:"start_date"`
	ExpiryDate     time.Time          `json:"expiry_date" bson:"expiry_date"`
	IsActive       bool               `json:"is_active" bson:"is_active"`
	PaymentID      string             `json:"payment_id" bson:"payment_id"`
	Source         SubscriptionSource `json:"source" bson:"source" default:"payment"`
}

// Expired reports whether the entry is past its expiry. The stored is_active
// flag is redundant with this and is refreshed by the subscription service.
func (s *Subscription) Expired(now time.Time) bool {
	return !now.Before(s.ExpiryDate)
}

type UserPreferences struct {
	PreferredLanguages    []string `json:"preferred_languages" bson:"preferred_languages"`
	PreferredGenres       []string `json:"preferred_genres" bson:"preferred_genres"`
	PreferredPlatforms    []string `json:"preferred_platforms" bson:"preferred_platforms"`
	NotificationFrequency string   `json:"notification_frequency" bson:"notification_frequency" default:"daily"`
	NotificationTime      string   `json:"notification_time" bson:"notification_time" default:"09:00"`
	Region                string   `json:"region" bson:"region" default:"India"`
}

type User struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TelegramID       int64              `json:"telegram_id" bson:"telegram_id" validate:"required"`
	TelegramUsername string             `json:"telegram_username" bson:"telegram_username"`
	FirstName        string             `json:"first_name" bson:"first_name"`
	LastName         string             `json:"last_name" bson:"last_name"`
	IsAdmin          bool               `json:"is_admin" bson:"is_admin"`
	IsPremium        bool               `json:"is_premium" bson:"is_premium"`

	ActiveSubscriptions []Subscription `json:"active_subscriptions" bson:"active_subscriptions"`
	TotalSpent          float64        `json:"total_spent" bson:"total_spent"`

	TotalExtractions      int64   `json:"total_extractions" bson:"total_extractions"`
	TotalDownloads        int64   `json:"total_downloads" bson:"total_downloads"`
	TotalDataDownloadedMB float64 `json:"total_data_downloaded_mb" bson:"total_data_downloaded_mb"`

	Preferences UserPreferences `json:"preferences" bson:"preferences"`

	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
	LastActive time.Time `json:"last_active" bson:"last_active"`
}

// HasActiveSubscription reports whether any embedded subscription is still
// within its expiry window at the given time.
func (u *User) HasActiveSubscription(now time.Time) bool {
	for i := range u.ActiveSubscriptions {
		if !u.ActiveSubscriptions[i].Expired(now) {
			return true
		}
	}
	return false
}

// UserConfig holds per-user overrides for the extraction pipeline: a personal
// Widevine API key and the chat the bot reports results to.
type UserConfig struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         string             `json:"user_id" bson:"user_id"`
	WidevineAPIKey string             `json:"widevine_api_key,omitempty" bson:"widevine_api_key,omitempty"`
	TelegramChatID int64              `json:"telegram_chat_id,omitempty" bson:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}
