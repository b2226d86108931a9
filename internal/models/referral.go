package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Referral is an edge between a referrer and a referred user. A referred
// user appears in at most one edge (unique index on referred_telegram_id)
// and an edge starts unvalidated; ValidateReferral is the only transition
// to valid. There are no further transitions.
type Referral struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReferrerTelegramID int64              `json:"referrer_telegram_id" bson:"referrer_telegram_id" validate:"required"`
	ReferredTelegramID int64              `json:"referred_telegram_id" bson:"referred_telegram_id" validate:"required"`
	ReferrerUsername   string             `json:"referrer_username" bson:"referrer_username"`
	ReferredUsername   string             `json:"referred_username" bson:"referred_username"`
	IsValid            bool               `json:"is_valid" bson:"is_valid"`
	RewardClaimed      bool               `json:"reward_claimed" bson:"reward_claimed"`
	ValidatedAt        *time.Time         `json:"validated_at" bson:"validated_at"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
}

// ReferralStats is the per-user reward ledger. Counter fields are only ever
// mutated with atomic increments so concurrent callers stay consistent.
type ReferralStats struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TelegramID       int64              `json:"telegram_id" bson:"telegram_id" validate:"required"`
	TotalReferrals   int                `json:"total_referrals" bson:"total_referrals"`
	ValidReferrals   int                `json:"valid_referrals" bson:"valid_referrals"`
	PendingReferrals int                `json:"pending_referrals" bson:"pending_referrals"`
	RewardsEarned    int                `json:"rewards_earned" bson:"rewards_earned"`
	ReferralCode     string             `json:"referral_code" bson:"referral_code" validate:"required"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// RewardStatus is the snapshot returned by CheckReferralRewards.
type RewardStatus struct {
	ValidReferrals  int `json:"valid_referrals"`
	RequiredCount   int `json:"required_count"`
	EligibleRewards int `json:"eligible_rewards"`
	PendingRewards  int `json:"pending_rewards"`
	RewardsEarned   int `json:"rewards_earned"`
	Progress        int `json:"progress"`
	NextRewardAt    int `json:"next_reward_at"`
}
