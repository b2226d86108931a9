package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Payment is a UPI payment record. It is created when a user picks a plan,
// gets a screenshot attached as proof, and is decided exactly once by an
// admin. Verified and rejected are terminal.
type Payment struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	TelegramID int64              `json:"telegram_id" bson:"telegram_id" validate:"required"`

	Amount    float64  `json:"amount" bson:"amount" validate:"required"`
	PlanType  string   `json:"plan_type" bson:"plan_type" validate:"required"`
	Platforms []string `json:"platforms" bson:"platforms"`

	UPIID         string `json:"upi_id" bson:"upi_id"`
	TransactionID string `json:"transaction_id" bson:"transaction_id"`
	PaymentLinkID string `json:"payment_link_id" bson:"payment_link_id"`

	ScreenshotFileID string `json:"screenshot_file_id" bson:"screenshot_file_id"`
	ScreenshotURL    string `json:"screenshot_url" bson:"screenshot_url"`

	Status           PaymentStatus `json:"status" bson:"status" default:"pending"`
	VerifiedBy       string        `json:"verified_by" bson:"verified_by"`
	VerificationDate *time.Time    `json:"verification_date" bson:"verification_date"`
	RejectionReason  string        `json:"rejection_reason" bson:"rejection_reason"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *Payment) IsDecided() bool {
	return p.Status != PaymentStatusPending
}
