package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionPlan is an admin-managed bundle of OTT platforms.
type SubscriptionPlan struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PlanName     string             `json:"plan_name" bson:"plan_name" validate:"required"`
	PlanType     string             `json:"plan_type" bson:"plan_type" validate:"required"`
	Platforms    []string           `json:"platforms" bson:"platforms"`
	Price        float64            `json:"price" bson:"price" validate:"required"`
	DurationDays int                `json:"duration_days" bson:"duration_days" validate:"required"`
	Features     []string           `json:"features" bson:"features"`
	IsActive     bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedBy    string             `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// OTTPlatform describes a streaming platform offered in bundles.
type OTTPlatform struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" validate:"required"`
	DisplayName string             `json:"display_name" bson:"display_name"`
	Icon        string             `json:"icon" bson:"icon"`
	Country     string             `json:"country" bson:"country" default:"India"`

	MobilePlan  *float64 `json:"mobile_plan" bson:"mobile_plan"`
	MonthlyPlan *float64 `json:"monthly_plan" bson:"monthly_plan"`
	YearlyPlan  *float64 `json:"yearly_plan" bson:"yearly_plan"`
	FamilyPlan  *float64 `json:"family_plan" bson:"family_plan"`

	Features     []string  `json:"features" bson:"features"`
	ContentTypes []string  `json:"content_types" bson:"content_types"`
	Languages    []string  `json:"languages" bson:"languages"`
	WebsiteURL   string    `json:"website_url" bson:"website_url"`
	IsActive     bool      `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	PlanTypeWeekly  = "weekly"
	PlanTypeMonthly = "monthly"
	PlanTypeYearly  = "yearly"

	DefaultPlanDurationDays = 30
)

var planDurationDays = map[string]int{
	PlanTypeWeekly:  7,
	PlanTypeMonthly: 30,
	PlanTypeYearly:  365,
}

// DurationForPlanType maps a plan type to its duration in days. Exact
// (case-insensitive) plan types hit the lookup table; free-text plan names
// fall back to containment so "Weekly Special" still resolves to 7 days.
// Unknown types default to 30 days.
func DurationForPlanType(planType string) int {
	normalized := strings.ToLower(strings.TrimSpace(planType))

	if days, ok := planDurationDays[normalized]; ok {
		return days
	}

	for plan, days := range planDurationDays {
		if strings.Contains(normalized, plan) {
			return days
		}
	}

	return DefaultPlanDurationDays
}
