package interfaces

import (
	"context"

	"ottbot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanRepository interface {
	// Plans
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	GetPlanByID(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error)
	GetActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	DeactivatePlan(ctx context.Context, id primitive.ObjectID) error

	// Platforms
	UpsertPlatform(ctx context.Context, platform *models.OTTPlatform) error
	GetActivePlatforms(ctx context.Context) ([]*models.OTTPlatform, error)
	GetPlatformByName(ctx context.Context, name string) (*models.OTTPlatform, error)
}
