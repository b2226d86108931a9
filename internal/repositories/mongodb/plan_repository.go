package mongodb

import (
	"context"
	"fmt"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type planRepository struct {
	plans     *mongo.Collection
	platforms *mongo.Collection
	cache     services.CacheService
}

func NewPlanRepository(db *mongo.Database, cache services.CacheService) interfaces.PlanRepository {
	return &planRepository{
		plans:     db.Collection("subscription_plans"),
		platforms: db.Collection("ott_platforms"),
		cache:     cache,
	}
}

// Plans
func (r *planRepository) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	plan.ID = primitive.NewObjectID()
	plan.IsActive = true
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	if plan.DurationDays <= 0 {
		plan.DurationDays = models.DurationForPlanType(plan.PlanType)
	}

	_, err := r.plans.InsertOne(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	r.invalidatePlanCache(ctx)

	return nil
}

func (r *planRepository) GetPlanByID(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.plans.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

func (r *planRepository) GetActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	if plans := r.getPlansFromCache(ctx); plans != nil {
		return plans, nil
	}

	cursor, err := r.plans.Find(
		ctx,
		bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "price", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get active plans: %w", err)
	}
	defer cursor.Close(ctx)

	var plans []*models.SubscriptionPlan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}

	r.cachePlans(ctx, plans)

	return plans, nil
}

func (r *planRepository) UpdatePlan(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.plans.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	r.invalidatePlanCache(ctx)

	return nil
}

func (r *planRepository) DeactivatePlan(ctx context.Context, id primitive.ObjectID) error {
	return r.UpdatePlan(ctx, id, map[string]interface{}{"is_active": false})
}

// Platforms
func (r *planRepository) UpsertPlatform(ctx context.Context, platform *models.OTTPlatform) error {
	update := bson.M{
		"$set": bson.M{
			"display_name":  platform.DisplayName,
			"icon":          platform.Icon,
			"country":       platform.Country,
			"mobile_plan":   platform.MobilePlan,
			"monthly_plan":  platform.MonthlyPlan,
			"yearly_plan":   platform.YearlyPlan,
			"family_plan":   platform.FamilyPlan,
			"features":      platform.Features,
			"content_types": platform.ContentTypes,
			"languages":     platform.Languages,
			"website_url":   platform.WebsiteURL,
			"is_active":     platform.IsActive,
			"updated_at":    time.Now(),
		},
		"$setOnInsert": bson.M{
			"name":       platform.Name,
			"created_at": time.Now(),
		},
	}

	_, err := r.platforms.UpdateOne(
		ctx,
		bson.M{"name": platform.Name},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert platform: %w", err)
	}

	return nil
}

func (r *planRepository) GetActivePlatforms(ctx context.Context) ([]*models.OTTPlatform, error) {
	cursor, err := r.platforms.Find(
		ctx,
		bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get platforms: %w", err)
	}
	defer cursor.Close(ctx)

	var platforms []*models.OTTPlatform
	if err := cursor.All(ctx, &platforms); err != nil {
		return nil, fmt.Errorf("failed to decode platforms: %w", err)
	}

	return platforms, nil
}

func (r *planRepository) GetPlatformByName(ctx context.Context, name string) (*models.OTTPlatform, error) {
	var platform models.OTTPlatform
	err := r.platforms.FindOne(ctx, bson.M{"name": name}).Decode(&platform)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get platform: %w", err)
	}

	return &platform, nil
}

// Helpers
const activePlansCacheKey = "plans:active"

func (r *planRepository) cachePlans(ctx context.Context, plans []*models.SubscriptionPlan) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, activePlansCacheKey, plans, 10*time.Minute)
}

func (r *planRepository) getPlansFromCache(ctx context.Context) []*models.SubscriptionPlan {
	if r.cache == nil {
		return nil
	}

	var plans []*models.SubscriptionPlan
	if err := r.cache.Get(ctx, activePlansCacheKey, &plans); err != nil || len(plans) == 0 {
		return nil
	}
	return plans
}

func (r *planRepository) invalidatePlanCache(ctx context.Context) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, activePlansCacheKey)
}
