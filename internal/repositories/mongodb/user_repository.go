package mongodb

import (
	"context"
	"fmt"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/services"
	"ottbot/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewUserRepository(db *mongo.Database, cache services.CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.LastActive = time.Now()
	if user.ActiveSubscriptions == nil {
		user.ActiveSubscriptions = []models.Subscription{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	if user := r.getUserFromCache(ctx, telegramID); user != nil {
		return user, nil
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}

	r.cacheUser(ctx, &user)

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, telegramID int64, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"telegram_id": telegramID},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	r.invalidateUserCache(ctx, telegramID)

	return nil
}

func (r *userRepository) Delete(ctx context.Context, telegramID int64) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"telegram_id": telegramID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	r.invalidateUserCache(ctx, telegramID)

	return nil
}

// Subscriptions
func (r *userRepository) AppendSubscription(ctx context.Context, telegramID int64, sub *models.Subscription, amountPaid float64) error {
	update := bson.M{
		"$push": bson.M{"active_subscriptions": sub},
		"$inc":  bson.M{"total_spent": amountPaid},
		"$set":  bson.M{"updated_at": time.Now(), "is_premium": true},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("failed to append subscription: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	r.invalidateUserCache(ctx, telegramID)

	return nil
}

func (r *userRepository) DeactivateExpiredSubscriptions(ctx context.Context, telegramID int64, now time.Time) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"telegram_id": telegramID},
		bson.M{"$set": bson.M{
			"active_subscriptions.$[expired].is_active": false,
			"updated_at": now,
		}},
		optionsWithArrayFilter(bson.M{"expired.expiry_date": bson.M{"$lte": now}}),
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate expired subscriptions: %w", err)
	}

	r.invalidateUserCache(ctx, telegramID)

	return nil
}

// Usage totals
func (r *userRepository) IncrementUsageTotals(ctx context.Context, telegramID int64, extractions, downloads int64, dataMB float64) error {
	update := bson.M{
		"$inc": bson.M{
			"total_extractions":        extractions,
			"total_downloads":          downloads,
			"total_data_downloaded_mb": dataMB,
		},
		"$set": bson.M{"updated_at": time.Now(), "last_active": time.Now()},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("failed to increment usage totals: %w", err)
	}

	r.invalidateUserCache(ctx, telegramID)

	return nil
}

func (r *userRepository) TouchLastActive(ctx context.Context, telegramID int64) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"telegram_id": telegramID},
		bson.M{"$set": bson.M{"last_active": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to touch last active: %w", err)
	}
	return nil
}

// Listing and reporting
func (r *userRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error) {
	filter := params.GetSearchFilter([]string{"telegram_username", "first_name", "last_name"})

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %w", err)
	}

	return users, total, nil
}

func (r *userRepository) ListTelegramIDs(ctx context.Context, audience models.BroadcastAudience, now time.Time) ([]int64, error) {
	filter := bson.M{}
	switch audience {
	case models.BroadcastAudiencePremium:
		filter = activeSubscriptionFilter(now)
	case models.BroadcastAudienceFree:
		filter = bson.M{"$nor": []bson.M{activeSubscriptionFilter(now)}}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list telegram ids: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []int64
	for cursor.Next(ctx) {
		var doc struct {
			TelegramID int64 `bson:"telegram_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode telegram id: %w", err)
		}
		ids = append(ids, doc.TelegramID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error listing telegram ids: %w", err)
	}

	return ids, nil
}

func (r *userRepository) CountTotal(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *userRepository) CountWithActiveSubscription(ctx context.Context, now time.Time) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, activeSubscriptionFilter(now))
	if err != nil {
		return 0, fmt.Errorf("failed to count premium users: %w", err)
	}
	return count, nil
}

// activeSubscriptionFilter matches users with at least one unexpired entry.
// Expiry is judged on the stored date, not the is_active flag, so a stale
// flag cannot extend access.
func activeSubscriptionFilter(now time.Time) bson.M {
	return bson.M{
		"active_subscriptions": bson.M{
			"$elemMatch": bson.M{"expiry_date": bson.M{"$gt": now}},
		},
	}
}

// Helpers
func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache == nil {
		return
	}
	cacheKey := fmt.Sprintf("%s%d", utils.CacheUserPrefix, user.TelegramID)
	r.cache.Set(ctx, cacheKey, user, 5*time.Minute)
}

func (r *userRepository) getUserFromCache(ctx context.Context, telegramID int64) *models.User {
	if r.cache == nil {
		return nil
	}

	var user models.User
	cacheKey := fmt.Sprintf("%s%d", utils.CacheUserPrefix, telegramID)
	if err := r.cache.Get(ctx, cacheKey, &user); err != nil {
		return nil
	}
	return &user
}

func (r *userRepository) invalidateUserCache(ctx context.Context, telegramID int64) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, fmt.Sprintf("%s%d", utils.CacheUserPrefix, telegramID))
}
