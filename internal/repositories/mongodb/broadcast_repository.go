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

type broadcastRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewBroadcastRepository(db *mongo.Database, cache services.CacheService) interfaces.BroadcastRepository {
	return &broadcastRepository{
		collection: db.Collection("broadcasts"),
		cache:      cache,
	}
}

func (r *broadcastRepository) Create(ctx context.Context, broadcast *models.Broadcast) error {
	broadcast.ID = primitive.NewObjectID()
	broadcast.Status = models.BroadcastStatusSending
	broadcast.CreatedAt = time.Now()
	broadcast.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, broadcast)
	if err != nil {
		return fmt.Errorf("failed to create broadcast: %w", err)
	}

	return nil
}

func (r *broadcastRepository) Finish(ctx context.Context, id primitive.ObjectID, sentCount, failCount int) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     models.BroadcastStatusFinished,
			"sent_count": sentCount,
			"fail_count": failCount,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to finish broadcast: %w", err)
	}

	return nil
}

func (r *broadcastRepository) GetRecent(ctx context.Context, limit int) ([]*models.Broadcast, error) {
	if limit <= 0 {
		limit = 20
	}

	cursor, err := r.collection.Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get broadcasts: %w", err)
	}
	defer cursor.Close(ctx)

	var broadcasts []*models.Broadcast
	if err := cursor.All(ctx, &broadcasts); err != nil {
		return nil, fmt.Errorf("failed to decode broadcasts: %w", err)
	}

	return broadcasts, nil
}
