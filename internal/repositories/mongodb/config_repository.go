package mongodb

import (
	"context"
	"fmt"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type configRepository struct {
	collection *mongo.Collection
}

func NewConfigRepository(db *mongo.Database) interfaces.ConfigRepository {
	return &configRepository{
		collection: db.Collection("user_configs"),
	}
}

func (r *configRepository) Save(ctx context.Context, cfg *models.UserConfig) error {
	now := time.Now()

	update := bson.M{
		"$set": bson.M{
			"widevine_api_key": cfg.WidevineAPIKey,
			"telegram_chat_id": cfg.TelegramChatID,
			"updated_at":       now,
		},
		"$setOnInsert": bson.M{
			"user_id":    cfg.UserID,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved models.UserConfig
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": cfg.UserID}, update, opts).Decode(&saved)
	if err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	*cfg = saved
	return nil
}

func (r *configRepository) GetByUserID(ctx context.Context, userID string) (*models.UserConfig, error) {
	var cfg models.UserConfig
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user config: %w", err)
	}
	return &cfg, nil
}
