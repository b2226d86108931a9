package mongodb

import (
	"context"
	"fmt"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type usageRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewUsageRepository(db *mongo.Database, cache services.CacheService) interfaces.UsageRepository {
	return &usageRepository{
		collection: db.Collection("user_usage"),
		cache:      cache,
	}
}

func (r *usageRepository) IncrementUsage(ctx context.Context, telegramID int64, date string, usageType models.UsageType) (*models.DailyUsage, error) {
	field := "extraction_count"
	if usageType == models.UsageTypeDownload {
		field = "download_count"
	}

	// Upsert keeps the (telegram_id, date) bucket unique; the index rejects
	// a duplicate insert if two first-of-the-day requests race.
	update := bson.M{
		"$inc": bson.M{field: 1},
		"$set": bson.M{"last_used_at": time.Now()},
		"$setOnInsert": bson.M{
			"telegram_id": telegramID,
			"date":        date,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var usage models.DailyUsage
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"telegram_id": telegramID, "date": date},
		update,
		opts,
	).Decode(&usage)
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}

	return &usage, nil
}

func (r *usageRepository) GetUsage(ctx context.Context, telegramID int64, date string) (*models.DailyUsage, error) {
	var usage models.DailyUsage
	err := r.collection.FindOne(ctx, bson.M{"telegram_id": telegramID, "date": date}).Decode(&usage)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &models.DailyUsage{TelegramID: telegramID, Date: date}, nil
		}
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}

	return &usage, nil
}
