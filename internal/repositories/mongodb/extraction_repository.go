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

type extractionRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewExtractionRepository(db *mongo.Database, cache services.CacheService) interfaces.ExtractionRepository {
	return &extractionRepository{
		collection: db.Collection("extractions"),
		cache:      cache,
	}
}

func (r *extractionRepository) Create(ctx context.Context, extraction *models.Extraction) error {
	extraction.ID = primitive.NewObjectID()
	extraction.Timestamp = time.Now()

	_, err := r.collection.InsertOne(ctx, extraction)
	if err != nil {
		return fmt.Errorf("failed to create extraction: %w", err)
	}

	return nil
}

func (r *extractionRepository) GetByExtractionID(ctx context.Context, extractionID string) (*models.Extraction, error) {
	var extraction models.Extraction
	err := r.collection.FindOne(ctx, bson.M{"extraction_id": extractionID}).Decode(&extraction)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}

	return &extraction, nil
}

func (r *extractionRepository) GetByUser(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Extraction, int64, error) {
	filter := bson.M{"telegram_id": telegramID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count extractions: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find extractions: %w", err)
	}
	defer cursor.Close(ctx)

	var extractions []*models.Extraction
	if err := cursor.All(ctx, &extractions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode extractions: %w", err)
	}

	return extractions, total, nil
}

func (r *extractionRepository) MarkDownloadStarted(ctx context.Context, extractionID, quality string, at time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"extraction_id": extractionID},
		bson.M{"$set": bson.M{
			"downloaded_quality":  quality,
			"download_status":     models.DownloadStatusReady,
			"download_started_at": at,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark download started: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *extractionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"timestamp": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("failed to count extractions: %w", err)
	}
	return count, nil
}

func (r *extractionRepository) CountByUser(ctx context.Context, telegramID int64) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"telegram_id": telegramID})
	if err != nil {
		return 0, fmt.Errorf("failed to count user extractions: %w", err)
	}
	return count, nil
}
