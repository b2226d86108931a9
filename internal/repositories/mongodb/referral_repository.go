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

type referralRepository struct {
	edges *mongo.Collection
	stats *mongo.Collection
	cache services.CacheService
}

func NewReferralRepository(db *mongo.Database, cache services.CacheService) interfaces.ReferralRepository {
	return &referralRepository{
		edges: db.Collection("referrals"),
		stats: db.Collection("referral_stats"),
		cache: cache,
	}
}

// Edges
func (r *referralRepository) CreateEdge(ctx context.Context, referral *models.Referral) error {
	referral.ID = primitive.NewObjectID()
	referral.IsValid = false
	referral.RewardClaimed = false
	referral.CreatedAt = time.Now()

	_, err := r.edges.InsertOne(ctx, referral)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create referral edge: %w", err)
	}

	return nil
}

func (r *referralRepository) GetEdgeByReferred(ctx context.Context, referredTelegramID int64) (*models.Referral, error) {
	var referral models.Referral
	err := r.edges.FindOne(ctx, bson.M{"referred_telegram_id": referredTelegramID}).Decode(&referral)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral edge: %w", err)
	}

	return &referral, nil
}

func (r *referralRepository) GetEdgesByReferrer(ctx context.Context, referrerTelegramID int64) ([]*models.Referral, error) {
	cursor, err := r.edges.Find(
		ctx,
		bson.M{"referrer_telegram_id": referrerTelegramID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	defer cursor.Close(ctx)

	var referrals []*models.Referral
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, fmt.Errorf("failed to decode referrals: %w", err)
	}

	return referrals, nil
}

func (r *referralRepository) MarkValidated(ctx context.Context, referredTelegramID int64, at time.Time) (bool, error) {
	// Filtering on is_valid:false makes validation one-shot under races.
	result, err := r.edges.UpdateOne(
		ctx,
		bson.M{"referred_telegram_id": referredTelegramID, "is_valid": false},
		bson.M{"$set": bson.M{"is_valid": true, "validated_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to validate referral: %w", err)
	}

	return result.MatchedCount == 1, nil
}

// Stats ledger
func (r *referralRepository) InsertStats(ctx context.Context, stats *models.ReferralStats) error {
	stats.ID = primitive.NewObjectID()
	stats.CreatedAt = time.Now()
	stats.UpdatedAt = time.Now()

	_, err := r.stats.InsertOne(ctx, stats)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to insert referral stats: %w", err)
	}

	return nil
}

func (r *referralRepository) GetStats(ctx context.Context, telegramID int64) (*models.ReferralStats, error) {
	var stats models.ReferralStats
	err := r.stats.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}

	return &stats, nil
}

func (r *referralRepository) GetStatsByCode(ctx context.Context, code string) (*models.ReferralStats, error) {
	var stats models.ReferralStats
	err := r.stats.FindOne(ctx, bson.M{"referral_code": code}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral stats by code: %w", err)
	}

	return &stats, nil
}

func (r *referralRepository) IncrementStats(ctx context.Context, telegramID int64, totalDelta, validDelta, pendingDelta int) error {
	update := bson.M{
		"$inc": bson.M{
			"total_referrals":   totalDelta,
			"valid_referrals":   validDelta,
			"pending_referrals": pendingDelta,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.stats.UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("failed to increment referral stats: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *referralRepository) IncrementEarnedIf(ctx context.Context, telegramID int64, expectedEarned int) (bool, error) {
	// Compare-and-swap on the earned counter: of N concurrent claimants
	// only the one that still sees the expected value wins.
	result, err := r.stats.UpdateOne(
		ctx,
		bson.M{"telegram_id": telegramID, "rewards_earned": expectedEarned},
		bson.M{
			"$inc": bson.M{"rewards_earned": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to increment rewards earned: %w", err)
	}

	return result.MatchedCount == 1, nil
}

// Reporting
func (r *referralRepository) TopReferrers(ctx context.Context, limit int) ([]*models.ReferralStats, error) {
	if limit <= 0 {
		limit = 10
	}

	cursor, err := r.stats.Find(
		ctx,
		bson.M{"valid_referrals": bson.M{"$gt": 0}},
		options.Find().SetSort(bson.D{{Key: "valid_referrals", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []*models.ReferralStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode top referrers: %w", err)
	}

	return stats, nil
}

func (r *referralRepository) CountEdges(ctx context.Context) (int64, error) {
	count, err := r.edges.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

func (r *referralRepository) CountValidEdges(ctx context.Context) (int64, error) {
	count, err := r.edges.CountDocuments(ctx, bson.M{"is_valid": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count valid referrals: %w", err)
	}
	return count, nil
}
