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

type paymentRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewPaymentRepository(db *mongo.Database, cache services.CacheService) interfaces.PaymentRepository {
	return &paymentRepository{
		collection: db.Collection("payments"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = primitive.NewObjectID()
	payment.Status = models.PaymentStatusPending
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	// Decided payments are immutable, so cached copies never go stale.
	if payment := r.getPaymentFromCache(ctx, id.Hex()); payment != nil {
		return payment, nil
	}

	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.IsDecided() {
		r.cachePayment(ctx, &payment)
	}

	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	r.invalidatePaymentCache(ctx, id.Hex())

	return nil
}

// Proof attachment
func (r *paymentRepository) SetScreenshot(ctx context.Context, id primitive.ObjectID, fileID, url string) error {
	return r.Update(ctx, id, map[string]interface{}{
		"screenshot_file_id": fileID,
		"screenshot_url":     url,
	})
}

// Decision
func (r *paymentRepository) MarkDecided(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus, decidedBy, reason string) (bool, error) {
	if status != models.PaymentStatusVerified && status != models.PaymentStatusRejected {
		return false, fmt.Errorf("invalid decision status: %s", status)
	}

	now := time.Now()
	updates := bson.M{
		"status":            status,
		"verified_by":       decidedBy,
		"verification_date": now,
		"updated_at":        now,
	}
	if status == models.PaymentStatusRejected {
		updates["rejection_reason"] = reason
	}

	// The pending filter is what makes the decision single-shot: a second
	// admin racing on the same payment matches zero documents.
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.PaymentStatusPending},
		bson.M{"$set": updates},
	)
	if err != nil {
		return false, fmt.Errorf("failed to decide payment: %w", err)
	}

	r.invalidatePaymentCache(ctx, id.Hex())

	return result.MatchedCount == 1, nil
}

// Queries
func (r *paymentRepository) GetPending(ctx context.Context) ([]*models.Payment, error) {
	opts := utils.PaginationParams{Sort: "created_at", Order: "asc", Page: 1, PageSize: utils.MaxPageSize}

	cursor, err := r.collection.Find(ctx, bson.M{"status": models.PaymentStatusPending}, opts.GetSortOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to get pending payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode pending payments: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) GetByUser(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return r.findWithPagination(ctx, bson.M{"telegram_id": telegramID}, params)
}

func (r *paymentRepository) GetByStatus(ctx context.Context, status models.PaymentStatus, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return r.findWithPagination(ctx, bson.M{"status": status}, params)
}

func (r *paymentRepository) GetByPaymentLinkID(ctx context.Context, linkID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"payment_link_id": linkID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment by link id: %w", err)
	}

	return &payment, nil
}

// Reporting
func (r *paymentRepository) CountByStatus(ctx context.Context, status models.PaymentStatus) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

func (r *paymentRepository) TotalRevenue(ctx context.Context) (float64, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"status": models.PaymentStatusVerified}},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode revenue: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (r *paymentRepository) GetPaymentsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Payment, error) {
	filter := bson.M{
		"created_at": bson.M{
			"$gte": startDate,
			"$lte": endDate,
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments by date range: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}

	return payments, nil
}

// Helpers
func (r *paymentRepository) findWithPagination(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, 0, fmt.Errorf("failed to decode payments: %w", err)
	}

	return payments, total, nil
}

func (r *paymentRepository) cachePayment(ctx context.Context, payment *models.Payment) {
	if r.cache == nil {
		return
	}
	cacheKey := utils.CachePaymentPrefix + payment.ID.Hex()
	r.cache.Set(ctx, cacheKey, payment, 30*time.Minute)
}

func (r *paymentRepository) getPaymentFromCache(ctx context.Context, id string) *models.Payment {
	if r.cache == nil {
		return nil
	}

	var payment models.Payment
	if err := r.cache.Get(ctx, utils.CachePaymentPrefix+id, &payment); err != nil {
		return nil
	}
	return &payment
}

func (r *paymentRepository) invalidatePaymentCache(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, utils.CachePaymentPrefix+id)
}
