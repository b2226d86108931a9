package interfaces

import (
	"context"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	Update(ctx context.Context, telegramID int64, updates map[string]interface{}) error
	Delete(ctx context.Context, telegramID int64) error

	// Subscriptions. AppendSubscription pushes a new entry and bumps the
	// spend total in one atomic update; entries are never rewritten in place.
	AppendSubscription(ctx context.Context, telegramID int64, sub *models.Subscription, amountPaid float64) error
	DeactivateExpiredSubscriptions(ctx context.Context, telegramID int64, now time.Time) error

	// Usage totals
	IncrementUsageTotals(ctx context.Context, telegramID int64, extractions, downloads int64, dataMB float64) error
	TouchLastActive(ctx context.Context, telegramID int64) error

	// Listing and reporting
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error)
	ListTelegramIDs(ctx context.Context, audience models.BroadcastAudience, now time.Time) ([]int64, error)
	CountTotal(ctx context.Context) (int64, error)
	CountWithActiveSubscription(ctx context.Context, now time.Time) (int64, error)
}
