package interfaces

import (
	"context"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Proof attachment
	SetScreenshot(ctx context.Context, id primitive.ObjectID, fileID, url string) error

	// Decision. MarkDecided only moves a payment out of pending; it reports
	// false without touching the document when the payment was already
	// decided, so concurrent admins cannot double-apply a decision.
	MarkDecided(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus, decidedBy, reason string) (bool, error)

	// Queries
	GetPending(ctx context.Context) ([]*models.Payment, error)
	GetByUser(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Payment, int64, error)
	GetByStatus(ctx context.Context, status models.PaymentStatus, params *utils.PaginationParams) ([]*models.Payment, int64, error)
	GetByPaymentLinkID(ctx context.Context, linkID string) (*models.Payment, error)

	// Reporting
	CountByStatus(ctx context.Context, status models.PaymentStatus) (int64, error)
	TotalRevenue(ctx context.Context) (float64, error)
	GetPaymentsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Payment, error)
}
