package interfaces

import (
	"context"

	"ottbot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BroadcastRepository interface {
	Create(ctx context.Context, broadcast *models.Broadcast) error
	Finish(ctx context.Context, id primitive.ObjectID, sentCount, failCount int) error
	GetRecent(ctx context.Context, limit int) ([]*models.Broadcast, error)
}
