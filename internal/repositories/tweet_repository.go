package repositories

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// TweetRepository exposes data access for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Tweet, error)
	// Delete removes the tweet and the likes on it.
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
}
