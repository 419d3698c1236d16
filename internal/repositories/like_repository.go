package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// LikeRepository exposes likes across videos, tweets and comments.
type LikeRepository interface {
	// Toggle atomically removes the (target, likedBy) like when present and
	// creates it otherwise. Racing toggles surface as ErrConflict.
	Toggle(ctx context.Context, id string, target models.LikeTarget, likedBy string) (liked bool, err error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoSummary, error)
	// TotalsGivenBy counts the likes a user gave, per kind, whose target still exists.
	TotalsGivenBy(ctx context.Context, userID string) (models.LikeTotals, error)
}
