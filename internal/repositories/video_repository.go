package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// VideoRepository exposes data access for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error)
	// Delete removes the video together with its comments, likes, playlist
	// memberships and watch-history entries.
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	List(ctx context.Context, query models.VideoQuery) (models.VideoPage, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	Totals(ctx context.Context, ownerID string) (models.VideoTotals, error)
}
