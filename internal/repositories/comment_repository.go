package repositories

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Comment, error)
	// Delete removes the comment and the likes on it.
	Delete(ctx context.Context, id string) error
	ListForVideo(ctx context.Context, videoID string, page models.PageRequest) (models.CommentPage, error)
}
