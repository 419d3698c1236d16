package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for users and their channel views.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	// FindByLogin matches either the username or the email. Empty arguments never match.
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	// RecordWatch moves the video to the most recent position of the user's history.
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error)
}
