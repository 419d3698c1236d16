package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// PlaylistRepository exposes data access for playlists and their membership.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id string, patch models.PlaylistPatch) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	// AddVideo appends the video; ErrConflict when it is already a member.
	AddVideo(ctx context.Context, id, videoID string) (models.Playlist, error)
	// RemoveVideo drops the video; ErrNotFound when it is not a member.
	RemoveVideo(ctx context.Context, id, videoID string) (models.Playlist, error)
}
