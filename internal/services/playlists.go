package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const (
	playlistNotFoundMessage = "playlist not found"
	playlistExistsMessage   = "playlist already exists"
)

// PlaylistService implements playlists and their membership.
type PlaylistService struct {
	playlists repositories.PlaylistRepository
	videos    repositories.VideoRepository
	users     repositories.UserRepository
	now       func() time.Time
}

// NewPlaylistService wires the playlist service.
func NewPlaylistService(playlists repositories.PlaylistRepository, videos repositories.VideoRepository, users repositories.UserRepository) *PlaylistService {
	return &PlaylistService{playlists: playlists, videos: videos, users: users, now: utcNow}
}

// CreatePlaylistInput carries the create form.
type CreatePlaylistInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// UpdatePlaylistInput carries a partial update.
type UpdatePlaylistInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *PlaylistService) Create(ctx context.Context, ownerID string, in CreatePlaylistInput) (models.Playlist, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInput(in); err != nil {
		return models.Playlist{}, err
	}

	now := s.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		Owner:       ownerID,
		Name:        in.Name,
		Description: in.Description,
		Videos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict(playlistExistsMessage)
		}
		return models.Playlist{}, storeError(err, "user not found")
	}
	return playlist, nil
}

func (s *PlaylistService) Get(ctx context.Context, playlistID string) (models.Playlist, error) {
	if err := requireID("playlistId", playlistID); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, storeError(err, playlistNotFoundMessage)
	}
	return playlist, nil
}

// ListByUser returns every playlist the user owns.
func (s *PlaylistService) ListByUser(ctx context.Context, userID string) ([]models.Playlist, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, storeError(err, "user not found")
	}

	playlists, err := s.playlists.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	return playlists, nil
}

func (s *PlaylistService) Update(ctx context.Context, playlistID, actorID string, in UpdatePlaylistInput) (models.Playlist, error) {
	in.Name = trimPtr(in.Name)
	in.Description = trimPtr(in.Description)

	if in.Name == nil && in.Description == nil {
		return models.Playlist{}, apperr.Validation("at least one of name or description is required")
	}
	if in.Name != nil && *in.Name == "" {
		return models.Playlist{}, apperr.Validation("name cannot be empty")
	}

	if _, err := s.ownedPlaylist(ctx, playlistID, actorID); err != nil {
		return models.Playlist{}, err
	}

	updated, err := s.playlists.Update(ctx, playlistID, models.PlaylistPatch{
		Name:        in.Name,
		Description: in.Description,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict(playlistExistsMessage)
		}
		return models.Playlist{}, storeError(err, playlistNotFoundMessage)
	}
	return updated, nil
}

func (s *PlaylistService) Delete(ctx context.Context, playlistID, actorID string) error {
	if _, err := s.ownedPlaylist(ctx, playlistID, actorID); err != nil {
		return err
	}
	return storeError(s.playlists.Delete(ctx, playlistID), playlistNotFoundMessage)
}

// AddVideo appends a video the actor can see to their playlist.
func (s *PlaylistService) AddVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	if err := requireID("videoId", videoID); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.ownedPlaylist(ctx, playlistID, actorID)
	if err != nil {
		return models.Playlist{}, err
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Playlist{}, storeError(err, videoNotFoundMessage)
	}
	if !video.IsPublished && video.Owner != actorID {
		return models.Playlist{}, apperr.NotFound(videoNotFoundMessage)
	}

	if playlist.Contains(videoID) {
		return models.Playlist{}, apperr.Conflict("video already exists in the playlist")
	}

	updated, err := s.playlists.AddVideo(ctx, playlistID, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("video already exists in the playlist")
		}
		return models.Playlist{}, storeError(err, playlistNotFoundMessage)
	}
	return updated, nil
}

// RemoveVideo drops a member video from the actor's playlist.
func (s *PlaylistService) RemoveVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	if err := requireID("videoId", videoID); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.ownedPlaylist(ctx, playlistID, actorID)
	if err != nil {
		return models.Playlist{}, err
	}

	if !playlist.Contains(videoID) {
		return models.Playlist{}, apperr.NotFound("video does not exist in the playlist")
	}

	updated, err := s.playlists.RemoveVideo(ctx, playlistID, videoID)
	if err != nil {
		return models.Playlist{}, storeError(err, "video does not exist in the playlist")
	}
	return updated, nil
}

func (s *PlaylistService) ownedPlaylist(ctx context.Context, playlistID, actorID string) (models.Playlist, error) {
	if err := requireID("playlistId", playlistID); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, storeError(err, playlistNotFoundMessage)
	}
	if playlist.Owner != actorID {
		return models.Playlist{}, apperr.Forbidden("you are not allowed to modify this playlist")
	}
	return playlist, nil
}
