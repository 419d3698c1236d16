package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

const videoNotFoundMessage = "video not found"

// VideoService implements publishing, browsing and managing videos.
type VideoService struct {
	videos repositories.VideoRepository
	users  repositories.UserRepository
	media  storage.Delegate
	reaper AssetReaper
	stats  *StatsCache
	now    func() time.Time
}

// NewVideoService wires the video service. stats may be nil.
func NewVideoService(videos repositories.VideoRepository, users repositories.UserRepository, media storage.Delegate, reaper AssetReaper, stats *StatsCache) *VideoService {
	return &VideoService{videos: videos, users: users, media: media, reaper: reaper, stats: stats, now: utcNow}
}

// PublishVideoInput carries the publish form.
type PublishVideoInput struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description" validate:"required,max=5000"`
	VideoFile   *storage.Asset `json:"-"`
	Thumbnail   *storage.Asset `json:"-"`
}

// UpdateVideoInput carries a partial update. Nil fields are left untouched.
type UpdateVideoInput struct {
	Title       *string
	Description *string
	Thumbnail   *storage.Asset
}

// ListVideosInput carries the raw list query parameters.
type ListVideosInput struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortType string
	UserID   string
}

// Publish uploads the video and thumbnail and stores the record.
func (s *VideoService) Publish(ctx context.Context, ownerID string, in PublishVideoInput) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "videos.publish")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInput(in); err != nil {
		return models.Video{}, err
	}
	if in.VideoFile == nil {
		return models.Video{}, apperr.Validation("video file is required")
	}
	if in.Thumbnail == nil {
		return models.Video{}, apperr.Validation("thumbnail file is required")
	}

	video, err := uploadAsset(ctx, s.media, in.VideoFile, "video")
	if err != nil {
		return models.Video{}, err
	}
	thumbnail, err := uploadAsset(ctx, s.media, in.Thumbnail, "thumbnail")
	if err != nil {
		reap(ctx, s.reaper, video.URL)
		return models.Video{}, err
	}

	now := s.now()
	record := models.Video{
		ID:          uuid.NewString(),
		Owner:       ownerID,
		Title:       in.Title,
		Description: in.Description,
		VideoFile:   video.URL,
		Thumbnail:   thumbnail.URL,
		Duration:    video.Duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.videos.Create(ctx, record); err != nil {
		reap(ctx, s.reaper, video.URL, thumbnail.URL)
		return models.Video{}, storeError(err, "owner not found")
	}

	s.stats.Invalidate(ownerID)
	logging.FromContext(ctx).Info("video published", "videoID", record.ID, "duration", record.Duration)
	return record, nil
}

// Get returns a video. An authenticated viewer's read counts as a view and is
// recorded in their watch history.
func (s *VideoService) Get(ctx context.Context, videoID, viewerID string) (models.Video, error) {
	video, err := s.visibleVideo(ctx, videoID, viewerID)
	if err != nil {
		return models.Video{}, err
	}
	if viewerID == "" {
		return video, nil
	}

	logger := logging.FromContext(ctx)
	if err := s.videos.IncrementViews(ctx, video.ID); err != nil {
		logger.Warn("failed to count video view", "videoID", video.ID, "error", err)
	} else {
		video.Views++
	}
	if err := s.users.RecordWatch(ctx, viewerID, video.ID); err != nil {
		logger.Warn("failed to record watch history", "videoID", video.ID, "userID", viewerID, "error", err)
	}
	return video, nil
}

// List returns a page of videos. Unpublished videos are only listed for an
// owner browsing their own channel.
func (s *VideoService) List(ctx context.Context, in ListVideosInput, viewerID string) (models.VideoPage, error) {
	query := models.VideoQuery{
		PageRequest: models.NewPageRequest(in.Page, in.Limit),
		Text:        strings.TrimSpace(in.Query),
		SortBy:      models.VideoSortCreatedAt,
	}

	switch sortBy := models.VideoSort(strings.TrimSpace(in.SortBy)); sortBy {
	case "":
	case models.VideoSortCreatedAt, models.VideoSortViews, models.VideoSortDuration, models.VideoSortTitle:
		query.SortBy = sortBy
	default:
		return models.VideoPage{}, apperr.Validation("sortBy must be one of createdAt, views, duration, title")
	}

	switch strings.ToLower(strings.TrimSpace(in.SortType)) {
	case "", "desc":
	case "asc":
		query.Ascending = true
	default:
		return models.VideoPage{}, apperr.Validation("sortType must be asc or desc")
	}

	if userID := strings.TrimSpace(in.UserID); userID != "" {
		if err := requireID("userId", userID); err != nil {
			return models.VideoPage{}, err
		}
		query.OwnerID = userID
		query.IncludeUnpublished = viewerID != "" && viewerID == userID
	}

	page, err := s.videos.List(ctx, query)
	if err != nil {
		return models.VideoPage{}, apperr.Unknown(err)
	}
	if page.Videos == nil {
		page.Videos = []models.Video{}
	}
	return page, nil
}

// Update applies a partial update. A replaced thumbnail is deleted only after
// the record points at the new one.
func (s *VideoService) Update(ctx context.Context, videoID, actorID string, in UpdateVideoInput) (models.Video, error) {
	in.Title = trimPtr(in.Title)
	in.Description = trimPtr(in.Description)

	if in.Title == nil && in.Description == nil && in.Thumbnail == nil {
		return models.Video{}, apperr.Validation("at least one of title, description or thumbnail is required")
	}
	if in.Title != nil && *in.Title == "" {
		return models.Video{}, apperr.Validation("title cannot be empty")
	}
	if in.Description != nil && *in.Description == "" {
		return models.Video{}, apperr.Validation("description cannot be empty")
	}

	existing, err := s.ownedVideo(ctx, videoID, actorID)
	if err != nil {
		return models.Video{}, err
	}

	patch := models.VideoPatch{Title: in.Title, Description: in.Description, UpdatedAt: s.now()}

	var thumbnail storage.Uploaded
	if in.Thumbnail != nil {
		thumbnail, err = uploadAsset(ctx, s.media, in.Thumbnail, "thumbnail")
		if err != nil {
			return models.Video{}, err
		}
		patch.Thumbnail = &thumbnail.URL
	}

	updated, err := s.videos.Update(ctx, existing.ID, patch)
	if err != nil {
		reap(ctx, s.reaper, thumbnail.URL)
		return models.Video{}, storeError(err, videoNotFoundMessage)
	}

	if thumbnail.URL != "" && existing.Thumbnail != thumbnail.URL {
		reap(ctx, s.reaper, existing.Thumbnail)
	}
	return updated, nil
}

// Delete removes the video's assets from the delegate and then the record.
func (s *VideoService) Delete(ctx context.Context, videoID, actorID string) error {
	ctx, span := logging.StartSpan(ctx, "videos.delete")
	defer span.End()

	video, err := s.ownedVideo(ctx, videoID, actorID)
	if err != nil {
		return err
	}

	if err := s.deleteAssets(ctx, video); err != nil {
		return err
	}

	if err := s.videos.Delete(ctx, video.ID); err != nil {
		if errors.Is(err, repositories.ErrDependentsRemain) {
			logging.FromContext(ctx).Warn("video deleted with dependents left behind", "videoID", video.ID, "error", err)
			s.stats.Invalidate(video.Owner)
			return nil
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound(videoNotFoundMessage)
		}

		// The assets are gone; keep the record from pointing at them.
		logger := logging.FromContext(ctx)
		logger.Error("video record delete failed after assets were removed", "videoID", video.ID, "error", err)
		unpublished, empty := false, ""
		if _, patchErr := s.videos.Update(ctx, video.ID, models.VideoPatch{
			IsPublished: &unpublished,
			VideoFile:   &empty,
			Thumbnail:   &empty,
			UpdatedAt:   s.now(),
		}); patchErr != nil {
			logger.Error("failed to unpublish orphaned video record", "videoID", video.ID, "error", patchErr)
		}
		return apperr.Unknown(err)
	}

	s.stats.Invalidate(video.Owner)
	return nil
}

func (s *VideoService) deleteAssets(ctx context.Context, video models.Video) error {
	if s.media == nil {
		return apperr.Upload("failed to delete video assets", storage.ErrDelegateUnavailable)
	}
	for _, url := range []string{video.VideoFile, video.Thumbnail} {
		if url == "" {
			continue
		}
		if err := s.media.Delete(ctx, url); err != nil {
			return apperr.Upload("failed to delete video assets", err)
		}
	}
	return nil
}

// TogglePublish flips the video's visibility.
func (s *VideoService) TogglePublish(ctx context.Context, videoID, actorID string) (models.Video, error) {
	video, err := s.ownedVideo(ctx, videoID, actorID)
	if err != nil {
		return models.Video{}, err
	}

	published := !video.IsPublished
	updated, err := s.videos.Update(ctx, video.ID, models.VideoPatch{IsPublished: &published, UpdatedAt: s.now()})
	if err != nil {
		return models.Video{}, storeError(err, videoNotFoundMessage)
	}
	return updated, nil
}

// visibleVideo loads a video the viewer may see. Unpublished videos look
// missing to everyone but their owner.
func (s *VideoService) visibleVideo(ctx context.Context, videoID, viewerID string) (models.Video, error) {
	if err := requireID("videoId", videoID); err != nil {
		return models.Video{}, err
	}
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, storeError(err, videoNotFoundMessage)
	}
	if !video.IsPublished && video.Owner != viewerID {
		return models.Video{}, apperr.NotFound(videoNotFoundMessage)
	}
	return video, nil
}

func (s *VideoService) ownedVideo(ctx context.Context, videoID, actorID string) (models.Video, error) {
	if err := requireID("videoId", videoID); err != nil {
		return models.Video{}, err
	}
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, storeError(err, videoNotFoundMessage)
	}
	if video.Owner != actorID {
		return models.Video{}, apperr.Forbidden("you are not allowed to modify this video")
	}
	return video, nil
}
