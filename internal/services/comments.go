package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const (
	commentNotFoundMessage = "comment not found"
	maxContentLength       = 1000
)

// CommentService implements comments on videos.
type CommentService struct {
	comments repositories.CommentRepository
	videos   repositories.VideoRepository
	now      func() time.Time
}

// NewCommentService wires the comment service.
func NewCommentService(comments repositories.CommentRepository, videos repositories.VideoRepository) *CommentService {
	return &CommentService{comments: comments, videos: videos, now: utcNow}
}

// List returns a page of the video's comments, newest first.
func (s *CommentService) List(ctx context.Context, videoID, viewerID string, page, limit int) (models.CommentPage, error) {
	if _, err := s.visibleVideo(ctx, videoID, viewerID); err != nil {
		return models.CommentPage{}, err
	}

	result, err := s.comments.ListForVideo(ctx, videoID, models.NewPageRequest(page, limit))
	if err != nil {
		return models.CommentPage{}, apperr.Unknown(err)
	}
	if result.Comments == nil {
		result.Comments = []models.CommentView{}
	}
	return result, nil
}

// Add comments on a video the actor can see.
func (s *CommentService) Add(ctx context.Context, videoID, actorID, content string) (models.Comment, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := s.visibleVideo(ctx, videoID, actorID); err != nil {
		return models.Comment{}, err
	}

	now := s.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		Video:     videoID,
		Owner:     actorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, storeError(err, videoNotFoundMessage)
	}
	return comment, nil
}

// Update edits the actor's own comment.
func (s *CommentService) Update(ctx context.Context, commentID, actorID, content string) (models.Comment, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := s.ownedComment(ctx, commentID, actorID); err != nil {
		return models.Comment{}, err
	}

	updated, err := s.comments.UpdateContent(ctx, commentID, content, s.now())
	if err != nil {
		return models.Comment{}, storeError(err, commentNotFoundMessage)
	}
	return updated, nil
}

// Delete removes the actor's own comment together with its likes.
func (s *CommentService) Delete(ctx context.Context, commentID, actorID string) error {
	if _, err := s.ownedComment(ctx, commentID, actorID); err != nil {
		return err
	}
	return storeError(s.comments.Delete(ctx, commentID), commentNotFoundMessage)
}

func (s *CommentService) visibleVideo(ctx context.Context, videoID, viewerID string) (models.Video, error) {
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

func (s *CommentService) ownedComment(ctx context.Context, commentID, actorID string) (models.Comment, error) {
	if err := requireID("commentId", commentID); err != nil {
		return models.Comment{}, err
	}
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, storeError(err, commentNotFoundMessage)
	}
	if comment.Owner != actorID {
		return models.Comment{}, apperr.Forbidden("you are not allowed to modify this comment")
	}
	return comment, nil
}

// normalizeContent trims free text shared by comments and tweets.
func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("content is required")
	}
	if len([]rune(content)) > maxContentLength {
		return "", apperr.Validation("content is too long")
	}
	return content, nil
}
