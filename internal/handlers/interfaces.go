package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/services"
	"github.com/vidtube/backend/internal/storage"
)

// UserService captures the account and session operations behind /users.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (models.User, error)
	Login(ctx context.Context, in services.LoginInput) (services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (services.Session, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID string, in services.ChangePasswordInput) error
	CurrentUser(ctx context.Context, userID string) (models.User, error)
	UpdateAccount(ctx context.Context, userID string, in services.UpdateAccountInput) (models.User, error)
	UpdateAvatar(ctx context.Context, userID string, asset *storage.Asset) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID string, asset *storage.Asset) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error)
}

// VideoService captures the operations behind /videos.
type VideoService interface {
	Publish(ctx context.Context, ownerID string, in services.PublishVideoInput) (models.Video, error)
	Get(ctx context.Context, videoID, viewerID string) (models.Video, error)
	List(ctx context.Context, in services.ListVideosInput, viewerID string) (models.VideoPage, error)
	Update(ctx context.Context, videoID, actorID string, in services.UpdateVideoInput) (models.Video, error)
	Delete(ctx context.Context, videoID, actorID string) error
	TogglePublish(ctx context.Context, videoID, actorID string) (models.Video, error)
}

// CommentService captures the operations behind /comments.
type CommentService interface {
	List(ctx context.Context, videoID, viewerID string, page, limit int) (models.CommentPage, error)
	Add(ctx context.Context, videoID, actorID, content string) (models.Comment, error)
	Update(ctx context.Context, commentID, actorID, content string) (models.Comment, error)
	Delete(ctx context.Context, commentID, actorID string) error
}

// TweetService captures the operations behind /tweets.
type TweetService interface {
	Create(ctx context.Context, ownerID, content string) (models.Tweet, error)
	ListByUser(ctx context.Context, userID string) ([]models.Tweet, error)
	Update(ctx context.Context, tweetID, actorID, content string) (models.Tweet, error)
	Delete(ctx context.Context, tweetID, actorID string) error
}

// PlaylistService captures the operations behind /playlist.
type PlaylistService interface {
	Create(ctx context.Context, ownerID string, in services.CreatePlaylistInput) (models.Playlist, error)
	Get(ctx context.Context, playlistID string) (models.Playlist, error)
	ListByUser(ctx context.Context, userID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlistID, actorID string, in services.UpdatePlaylistInput) (models.Playlist, error)
	Delete(ctx context.Context, playlistID, actorID string) error
	AddVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)
}

// SubscriptionService captures the operations behind /subscriptions.
type SubscriptionService interface {
	Toggle(ctx context.Context, channelID, actorID string) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error)
}

// LikeService captures the operations behind /likes.
type LikeService interface {
	Toggle(ctx context.Context, kind models.LikeKind, targetID, actorID string) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoSummary, error)
}

// DashboardService captures the operations behind /dashboard.
type DashboardService interface {
	Stats(ctx context.Context, channelID string) (models.ChannelStats, error)
	Videos(ctx context.Context, channelID string) ([]models.Video, error)
}
