package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// SubscriptionService implements the subscriber graph.
type SubscriptionService struct {
	subscriptions repositories.SubscriptionRepository
	users         repositories.UserRepository
	stats         *StatsCache
	now           func() time.Time
}

// NewSubscriptionService wires the subscription service. stats may be nil.
func NewSubscriptionService(subscriptions repositories.SubscriptionRepository, users repositories.UserRepository, stats *StatsCache) *SubscriptionService {
	return &SubscriptionService{subscriptions: subscriptions, users: users, stats: stats, now: utcNow}
}

// Toggle subscribes the actor to the channel, or unsubscribes when already
// subscribed. It reports the resulting state.
func (s *SubscriptionService) Toggle(ctx context.Context, channelID, actorID string) (bool, error) {
	if err := requireID("channelId", channelID); err != nil {
		return false, err
	}
	if channelID == actorID {
		return false, apperr.Validation("you cannot subscribe to your own channel")
	}
	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		return false, storeError(err, "channel not found")
	}

	subscribed, err := retryToggle(ctx, "subscription", "channel not found", func() (bool, error) {
		return s.subscriptions.Toggle(ctx, models.Subscription{
			ID:         uuid.NewString(),
			Channel:    channelID,
			Subscriber: actorID,
			CreatedAt:  s.now(),
		})
	})
	if err != nil {
		return false, err
	}

	s.stats.Invalidate(channelID)
	return subscribed, nil
}

// Subscribers lists who follows the channel.
func (s *SubscriptionService) Subscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error) {
	if err := requireID("channelId", channelID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		return nil, storeError(err, "channel not found")
	}
	subscribers, err := s.subscriptions.Subscribers(ctx, channelID)
	return summariesOrEmpty(subscribers, err)
}

// SubscribedChannels lists the channels the user follows.
func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error) {
	if err := requireID("subscriberId", subscriberID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, subscriberID); err != nil {
		return nil, storeError(err, "user not found")
	}
	channels, err := s.subscriptions.SubscribedChannels(ctx, subscriberID)
	return summariesOrEmpty(channels, err)
}

func summariesOrEmpty(summaries []models.ChannelSummary, err error) ([]models.ChannelSummary, error) {
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	if summaries == nil {
		summaries = []models.ChannelSummary{}
	}
	return summaries, nil
}

// LikeService implements likes on videos, comments and tweets.
type LikeService struct {
	likes    repositories.LikeRepository
	videos   repositories.VideoRepository
	comments repositories.CommentRepository
	tweets   repositories.TweetRepository
	stats    *StatsCache
}

// NewLikeService wires the like service. stats may be nil.
func NewLikeService(
	likes repositories.LikeRepository,
	videos repositories.VideoRepository,
	comments repositories.CommentRepository,
	tweets repositories.TweetRepository,
	stats *StatsCache,
) *LikeService {
	return &LikeService{likes: likes, videos: videos, comments: comments, tweets: tweets, stats: stats}
}

// Toggle likes the target, or removes the like when present. It reports the
// resulting state.
func (s *LikeService) Toggle(ctx context.Context, kind models.LikeKind, targetID, actorID string) (bool, error) {
	if err := requireID(string(kind)+"Id", targetID); err != nil {
		return false, err
	}
	target, err := models.NewLikeTarget(kind, targetID)
	if err != nil {
		return false, apperr.Validation("invalid like target")
	}

	notFound := kind.Title() + " not found"
	if err := s.ensureTarget(ctx, target, actorID, notFound); err != nil {
		return false, err
	}

	liked, err := retryToggle(ctx, "like", notFound, func() (bool, error) {
		return s.likes.Toggle(ctx, uuid.NewString(), target, actorID)
	})
	if err != nil {
		return false, err
	}

	s.stats.Invalidate(actorID)
	return liked, nil
}

func (s *LikeService) ensureTarget(ctx context.Context, target models.LikeTarget, actorID, notFound string) error {
	var err error
	switch target.Kind() {
	case models.LikeKindVideo:
		var video models.Video
		video, err = s.videos.FindByID(ctx, target.ID())
		if err == nil && !video.IsPublished && video.Owner != actorID {
			return apperr.NotFound(notFound)
		}
	case models.LikeKindComment:
		_, err = s.comments.FindByID(ctx, target.ID())
	case models.LikeKindTweet:
		_, err = s.tweets.FindByID(ctx, target.ID())
	}
	return storeError(err, notFound)
}

// LikedVideos lists the videos the user liked, most recent like first.
func (s *LikeService) LikedVideos(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	videos, err := s.likes.LikedVideos(ctx, userID)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	if videos == nil {
		videos = []models.VideoSummary{}
	}
	return videos, nil
}

// ToggleMessage renders the response message for a toggled like.
func ToggleMessage(kind models.LikeKind, liked bool) string {
	if liked {
		return kind.Title() + " liked successfully"
	}
	return kind.Title() + " unliked successfully"
}
