package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const tweetNotFoundMessage = "tweet not found"

// TweetService implements short text posts.
type TweetService struct {
	tweets repositories.TweetRepository
	users  repositories.UserRepository
	now    func() time.Time
}

// NewTweetService wires the tweet service.
func NewTweetService(tweets repositories.TweetRepository, users repositories.UserRepository) *TweetService {
	return &TweetService{tweets: tweets, users: users, now: utcNow}
}

func (s *TweetService) Create(ctx context.Context, ownerID, content string) (models.Tweet, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return models.Tweet{}, err
	}

	now := s.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		Owner:     ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return models.Tweet{}, storeError(err, "user not found")
	}
	return tweet, nil
}

// ListByUser returns the user's tweets, newest first.
func (s *TweetService) ListByUser(ctx context.Context, userID string) ([]models.Tweet, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, storeError(err, "user not found")
	}

	tweets, err := s.tweets.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	if tweets == nil {
		tweets = []models.Tweet{}
	}
	return tweets, nil
}

func (s *TweetService) Update(ctx context.Context, tweetID, actorID, content string) (models.Tweet, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return models.Tweet{}, err
	}
	if _, err := s.ownedTweet(ctx, tweetID, actorID); err != nil {
		return models.Tweet{}, err
	}

	updated, err := s.tweets.UpdateContent(ctx, tweetID, content, s.now())
	if err != nil {
		return models.Tweet{}, storeError(err, tweetNotFoundMessage)
	}
	return updated, nil
}

func (s *TweetService) Delete(ctx context.Context, tweetID, actorID string) error {
	if _, err := s.ownedTweet(ctx, tweetID, actorID); err != nil {
		return err
	}
	return storeError(s.tweets.Delete(ctx, tweetID), tweetNotFoundMessage)
}

func (s *TweetService) ownedTweet(ctx context.Context, tweetID, actorID string) (models.Tweet, error) {
	if err := requireID("tweetId", tweetID); err != nil {
		return models.Tweet{}, err
	}
	tweet, err := s.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return models.Tweet{}, storeError(err, tweetNotFoundMessage)
	}
	if tweet.Owner != actorID {
		return models.Tweet{}, apperr.Forbidden("you are not allowed to modify this tweet")
	}
	return tweet, nil
}
