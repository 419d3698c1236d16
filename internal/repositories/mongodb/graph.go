package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// SubscriptionRepository persists the subscriber graph in MongoDB.
type SubscriptionRepository struct {
	c collections
}

// NewSubscriptionRepository constructs a MongoDB-backed subscription repository.
func NewSubscriptionRepository(database *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{c: newCollections(database)}
}

// Toggle deletes the edge when present and inserts it otherwise. The unique
// (channel, subscriber) index turns a lost race into ErrConflict.
func (r *SubscriptionRepository) Toggle(ctx context.Context, sub models.Subscription) (bool, error) {
	res, err := r.c.subscriptions.DeleteOne(ctx, bson.D{
		{Key: "channel", Value: sub.Channel},
		{Key: "subscriber", Value: sub.Subscriber},
	})
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	if _, err := r.c.subscriptions.InsertOne(ctx, sub); err != nil {
		return false, translateError(err, "insert subscription")
	}
	return true, nil
}

func (r *SubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error) {
	return r.list(ctx, subscriptionListPipeline("channel", channelID, "subscriber"), "subscribers")
}

func (r *SubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error) {
	return r.list(ctx, subscriptionListPipeline("subscriber", subscriberID, "channel"), "subscribed channels")
}

func (r *SubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	count, err := r.c.subscriptions.CountDocuments(ctx, bson.D{{Key: "channel", Value: channelID}})
	if err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return count, nil
}

func (r *SubscriptionRepository) list(ctx context.Context, pipeline mongo.Pipeline, what string) ([]models.ChannelSummary, error) {
	cursor, err := r.c.subscriptions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", what, err)
	}

	summaries := []models.ChannelSummary{}
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return summaries, nil
}

// likeDocument is the stored form of a like.
type likeDocument struct {
	ID         string    `bson:"_id"`
	TargetKind string    `bson:"targetKind"`
	Target     string    `bson:"target"`
	LikedBy    string    `bson:"likedBy"`
	CreatedAt  time.Time `bson:"createdAt"`
}

// LikeRepository persists likes in MongoDB.
type LikeRepository struct {
	c collections
}

// NewLikeRepository constructs a MongoDB-backed like repository.
func NewLikeRepository(database *mongo.Database) *LikeRepository {
	return &LikeRepository{c: newCollections(database)}
}

// Toggle deletes the like when present and inserts it otherwise. The unique
// (targetKind, target, likedBy) index turns a lost race into ErrConflict.
func (r *LikeRepository) Toggle(ctx context.Context, id string, target models.LikeTarget, likedBy string) (bool, error) {
	if target.IsZero() {
		return false, models.ErrInvalidLikeTarget
	}

	res, err := r.c.likes.DeleteOne(ctx, bson.D{
		{Key: "targetKind", Value: string(target.Kind())},
		{Key: "target", Value: target.ID()},
		{Key: "likedBy", Value: likedBy},
	})
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	doc := likeDocument{
		ID:         id,
		TargetKind: string(target.Kind()),
		Target:     target.ID(),
		LikedBy:    likedBy,
		CreatedAt:  now(),
	}
	if _, err := r.c.likes.InsertOne(ctx, doc); err != nil {
		return false, translateError(err, "insert like")
	}
	return true, nil
}

func (r *LikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	cursor, err := r.c.likes.Aggregate(ctx, likedVideosPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("aggregate liked videos: %w", err)
	}

	videos := []models.VideoSummary{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("decode liked videos: %w", err)
	}
	return videos, nil
}

func (r *LikeRepository) TotalsGivenBy(ctx context.Context, userID string) (models.LikeTotals, error) {
	cursor, err := r.c.likes.Aggregate(ctx, likeTotalsPipeline(userID))
	if err != nil {
		return models.LikeTotals{}, fmt.Errorf("aggregate like totals: %w", err)
	}
	defer cursor.Close(ctx)

	var totals models.LikeTotals
	if cursor.Next(ctx) {
		if err := cursor.Decode(&totals); err != nil {
			return models.LikeTotals{}, fmt.Errorf("decode like totals: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return models.LikeTotals{}, fmt.Errorf("iterate like totals: %w", err)
	}
	return totals, nil
}

var (
	_ repositories.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ repositories.LikeRepository         = (*LikeRepository)(nil)
)
