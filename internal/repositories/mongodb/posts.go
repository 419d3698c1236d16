package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// CommentRepository persists comments in MongoDB.
type CommentRepository struct {
	c collections
}

// NewCommentRepository constructs a MongoDB-backed comment repository.
func NewCommentRepository(database *mongo.Database) *CommentRepository {
	return &CommentRepository{c: newCollections(database)}
}

func (r *CommentRepository) Create(ctx context.Context, comment models.Comment) error {
	if _, err := r.c.comments.InsertOne(ctx, comment); err != nil {
		return translateError(err, "insert comment")
	}
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	var comment models.Comment
	if err := r.c.comments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&comment); err != nil {
		return models.Comment{}, translateError(err, "find comment")
	}
	return comment, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Comment, error) {
	var comment models.Comment
	err := r.c.comments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "content", Value: content}, {Key: "updatedAt", Value: updatedAt}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&comment)
	if err != nil {
		return models.Comment{}, translateError(err, "update comment")
	}
	return comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.c.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	if _, err := r.c.likes.DeleteMany(ctx, bson.D{
		{Key: "targetKind", Value: string(models.LikeKindComment)},
		{Key: "target", Value: id},
	}); err != nil {
		return fmt.Errorf("delete comment likes: %w", err)
	}
	return nil
}

func (r *CommentRepository) ListForVideo(ctx context.Context, videoID string, page models.PageRequest) (models.CommentPage, error) {
	total, err := r.c.comments.CountDocuments(ctx, bson.D{{Key: "video", Value: videoID}})
	if err != nil {
		return models.CommentPage{}, fmt.Errorf("count comments: %w", err)
	}

	cursor, err := r.c.comments.Aggregate(ctx, commentsPagePipeline(videoID, page))
	if err != nil {
		return models.CommentPage{}, fmt.Errorf("aggregate comments: %w", err)
	}

	comments := []models.CommentView{}
	if err := cursor.All(ctx, &comments); err != nil {
		return models.CommentPage{}, fmt.Errorf("decode comments: %w", err)
	}
	return models.CommentPage{Comments: comments, Pagination: models.NewPagination(page, total)}, nil
}

// TweetRepository persists tweets in MongoDB.
type TweetRepository struct {
	c collections
}

// NewTweetRepository constructs a MongoDB-backed tweet repository.
func NewTweetRepository(database *mongo.Database) *TweetRepository {
	return &TweetRepository{c: newCollections(database)}
}

func (r *TweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	if _, err := r.c.tweets.InsertOne(ctx, tweet); err != nil {
		return translateError(err, "insert tweet")
	}
	return nil
}

func (r *TweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	var tweet models.Tweet
	if err := r.c.tweets.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&tweet); err != nil {
		return models.Tweet{}, translateError(err, "find tweet")
	}
	return tweet, nil
}

func (r *TweetRepository) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Tweet, error) {
	var tweet models.Tweet
	err := r.c.tweets.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "content", Value: content}, {Key: "updatedAt", Value: updatedAt}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&tweet)
	if err != nil {
		return models.Tweet{}, translateError(err, "update tweet")
	}
	return tweet, nil
}

func (r *TweetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.c.tweets.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	if _, err := r.c.likes.DeleteMany(ctx, bson.D{
		{Key: "targetKind", Value: string(models.LikeKindTweet)},
		{Key: "target", Value: id},
	}); err != nil {
		return fmt.Errorf("delete tweet likes: %w", err)
	}
	return nil
}

func (r *TweetRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.c.tweets.Find(ctx, bson.D{{Key: "owner", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find tweets: %w", err)
	}

	tweets := []models.Tweet{}
	if err := cursor.All(ctx, &tweets); err != nil {
		return nil, fmt.Errorf("decode tweets: %w", err)
	}
	return tweets, nil
}

var (
	_ repositories.CommentRepository = (*CommentRepository)(nil)
	_ repositories.TweetRepository   = (*TweetRepository)(nil)
)
