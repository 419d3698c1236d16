package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names shared by the document store repositories.
const (
	UsersCollection         = "users"
	VideosCollection        = "videos"
	CommentsCollection      = "comments"
	TweetsCollection        = "tweets"
	PlaylistsCollection     = "playlists"
	SubscriptionsCollection = "subscriptions"
	LikesCollection         = "likes"
)

// ConnectMongo opens a MongoDB client and returns the named database handle.
// Callers own the client and must Disconnect it on shutdown.
func ConnectMongo(ctx context.Context, uri, database string, timeout time.Duration) (*mongo.Client, *mongo.Database, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(database), nil
}

// IndexModels lists the indexes each collection needs. Unique indexes back the
// atomic toggles and account uniqueness.
func IndexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_username_unique")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_unique")},
		},
		VideosCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("videos_owner_created")},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "video", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("comments_video_created")},
		},
		TweetsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("tweets_owner_created")},
		},
		PlaylistsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("playlists_owner_name_unique")},
		},
		SubscriptionsCollection: {
			{Keys: bson.D{{Key: "channel", Value: 1}, {Key: "subscriber", Value: 1}}, Options: options.Index().SetUnique(true).SetName("subscriptions_channel_subscriber_unique")},
			{Keys: bson.D{{Key: "subscriber", Value: 1}}, Options: options.Index().SetName("subscriptions_subscriber")},
		},
		LikesCollection: {
			{Keys: bson.D{{Key: "targetKind", Value: 1}, {Key: "target", Value: 1}, {Key: "likedBy", Value: 1}}, Options: options.Index().SetUnique(true).SetName("likes_target_liked_by_unique")},
			{Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("likes_liked_by_created")},
		},
	}
}

// EnsureIndexes creates any missing indexes. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	for collection, models := range IndexModels() {
		if _, err := database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
