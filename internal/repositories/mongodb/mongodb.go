// Package mongodb implements the repository contracts on a MongoDB document store.
package mongodb

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/repositories"
)

// NewStores wires every MongoDB repository against one database handle.
func NewStores(database *mongo.Database) repositories.Stores {
	return repositories.Stores{
		Users:         NewUserRepository(database),
		Sessions:      NewSessionStore(database),
		Videos:        NewVideoRepository(database),
		Comments:      NewCommentRepository(database),
		Tweets:        NewTweetRepository(database),
		Playlists:     NewPlaylistRepository(database),
		Subscriptions: NewSubscriptionRepository(database),
		Likes:         NewLikeRepository(database),
	}
}

// collections groups the handles most repositories need.
type collections struct {
	users         *mongo.Collection
	videos        *mongo.Collection
	comments      *mongo.Collection
	tweets        *mongo.Collection
	playlists     *mongo.Collection
	subscriptions *mongo.Collection
	likes         *mongo.Collection
}

func newCollections(database *mongo.Database) collections {
	return collections{
		users:         database.Collection(db.UsersCollection),
		videos:        database.Collection(db.VideosCollection),
		comments:      database.Collection(db.CommentsCollection),
		tweets:        database.Collection(db.TweetsCollection),
		playlists:     database.Collection(db.PlaylistsCollection),
		subscriptions: database.Collection(db.SubscriptionsCollection),
		likes:         database.Collection(db.LikesCollection),
	}
}

// translateError maps driver errors onto the repository sentinels.
func translateError(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repositories.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return repositories.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func now() time.Time {
	return time.Now().UTC()
}
