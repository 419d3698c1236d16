package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// userDocument is the stored form of a user. The watch history lives on the
// user document as video ids, oldest first.
type userDocument struct {
	models.User  `bson:",inline"`
	WatchHistory []string `bson:"watchHistory"`
}

// UserRepository persists users in MongoDB.
type UserRepository struct {
	c collections
}

// NewUserRepository constructs a MongoDB-backed user repository.
func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{c: newCollections(database)}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	if _, err := r.c.users.InsertOne(ctx, userDocument{User: user, WatchHistory: []string{}}); err != nil {
		return translateError(err, "insert user")
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := r.c.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user); err != nil {
		return models.User{}, translateError(err, "find user by id")
	}
	return user, nil
}

func (r *UserRepository) FindByLogin(ctx context.Context, username, email string) (models.User, error) {
	var or bson.A
	if username != "" {
		or = append(or, bson.D{{Key: "username", Value: username}})
	}
	if email != "" {
		or = append(or, bson.D{{Key: "email", Value: email}})
	}
	if len(or) == 0 {
		return models.User{}, repositories.ErrNotFound
	}

	var user models.User
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if err := r.c.users.FindOne(ctx, bson.D{{Key: "$or", Value: or}}, opts).Decode(&user); err != nil {
		return models.User{}, translateError(err, "find user by login")
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	set := bson.D{{Key: "updatedAt", Value: patch.UpdatedAt}}
	if patch.FullName != nil {
		set = append(set, bson.E{Key: "fullName", Value: *patch.FullName})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.Avatar != nil {
		set = append(set, bson.E{Key: "avatar", Value: *patch.Avatar})
	}
	if patch.CoverImage != nil {
		set = append(set, bson.E{Key: "coverImage", Value: *patch.CoverImage})
	}
	if patch.Password != nil {
		set = append(set, bson.E{Key: "password", Value: *patch.Password})
	}
	if patch.RefreshToken != nil {
		set = append(set, bson.E{Key: "refreshToken", Value: *patch.RefreshToken})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.c.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&user)
	if err != nil {
		return models.User{}, translateError(err, "update user")
	}
	return user, nil
}

func (r *UserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	cursor, err := r.c.users.Aggregate(ctx, channelProfilePipeline(username, viewerID))
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("aggregate channel profile: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return models.ChannelProfile{}, fmt.Errorf("iterate channel profile: %w", err)
		}
		return models.ChannelProfile{}, repositories.ErrNotFound
	}

	var profile models.ChannelProfile
	if err := cursor.Decode(&profile); err != nil {
		return models.ChannelProfile{}, fmt.Errorf("decode channel profile: %w", err)
	}
	return profile, nil
}

// RecordWatch removes any earlier entry for the video and appends it again.
func (r *UserRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	filter := bson.D{{Key: "_id", Value: userID}}

	res, err := r.c.users.UpdateOne(ctx, filter, bson.D{{Key: "$pull", Value: bson.D{{Key: "watchHistory", Value: videoID}}}})
	if err != nil {
		return fmt.Errorf("pull watch history: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}

	if _, err := r.c.users.UpdateOne(ctx, filter, bson.D{{Key: "$push", Value: bson.D{{Key: "watchHistory", Value: videoID}}}}); err != nil {
		return fmt.Errorf("push watch history: %w", err)
	}
	return nil
}

func (r *UserRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	cursor, err := r.c.users.Aggregate(ctx, watchHistoryPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("aggregate watch history: %w", err)
	}

	history := []models.VideoSummary{}
	if err := cursor.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("decode watch history: %w", err)
	}
	return history, nil
}

// SessionStore keeps each user's active refresh token on the user document.
type SessionStore struct {
	users *mongo.Collection
}

// NewSessionStore constructs a MongoDB-backed session store.
func NewSessionStore(database *mongo.Database) *SessionStore {
	return &SessionStore{users: newCollections(database).users}
}

func (s *SessionStore) Save(ctx context.Context, session auth.Session) error {
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: session.UserID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "refreshToken", Value: session.RefreshToken}}}},
	)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Find(ctx context.Context, userID string) (auth.Session, error) {
	var doc struct {
		RefreshToken string `bson:"refreshToken"`
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "refreshToken", Value: 1}})
	if err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("find refresh token: %w", err)
	}
	if doc.RefreshToken == "" {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	return auth.Session{UserID: userID, RefreshToken: doc.RefreshToken}, nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	_, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "refreshToken", Value: ""}}}},
	)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

var _ repositories.UserRepository = (*UserRepository)(nil)
var _ auth.SessionStore = (*SessionStore)(nil)
