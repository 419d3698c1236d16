package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// PlaylistRepository persists playlists in MongoDB with membership embedded as an id array.
type PlaylistRepository struct {
	c collections
}

// NewPlaylistRepository constructs a MongoDB-backed playlist repository.
func NewPlaylistRepository(database *mongo.Database) *PlaylistRepository {
	return &PlaylistRepository{c: newCollections(database)}
}

func (r *PlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	if playlist.Videos == nil {
		playlist.Videos = []string{}
	}
	if _, err := r.c.playlists.InsertOne(ctx, playlist); err != nil {
		return translateError(err, "insert playlist")
	}
	return nil
}

func (r *PlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	var playlist models.Playlist
	if err := r.c.playlists.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&playlist); err != nil {
		return models.Playlist{}, translateError(err, "find playlist")
	}
	return playlist, nil
}

func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.c.playlists.Find(ctx, bson.D{{Key: "owner", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find playlists: %w", err)
	}

	playlists := []models.Playlist{}
	if err := cursor.All(ctx, &playlists); err != nil {
		return nil, fmt.Errorf("decode playlists: %w", err)
	}
	return playlists, nil
}

func (r *PlaylistRepository) Update(ctx context.Context, id string, patch models.PlaylistPatch) (models.Playlist, error) {
	set := bson.D{{Key: "updatedAt", Value: patch.UpdatedAt}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	return r.findAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, "update playlist")
}

func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	res, err := r.c.playlists.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// AddVideo pushes the video only when it is not already a member.
func (r *PlaylistRepository) AddVideo(ctx context.Context, id, videoID string) (models.Playlist, error) {
	playlist, err := r.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "videos", Value: bson.D{{Key: "$ne", Value: videoID}}}},
		bson.D{
			{Key: "$push", Value: bson.D{{Key: "videos", Value: videoID}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now()}}},
		},
		"add playlist video",
	)
	if errors.Is(err, repositories.ErrNotFound) {
		if _, findErr := r.FindByID(ctx, id); findErr == nil {
			return models.Playlist{}, repositories.ErrConflict
		}
	}
	return playlist, err
}

// RemoveVideo pulls the video only when it is a member.
func (r *PlaylistRepository) RemoveVideo(ctx context.Context, id, videoID string) (models.Playlist, error) {
	return r.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "videos", Value: videoID}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "videos", Value: videoID}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now()}}},
		},
		"remove playlist video",
	)
}

func (r *PlaylistRepository) findAndUpdate(ctx context.Context, filter, update bson.D, op string) (models.Playlist, error) {
	var playlist models.Playlist
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.c.playlists.FindOneAndUpdate(ctx, filter, update, opts).Decode(&playlist); err != nil {
		return models.Playlist{}, translateError(err, op)
	}
	return playlist, nil
}

var _ repositories.PlaylistRepository = (*PlaylistRepository)(nil)
