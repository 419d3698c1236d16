package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

var videoSortFields = map[models.VideoSort]string{
	models.VideoSortCreatedAt: "createdAt",
	models.VideoSortViews:     "views",
	models.VideoSortDuration:  "duration",
	models.VideoSortTitle:     "title",
}

// VideoRepository persists videos in MongoDB.
type VideoRepository struct {
	c collections
}

// NewVideoRepository constructs a MongoDB-backed video repository.
func NewVideoRepository(database *mongo.Database) *VideoRepository {
	return &VideoRepository{c: newCollections(database)}
}

func (r *VideoRepository) Create(ctx context.Context, video models.Video) error {
	if _, err := r.c.videos.InsertOne(ctx, video); err != nil {
		return translateError(err, "insert video")
	}
	return nil
}

func (r *VideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	var video models.Video
	if err := r.c.videos.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&video); err != nil {
		return models.Video{}, translateError(err, "find video")
	}
	return video, nil
}

func (r *VideoRepository) Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	set := bson.D{{Key: "updatedAt", Value: patch.UpdatedAt}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Thumbnail != nil {
		set = append(set, bson.E{Key: "thumbnail", Value: *patch.Thumbnail})
	}
	if patch.VideoFile != nil {
		set = append(set, bson.E{Key: "videoFile", Value: *patch.VideoFile})
	}
	if patch.IsPublished != nil {
		set = append(set, bson.E{Key: "isPublished", Value: *patch.IsPublished})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var video models.Video
	err := r.c.videos.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&video)
	if err != nil {
		return models.Video{}, translateError(err, "update video")
	}
	return video, nil
}

// Delete removes the video first and then sweeps its dependents. The sweep is
// not transactional; once the video is gone a sweep failure is reported as
// repositories.ErrDependentsRemain and leaves orphans that no listing joins to.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.c.videos.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}

	if err := r.sweepDependents(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", repositories.ErrDependentsRemain, err)
	}
	return nil
}

func (r *VideoRepository) sweepDependents(ctx context.Context, id string) error {
	commentIDs, err := r.c.comments.Distinct(ctx, "_id", bson.D{{Key: "video", Value: id}})
	if err != nil {
		return fmt.Errorf("list video comments: %w", err)
	}
	if commentIDs == nil {
		commentIDs = []interface{}{}
	}

	likeFilter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "targetKind", Value: string(models.LikeKindVideo)}, {Key: "target", Value: id}},
		bson.D{{Key: "targetKind", Value: string(models.LikeKindComment)}, {Key: "target", Value: bson.D{{Key: "$in", Value: commentIDs}}}},
	}}}
	if _, err := r.c.likes.DeleteMany(ctx, likeFilter); err != nil {
		return fmt.Errorf("delete video likes: %w", err)
	}
	if _, err := r.c.comments.DeleteMany(ctx, bson.D{{Key: "video", Value: id}}); err != nil {
		return fmt.Errorf("delete video comments: %w", err)
	}
	pull := func(field string) bson.D {
		return bson.D{{Key: "$pull", Value: bson.D{{Key: field, Value: id}}}}
	}
	if _, err := r.c.playlists.UpdateMany(ctx, bson.D{{Key: "videos", Value: id}}, pull("videos")); err != nil {
		return fmt.Errorf("pull video from playlists: %w", err)
	}
	if _, err := r.c.users.UpdateMany(ctx, bson.D{{Key: "watchHistory", Value: id}}, pull("watchHistory")); err != nil {
		return fmt.Errorf("pull video from watch history: %w", err)
	}
	return nil
}

func (r *VideoRepository) IncrementViews(ctx context.Context, id string) error {
	res, err := r.c.videos.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}},
	)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *VideoRepository) List(ctx context.Context, query models.VideoQuery) (models.VideoPage, error) {
	filter := videoListFilter(query)

	total, err := r.c.videos.CountDocuments(ctx, filter)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("count videos: %w", err)
	}

	field, ok := videoSortFields[query.SortBy]
	if !ok {
		field = videoSortFields[models.VideoSortCreatedAt]
	}
	direction := -1
	if query.Ascending {
		direction = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(int64(query.Offset())).
		SetLimit(int64(query.Limit))

	cursor, err := r.c.videos.Find(ctx, filter, opts)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("find videos: %w", err)
	}

	videos := []models.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return models.VideoPage{}, fmt.Errorf("decode videos: %w", err)
	}

	return models.VideoPage{Videos: videos, Pagination: models.NewPagination(query.PageRequest, total)}, nil
}

func videoListFilter(query models.VideoQuery) bson.D {
	filter := bson.D{}
	if query.OwnerID != "" {
		filter = append(filter, bson.E{Key: "owner", Value: query.OwnerID})
	}
	if query.OwnerID == "" || !query.IncludeUnpublished {
		filter = append(filter, bson.E{Key: "isPublished", Value: true})
	}
	if text := strings.TrimSpace(query.Text); text != "" {
		pattern := bson.D{{Key: "$regex", Value: regexp.QuoteMeta(text)}, {Key: "$options", Value: "i"}}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: pattern}},
			bson.D{{Key: "description", Value: pattern}},
		}})
	}
	return filter
}

func (r *VideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.c.videos.Find(ctx, bson.D{{Key: "owner", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find channel videos: %w", err)
	}

	videos := []models.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("decode channel videos: %w", err)
	}
	return videos, nil
}

func (r *VideoRepository) Totals(ctx context.Context, ownerID string) (models.VideoTotals, error) {
	cursor, err := r.c.videos.Aggregate(ctx, videoTotalsPipeline(ownerID))
	if err != nil {
		return models.VideoTotals{}, fmt.Errorf("aggregate video totals: %w", err)
	}
	defer cursor.Close(ctx)

	var totals models.VideoTotals
	if cursor.Next(ctx) {
		if err := cursor.Decode(&totals); err != nil {
			return models.VideoTotals{}, fmt.Errorf("decode video totals: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return models.VideoTotals{}, fmt.Errorf("iterate video totals: %w", err)
	}
	return totals, nil
}

var _ repositories.VideoRepository = (*VideoRepository)(nil)
