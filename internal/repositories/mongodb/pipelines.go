package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// ownerLookup replaces a document's owner id with the owner's public summary.
func ownerLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.UsersCollection},
			{Key: "localField", Value: "owner"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "username", Value: 1},
					{Key: "fullName", Value: 1},
					{Key: "avatar", Value: 1},
				}}},
			}},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "owner", Value: bson.D{{Key: "$first", Value: "$owner"}}},
		}}},
	}
}

// videoSummaryLookup joins the video referenced by localField, with its owner, into "video".
func videoSummaryLookup(localField string) bson.D {
	inner := bson.A{}
	for _, stage := range ownerLookup() {
		inner = append(inner, stage)
	}
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: db.VideosCollection},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "video"},
		{Key: "pipeline", Value: inner},
	}}}
}

func channelProfilePipeline(username, viewerID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "username", Value: username}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.SubscriptionsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "channel"},
			{Key: "as", Value: "subscribers"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.SubscriptionsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "subscriber"},
			{Key: "as", Value: "subscribedTo"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "subscribersCount", Value: bson.D{{Key: "$size", Value: "$subscribers"}}},
			{Key: "channelsSubscribedToCount", Value: bson.D{{Key: "$size", Value: "$subscribedTo"}}},
			{Key: "isSubscribed", Value: bson.D{{Key: "$in", Value: bson.A{viewerID, "$subscribers.subscriber"}}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "fullName", Value: 1},
			{Key: "username", Value: 1},
			{Key: "email", Value: 1},
			{Key: "avatar", Value: 1},
			{Key: "coverImage", Value: 1},
			{Key: "subscribersCount", Value: 1},
			{Key: "channelsSubscribedToCount", Value: 1},
			{Key: "isSubscribed", Value: 1},
		}}},
	}
}

// watchHistoryPipeline expands the user's history array, most recent entry first.
// Entries whose video no longer exists drop out at the unwind.
func watchHistoryPipeline(userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: userID}}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$watchHistory"},
			{Key: "includeArrayIndex", Value: "position"},
		}}},
		videoSummaryLookup("watchHistory"),
		{{Key: "$unwind", Value: "$video"}},
		{{Key: "$sort", Value: bson.D{{Key: "position", Value: -1}}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$video"}}}},
	}
}

func likedVideosPipeline(userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "likedBy", Value: userID},
			{Key: "targetKind", Value: string(models.LikeKindVideo)},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		videoSummaryLookup("target"),
		{{Key: "$unwind", Value: "$video"}},
		{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "video.isPublished", Value: true}},
			bson.D{{Key: "video.owner._id", Value: userID}},
		}}}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$video"}}}},
	}
}

func commentsPagePipeline(videoID string, page models.PageRequest) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "video", Value: videoID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64(page.Offset())}},
		{{Key: "$limit", Value: int64(page.Limit)}},
	}
	return append(pipeline, ownerLookup()...)
}

// likeTotalsPipeline counts a user's likes per kind whose target still exists.
func likeTotalsPipeline(userID string) mongo.Pipeline {
	exists := func(collection, as string) bson.D {
		return bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collection},
			{Key: "localField", Value: "target"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: as},
			{Key: "pipeline", Value: bson.A{bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 1}}}}}},
		}}}
	}
	count := func(kind models.LikeKind, as string) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$and", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$targetKind", string(kind)}}},
				bson.D{{Key: "$gt", Value: bson.A{bson.D{{Key: "$size", Value: "$" + as}}, 0}}},
			}}},
			1,
			0,
		}}}}}
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "likedBy", Value: userID}}}},
		exists(db.VideosCollection, "videoHit"),
		exists(db.TweetsCollection, "tweetHit"),
		exists(db.CommentsCollection, "commentHit"),
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "videoLikes", Value: count(models.LikeKindVideo, "videoHit")},
			{Key: "tweetLikes", Value: count(models.LikeKindTweet, "tweetHit")},
			{Key: "commentLikes", Value: count(models.LikeKindComment, "commentHit")},
		}}},
	}
}

// subscriptionListPipeline lists subscription edges matching matchField = id
// joined with the user referenced by joinField, most recent first.
func subscriptionListPipeline(matchField, id, joinField string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: matchField, Value: id}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.UsersCollection},
			{Key: "localField", Value: joinField},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: "$user._id"},
			{Key: "username", Value: "$user.username"},
			{Key: "fullName", Value: "$user.fullName"},
			{Key: "avatar", Value: "$user.avatar"},
			{Key: "subscribedAt", Value: "$createdAt"},
		}}},
	}
}

func videoTotalsPipeline(ownerID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "owner", Value: ownerID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalViews", Value: bson.D{{Key: "$sum", Value: "$views"}}},
			{Key: "totalVideos", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}
