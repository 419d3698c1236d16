package models

import "time"

// OwnerSummary is the public projection of a user embedded in other views.
type OwnerSummary struct {
	ID       string `json:"_id" bson:"_id"`
	Username string `json:"username" bson:"username"`
	FullName string `json:"fullName" bson:"fullName"`
	Avatar   string `json:"avatar" bson:"avatar"`
}

// ChannelProfile is a user's public channel page as seen by a viewer.
type ChannelProfile struct {
	ID                        string `json:"_id" bson:"_id"`
	FullName                  string `json:"fullName" bson:"fullName"`
	Username                  string `json:"username" bson:"username"`
	Email                     string `json:"email" bson:"email"`
	Avatar                    string `json:"avatar" bson:"avatar"`
	CoverImage                string `json:"coverImage" bson:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount" bson:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount" bson:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed" bson:"isSubscribed"`
}

// VideoSummary is the projection used by watch history and liked videos.
type VideoSummary struct {
	ID          string       `json:"_id" bson:"_id"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	VideoFile   string       `json:"videoFile" bson:"videoFile"`
	Thumbnail   string       `json:"thumbnail" bson:"thumbnail"`
	Duration    float64      `json:"duration" bson:"duration"`
	Views       int64        `json:"views" bson:"views"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	Owner       OwnerSummary `json:"owner" bson:"owner"`
}

// CommentView is a comment joined with its author.
type CommentView struct {
	ID        string       `json:"_id" bson:"_id"`
	Video     string       `json:"video" bson:"video"`
	Content   string       `json:"content" bson:"content"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt"`
	Owner     OwnerSummary `json:"owner" bson:"owner"`
}

// ChannelSummary is a channel or subscriber entry in subscription listings.
type ChannelSummary struct {
	ID           string    `json:"_id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	FullName     string    `json:"fullName" bson:"fullName"`
	Avatar       string    `json:"avatar" bson:"avatar"`
	SubscribedAt time.Time `json:"subscribedAt" bson:"subscribedAt"`
}

// LikeTotals counts likes per target kind.
type LikeTotals struct {
	Videos   int64 `json:"videoLikes" bson:"videoLikes"`
	Tweets   int64 `json:"tweetLikes" bson:"tweetLikes"`
	Comments int64 `json:"commentLikes" bson:"commentLikes"`
}

// VideoTotals aggregates a channel's video catalogue.
type VideoTotals struct {
	Views  int64 `json:"totalViews" bson:"totalViews"`
	Videos int64 `json:"totalVideos" bson:"totalVideos"`
}

// ChannelStats is the dashboard summary of a channel.
type ChannelStats struct {
	TotalViews       int64      `json:"totalViews"`
	TotalVideos      int64      `json:"totalVideos"`
	TotalSubscribers int64      `json:"totalSubscribers"`
	Likes            LikeTotals `json:"likes"`
}
