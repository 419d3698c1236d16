package repositories

import "github.com/vidtube/backend/internal/auth"

// Stores bundles one backend's repositories.
type Stores struct {
	Users         UserRepository
	Sessions      auth.SessionStore
	Videos        VideoRepository
	Comments      CommentRepository
	Tweets        TweetRepository
	Playlists     PlaylistRepository
	Subscriptions SubscriptionRepository
	Likes         LikeRepository
}
