package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// SubscriptionRepository exposes the subscriber graph.
type SubscriptionRepository interface {
	// Toggle atomically removes the (channel, subscriber) edge when present and
	// creates it otherwise. A concurrent toggle racing on the same edge surfaces
	// as ErrConflict.
	Toggle(ctx context.Context, subscription models.Subscription) (subscribed bool, err error)
	Subscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error)
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
}
