package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// DashboardService implements the channel owner's dashboard.
type DashboardService struct {
	videos        repositories.VideoRepository
	subscriptions repositories.SubscriptionRepository
	likes         repositories.LikeRepository
	cache         *StatsCache
}

// NewDashboardService wires the dashboard service. cache may be nil.
func NewDashboardService(
	videos repositories.VideoRepository,
	subscriptions repositories.SubscriptionRepository,
	likes repositories.LikeRepository,
	cache *StatsCache,
) *DashboardService {
	return &DashboardService{videos: videos, subscriptions: subscriptions, likes: likes, cache: cache}
}

// Stats combines the channel's video totals, subscriber count and the likes
// its owner gave. The three aggregations run concurrently.
func (s *DashboardService) Stats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	if stats, ok := s.cache.Get(channelID); ok {
		return stats, nil
	}

	ctx, span := logging.StartSpan(ctx, "dashboard.stats")
	defer span.End()

	var (
		videoTotals models.VideoTotals
		subscribers int64
		likeTotals  models.LikeTotals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		videoTotals, err = s.videos.Totals(gctx, channelID)
		return err
	})
	g.Go(func() error {
		var err error
		subscribers, err = s.subscriptions.CountSubscribers(gctx, channelID)
		return err
	})
	g.Go(func() error {
		var err error
		likeTotals, err = s.likes.TotalsGivenBy(gctx, channelID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ChannelStats{}, apperr.Unknown(err)
	}

	stats := models.ChannelStats{
		TotalViews:       videoTotals.Views,
		TotalVideos:      videoTotals.Videos,
		TotalSubscribers: subscribers,
		Likes:            likeTotals,
	}
	s.cache.Put(channelID, stats)
	return stats, nil
}

// Videos lists every video of the channel, published or not.
func (s *DashboardService) Videos(ctx context.Context, channelID string) ([]models.Video, error) {
	videos, err := s.videos.ListByOwner(ctx, channelID)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}
