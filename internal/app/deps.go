package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/repositories/mongodb"
	"github.com/vidtube/backend/internal/services"
	"github.com/vidtube/backend/internal/storage"
)

const rateLimiterTTL = 10 * time.Minute

// closeFunc releases a resource opened during bootstrap.
type closeFunc func(ctx context.Context) error

// openStores connects the configured backend and returns its repositories
// together with the function that disconnects it.
func openStores(ctx context.Context, cfg config.Config) (repositories.Stores, closeFunc, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return repositories.Stores{}, nil, err
		}
		return repositories.NewPostgresStores(pool), func(context.Context) error {
			pool.Close()
			return nil
		}, nil

	case config.StoreDriverMongo:
		client, database, err := db.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout)
		if err != nil {
			return repositories.Stores{}, nil, err
		}
		if err := db.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return repositories.Stores{}, nil, err
		}
		return mongodb.NewStores(database), client.Disconnect, nil

	default:
		return repositories.Stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// newMediaDelegate builds the configured media backend behind a circuit breaker.
func newMediaDelegate(ctx context.Context, cfg config.MediaConfig, logger *slog.Logger) (storage.Delegate, error) {
	prober := storage.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout)

	var (
		base storage.Delegate
		err  error
	)
	switch cfg.Driver {
	case config.MediaDriverS3:
		base, err = storage.NewS3Storage(ctx, cfg.ObjectStore, prober)
	case config.MediaDriverCloudinary:
		base, err = storage.NewCloudinaryStorage(cfg.Cloudinary, prober)
	default:
		err = fmt.Errorf("unknown media driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return storage.NewBreakerDelegate(base, storage.BreakerConfig{
		Name:        cfg.Driver,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}, logger), nil
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned janitor must be shut down after the server stops.
func buildDependencies(stores repositories.Stores, media storage.Delegate, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *storage.Janitor) {
	janitor := storage.NewJanitor(media, storage.JanitorConfig{
		QueueSize: cfg.Media.Janitor.QueueSize,
		Workers:   cfg.Media.Janitor.Workers,
	}, logger)

	tokens := auth.NewManager(auth.TokenConfig{
		AccessSecret:  cfg.Tokens.AccessSecret,
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshSecret: cfg.Tokens.RefreshSecret,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
	}, stores.Sessions)

	stats := services.NewStatsCache(cfg.StatsCacheTTL)

	deps := handlers.Dependencies{
		Logger: logger,
		Tokens: tokens,
		AuthLimiter: middleware.NewIPRateLimiter(
			cfg.AuthRateLimit.Requests,
			cfg.AuthRateLimit.Window,
			cfg.AuthRateLimit.Burst,
			rateLimiterTTL,
		),
		Uploads:       handlers.Uploader{Dir: cfg.Media.UploadDir, MaxBytes: cfg.Media.MaxUploadBytes},
		SecureCookies: cfg.Tokens.SecureCookies,
		CORSOrigins:   cfg.CORSOrigins,

		Users:         services.NewUserService(stores.Users, tokens, media, janitor),
		Videos:        services.NewVideoService(stores.Videos, stores.Users, media, janitor, stats),
		Comments:      services.NewCommentService(stores.Comments, stores.Videos),
		Tweets:        services.NewTweetService(stores.Tweets, stores.Users),
		Playlists:     services.NewPlaylistService(stores.Playlists, stores.Videos, stores.Users),
		Subscriptions: services.NewSubscriptionService(stores.Subscriptions, stores.Users, stats),
		Likes:         services.NewLikeService(stores.Likes, stores.Videos, stores.Comments, stores.Tweets, stats),
		Dashboard:     services.NewDashboardService(stores.Videos, stores.Subscriptions, stores.Likes, stats),
	}
	return deps, janitor
}
