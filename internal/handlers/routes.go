package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/respond"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger        *slog.Logger
	Tokens        middleware.TokenVerifier
	AuthLimiter   middleware.RateLimiter
	Uploads       Uploader
	SecureCookies bool
	CORSOrigins   []string

	Users         UserService
	Videos        VideoService
	Comments      CommentService
	Tweets        TweetService
	Playlists     PlaylistService
	Subscriptions SubscriptionService
	Likes         LikeService
	Dashboard     DashboardService
}

func (d Dependencies) validate() error {
	var errs []error
	if d.Logger == nil {
		errs = append(errs, errors.New("logger is required"))
	}
	if d.Tokens == nil {
		errs = append(errs, errors.New("token verifier is required"))
	}
	if d.Users == nil || d.Videos == nil || d.Comments == nil || d.Tweets == nil {
		errs = append(errs, errors.New("user, video, comment and tweet services are required"))
	}
	if d.Playlists == nil || d.Subscriptions == nil || d.Likes == nil || d.Dashboard == nil {
		errs = append(errs, errors.New("playlist, subscription, like and dashboard services are required"))
	}
	for _, origin := range d.CORSOrigins {
		if strings.Contains(origin, "*") {
			errs = append(errs, fmt.Errorf("cors origin %q: wildcards cannot be combined with credentials", origin))
		}
	}
	return errors.Join(errs...)
}

// NewRouter wires every HTTP endpoint into a chi router.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	users := UserHandler{Users: deps.Users, Uploads: deps.Uploads, SecureCookies: deps.SecureCookies}
	videos := VideoHandler{Videos: deps.Videos, Uploads: deps.Uploads}
	comments := CommentHandler{Comments: deps.Comments}
	tweets := TweetHandler{Tweets: deps.Tweets}
	playlists := PlaylistHandler{Playlists: deps.Playlists}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	likes := LikeHandler{Likes: deps.Likes}
	dashboard := DashboardHandler{Dashboard: deps.Dashboard}

	requireAuth := middleware.RequireAuth(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)
	authLimit := middleware.RateLimit(deps.AuthLimiter, "auth")

	r := chi.NewRouter()
	r.Use(chimiddleware.CleanPath)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics)
	// cors allows every origin for an empty list, so skip it to stay same-origin.
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(r.Context(), w, apperr.NotFound("route not found"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", HealthHandler{}.Handle)

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimit)
				r.Post("/register", users.Register)
				r.Post("/login", users.Login)
				r.Post("/refresh-token", users.Refresh)
			})
			r.With(optionalAuth).Get("/c/{username}", users.ChannelProfile)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", users.Logout)
				r.Post("/change-password", users.ChangePassword)
				r.Get("/current-user", users.CurrentUser)
				r.Patch("/update-account", users.UpdateAccount)
				r.Patch("/avatar", users.UpdateAvatar)
				r.Patch("/cover-image", users.UpdateCoverImage)
				r.Get("/history", users.WatchHistory)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.With(optionalAuth).Get("/", videos.List)
			r.With(optionalAuth).Get("/{videoId}", videos.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", videos.Publish)
				r.Patch("/{videoId}", videos.Update)
				r.Delete("/{videoId}", videos.Delete)
				r.Patch("/toggle/publish/{videoId}", videos.TogglePublish)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.With(optionalAuth).Get("/{videoId}", comments.List)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/{videoId}", comments.Add)
				r.Patch("/c/{commentId}", comments.Update)
				r.Delete("/c/{commentId}", comments.Delete)
			})
		})

		r.Route("/tweets", func(r chi.Router) {
			r.With(optionalAuth).Get("/user/{userId}", tweets.ListByUser)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", tweets.Create)
				r.Patch("/{tweetId}", tweets.Update)
				r.Delete("/{tweetId}", tweets.Delete)
			})
		})

		r.Route("/playlist", func(r chi.Router) {
			r.With(optionalAuth).Get("/{playlistId}", playlists.Get)
			r.With(optionalAuth).Get("/user/{userId}", playlists.ListByUser)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", playlists.Create)
				r.Patch("/{playlistId}", playlists.Update)
				r.Delete("/{playlistId}", playlists.Delete)
				r.Patch("/add/{videoId}/{playlistId}", playlists.AddVideo)
				r.Patch("/remove/{videoId}/{playlistId}", playlists.RemoveVideo)
			})
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.With(optionalAuth).Get("/c/{channelId}", subscriptions.Subscribers)
			r.With(optionalAuth).Get("/u/{subscriberId}", subscriptions.SubscribedChannels)
			r.With(requireAuth).Post("/c/{channelId}", subscriptions.Toggle)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/toggle/v/{videoId}", likes.Toggle(models.LikeKindVideo, "videoId"))
			r.Post("/toggle/c/{commentId}", likes.Toggle(models.LikeKindComment, "commentId"))
			r.Post("/toggle/t/{tweetId}", likes.Toggle(models.LikeKindTweet, "tweetId"))
			r.Get("/videos", likes.LikedVideos)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/stats", dashboard.Stats)
			r.Get("/videos", dashboard.Videos)
		})
	})

	return r, nil
}
