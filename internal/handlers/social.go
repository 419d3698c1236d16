package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/respond"
	"github.com/vidtube/backend/internal/services"
)

// SubscriptionHandler implements subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionService
}

type subscriptionState struct {
	Subscribed bool `json:"subscribed"`
}

// Toggle handles POST /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscribed, err := h.Subscriptions.Toggle(ctx, chi.URLParam(r, "channelId"), actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	message := "Unsubscription Successful"
	if subscribed {
		message = "Subscription Successful"
	}
	respond.JSON(ctx, w, http.StatusOK, subscriptionState{Subscribed: subscribed}, message)
}

// Subscribers handles GET /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscribers, err := h.Subscriptions.Subscribers(ctx, chi.URLParam(r, "channelId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, subscribers, "Subscribers fetched successfully")
}

// SubscribedChannels handles GET /subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channels, err := h.Subscriptions.SubscribedChannels(ctx, chi.URLParam(r, "subscriberId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, channels, "Subscribed channels fetched successfully")
}

// LikeHandler implements like endpoints.
type LikeHandler struct {
	Likes LikeService
}

type likeState struct {
	Liked bool `json:"liked"`
}

// Toggle returns the handler for POST /likes/toggle/{v|c|t}/{id}.
func (h LikeHandler) Toggle(kind models.LikeKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		liked, err := h.Likes.Toggle(ctx, kind, chi.URLParam(r, param), actorID(r))
		if err != nil {
			respond.Error(ctx, w, err)
			return
		}
		respond.JSON(ctx, w, http.StatusOK, likeState{Liked: liked}, services.ToggleMessage(kind, liked))
	}
}

// LikedVideos handles GET /likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := h.Likes.LikedVideos(ctx, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, videos, "Liked videos fetched successfully")
}

// DashboardHandler implements the channel owner's dashboard.
type DashboardHandler struct {
	Dashboard DashboardService
}

// Stats handles GET /dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.Dashboard.Stats(ctx, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, stats, "Channel stats fetched successfully")
}

// Videos handles GET /dashboard/videos.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := h.Dashboard.Videos(ctx, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, videos, "Channel videos fetched successfully")
}
