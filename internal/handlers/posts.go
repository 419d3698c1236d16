package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/respond"
)

type contentRequest struct {
	Content string `json:"content"`
}

// CommentHandler implements comment endpoints.
type CommentHandler struct {
	Comments CommentService
}

// List handles GET /comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.Comments.List(ctx, chi.URLParam(r, "videoId"), actorID(r), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, page, "Comments fetched successfully")
}

// Add handles POST /comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	comment, err := h.Comments.Add(ctx, chi.URLParam(r, "videoId"), actorID(r), req.Content)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	comment, err := h.Comments.Update(ctx, chi.URLParam(r, "commentId"), actorID(r), req.Content)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, comment, "Comment updated successfully")
}

// Delete handles DELETE /comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Comments.Delete(ctx, chi.URLParam(r, "commentId"), actorID(r)); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, struct{}{}, "Comment deleted successfully")
}

// TweetHandler implements tweet endpoints.
type TweetHandler struct {
	Tweets TweetService
}

// Create handles POST /tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.Create(ctx, actorID(r), req.Content)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListByUser handles GET /tweets/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweets, err := h.Tweets.ListByUser(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, tweets, "Tweets fetched successfully")
}

// Update handles PATCH /tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.Update(ctx, chi.URLParam(r, "tweetId"), actorID(r), req.Content)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, tweet, "Tweet updated successfully")
}

// Delete handles DELETE /tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Tweets.Delete(ctx, chi.URLParam(r, "tweetId"), actorID(r)); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, struct{}{}, "Tweet deleted successfully")
}
