package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/respond"
	"github.com/vidtube/backend/internal/services"
)

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistService
}

// Create handles POST /playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.CreatePlaylistInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.Create(ctx, actorID(r), req)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusCreated, playlist, "Playlist created successfully")
}

// Get handles GET /playlist/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.Playlists.Get(ctx, chi.URLParam(r, "playlistId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, playlist, "Playlist fetched successfully")
}

// ListByUser handles GET /playlist/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlists, err := h.Playlists.ListByUser(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, playlists, "Playlists fetched successfully")
}

// Update handles PATCH /playlist/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.UpdatePlaylistInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.Update(ctx, chi.URLParam(r, "playlistId"), actorID(r), req)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, playlist, "Playlist updated successfully")
}

// Delete handles DELETE /playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Playlists.Delete(ctx, chi.URLParam(r, "playlistId"), actorID(r)); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, struct{}{}, "Playlist deleted successfully")
}

// AddVideo handles PATCH /playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.Playlists.AddVideo(ctx, chi.URLParam(r, "playlistId"), chi.URLParam(r, "videoId"), actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, playlist, "Video added to playlist successfully")
}

// RemoveVideo handles PATCH /playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.Playlists.RemoveVideo(ctx, chi.URLParam(r, "playlistId"), chi.URLParam(r, "videoId"), actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, playlist, "Video removed from playlist successfully")
}
