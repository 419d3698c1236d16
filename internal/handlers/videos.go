package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/respond"
	"github.com/vidtube/backend/internal/services"
	"github.com/vidtube/backend/internal/storage"
)

// VideoHandler implements video publishing and browsing endpoints.
type VideoHandler struct {
	Videos  VideoService
	Uploads Uploader
}

// List handles GET /videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, err := h.Videos.List(ctx, services.ListVideosInput{
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		UserID:   q.Get("userId"),
	}, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, page, "Videos fetched successfully")
}

// Publish handles POST /videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := h.Uploads.parse(w, r, map[string]storage.AssetKind{
		"videoFile": storage.AssetVideo,
		"thumbnail": storage.AssetImage,
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	defer form.cleanup(ctx)

	video, err := h.Videos.Publish(ctx, actorID(r), services.PublishVideoInput{
		Title:       form.value("title"),
		Description: form.value("description"),
		VideoFile:   form.file("videoFile"),
		Thumbnail:   form.file("thumbnail"),
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusCreated, video, "Video published successfully")
}

// Get handles GET /videos/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.Get(ctx, chi.URLParam(r, "videoId"), actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, video, "Video fetched successfully")
}

// Update handles PATCH /videos/{videoId}. The thumbnail is optional.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := h.Uploads.parse(w, r, map[string]storage.AssetKind{"thumbnail": storage.AssetImage})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	defer form.cleanup(ctx)

	video, err := h.Videos.Update(ctx, chi.URLParam(r, "videoId"), actorID(r), services.UpdateVideoInput{
		Title:       form.optional("title"),
		Description: form.optional("description"),
		Thumbnail:   form.file("thumbnail"),
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, video, "Video updated successfully")
}

// Delete handles DELETE /videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Videos.Delete(ctx, chi.URLParam(r, "videoId"), actorID(r)); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, struct{}{}, "Video deleted successfully")
}

// TogglePublish handles PATCH /videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.TogglePublish(ctx, chi.URLParam(r, "videoId"), actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	message := "Video unpublished successfully"
	if video.IsPublished {
		message = "Video published successfully"
	}
	respond.JSON(ctx, w, http.StatusOK, video, message)
}
