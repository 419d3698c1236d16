package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/storage"
)

func strPtr(s string) *string { return &s }

func TestPublishReadsDurationFromDelegate(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner")

	video := f.publish(t, owner.ID, "clip")
	if video.Duration != 42.5 {
		t.Fatalf("expected duration from delegate, got %v", video.Duration)
	}
	if !video.IsPublished || video.Owner != owner.ID || video.VideoFile == "" || video.Thumbnail == "" {
		t.Fatalf("unexpected video: %+v", video)
	}
}

func TestPublishRequiresBothFiles(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner")

	_, err := f.videos.Publish(context.Background(), owner.ID, PublishVideoInput{
		Title:       "clip",
		Description: "desc",
		VideoFile:   &storage.Asset{Name: "clip.mp4", Kind: storage.AssetVideo},
	})
	expectKind(t, err, apperr.KindValidation)
}

func TestPublishInsertFailureReapsAssets(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner")
	f.store.failVideoCreate = errStoreDown
	before := len(f.media.uploads)

	_, err := f.videos.Publish(context.Background(), owner.ID, PublishVideoInput{
		Title:       "clip",
		Description: "desc",
		VideoFile:   &storage.Asset{Name: "clip.mp4", Kind: storage.AssetVideo},
		Thumbnail:   &storage.Asset{Name: "clip.png", Kind: storage.AssetImage},
	})
	expectKind(t, err, apperr.KindUnknown)

	uploaded := f.media.uploads[before:]
	queued := f.reaper.queued()
	if len(queued) != 2 || queued[0] != uploaded[0] || queued[1] != uploaded[1] {
		t.Fatalf("expected %v reaped, got %v", uploaded, queued)
	}
}

func TestGetHidesUnpublishedFromOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	viewer := f.register(t, "viewer")
	video := f.publish(t, owner.ID, "clip")

	if _, err := f.videos.TogglePublish(ctx, video.ID, owner.ID); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	_, err := f.videos.Get(ctx, video.ID, viewer.ID)
	expectKind(t, err, apperr.KindNotFound)
	_, err = f.videos.Get(ctx, video.ID, "")
	expectKind(t, err, apperr.KindNotFound)

	got, err := f.videos.Get(ctx, video.ID, owner.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.IsPublished {
		t.Fatalf("expected unpublished video")
	}

	_, err = f.videos.Get(ctx, "not-a-uuid", owner.ID)
	expectKind(t, err, apperr.KindValidation)
}

func TestGetCountsAuthenticatedViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	viewer := f.register(t, "viewer")
	video := f.publish(t, owner.ID, "clip")

	anon, err := f.videos.Get(ctx, video.ID, "")
	if err != nil || anon.Views != 0 {
		t.Fatalf("expected anonymous read without a view, got views=%d err=%v", anon.Views, err)
	}
	seen, err := f.videos.Get(ctx, video.ID, viewer.ID)
	if err != nil || seen.Views != 1 {
		t.Fatalf("expected one view, got views=%d err=%v", seen.Views, err)
	}
}

func TestListValidatesAndScopesUnpublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	public := f.publish(t, owner.ID, "public")
	draft := f.publish(t, owner.ID, "draft")
	if _, err := f.videos.TogglePublish(ctx, draft.ID, owner.ID); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	_, err := f.videos.List(ctx, ListVideosInput{SortBy: "likes"}, "")
	expectKind(t, err, apperr.KindValidation)
	_, err = f.videos.List(ctx, ListVideosInput{SortType: "sideways"}, "")
	expectKind(t, err, apperr.KindValidation)

	feed, err := f.videos.List(ctx, ListVideosInput{}, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if feed.Total != 1 || feed.Videos[0].ID != public.ID || feed.Limit != 10 || feed.Page != 1 {
		t.Fatalf("unexpected public feed: %+v", feed)
	}

	mine, err := f.videos.List(ctx, ListVideosInput{UserID: owner.ID, Limit: 500}, owner.ID)
	if err != nil {
		t.Fatalf("list own channel: %v", err)
	}
	if mine.Total != 2 || mine.Limit != 100 {
		t.Fatalf("expected both videos with clamped limit, got %+v", mine.Pagination)
	}

	empty, err := f.videos.List(ctx, ListVideosInput{Query: "nothing matches"}, "")
	if err != nil || empty.Videos == nil || empty.TotalPages != 0 {
		t.Fatalf("expected empty non-nil page, got %+v err=%v", empty, err)
	}
}

func TestUpdateReplacesThumbnailAfterRecordUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	other := f.register(t, "other")
	video := f.publish(t, owner.ID, "clip")

	_, err := f.videos.Update(ctx, video.ID, other.ID, UpdateVideoInput{Title: strPtr("stolen")})
	expectKind(t, err, apperr.KindAuthorization)

	_, err = f.videos.Update(ctx, video.ID, owner.ID, UpdateVideoInput{})
	expectKind(t, err, apperr.KindValidation)

	updated, err := f.videos.Update(ctx, video.ID, owner.ID, UpdateVideoInput{
		Title:     strPtr("  renamed "),
		Thumbnail: &storage.Asset{Name: "new.png"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "renamed" || updated.Thumbnail == video.Thumbnail || updated.Description != video.Description {
		t.Fatalf("unexpected update: %+v", updated)
	}
	queued := f.reaper.queued()
	if len(queued) != 1 || queued[0] != video.Thumbnail {
		t.Fatalf("expected old thumbnail reaped, got %v", queued)
	}
}

func TestDeleteAbortsWhenDelegateFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	video := f.publish(t, owner.ID, "clip")

	f.media.deleteErr = storage.ErrDeleteFailed
	err := f.videos.Delete(ctx, video.ID, owner.ID)
	expectKind(t, err, apperr.KindUpload)

	if _, err := f.videos.Get(ctx, video.ID, owner.ID); err != nil {
		t.Fatalf("expected record intact, got %v", err)
	}
}

func TestDeleteUnpublishesWhenRecordDeleteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	video := f.publish(t, owner.ID, "clip")

	f.store.failVideoDelete = errStoreDown
	err := f.videos.Delete(ctx, video.ID, owner.ID)
	expectKind(t, err, apperr.KindUnknown)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}

	record := f.store.videos[video.ID]
	if record.IsPublished || record.VideoFile != "" || record.Thumbnail != "" {
		t.Fatalf("expected unpublished record without asset urls, got %+v", record)
	}
}

func TestDeleteSucceedsWhenOnlyDependentsRemain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	video := f.publish(t, owner.ID, "clip")

	if _, err := f.dashboard.Stats(ctx, owner.ID); err != nil {
		t.Fatalf("stats: %v", err)
	}

	f.store.failVideoCleanup = errStoreDown
	if err := f.videos.Delete(ctx, video.ID, owner.ID); err != nil {
		t.Fatalf("expected delete to succeed once the record is gone, got %v", err)
	}
	if _, ok := f.store.videos[video.ID]; ok {
		t.Fatal("expected video record to be deleted")
	}

	stats, err := f.dashboard.Stats(ctx, owner.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalVideos != 0 {
		t.Fatalf("expected cached stats to be invalidated, got %+v", stats)
	}
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	fan := f.register(t, "fan")
	video := f.publish(t, owner.ID, "clip")

	if _, err := f.comments.Add(ctx, video.ID, fan.ID, "nice"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := f.likes.Toggle(ctx, "video", video.ID, fan.ID); err != nil {
		t.Fatalf("like: %v", err)
	}

	if err := f.videos.Delete(ctx, video.ID, owner.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.media.deleted) != 2 {
		t.Fatalf("expected both assets deleted, got %v", f.media.deleted)
	}
	if len(f.store.comments) != 0 || len(f.store.likes) != 0 {
		t.Fatalf("expected comments and likes removed, got %d comments %d likes", len(f.store.comments), len(f.store.likes))
	}

	err := f.videos.Delete(ctx, uuid.NewString(), owner.ID)
	expectKind(t, err, apperr.KindNotFound)
}
