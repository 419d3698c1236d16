package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

func TestLikeToggleRoutes(t *testing.T) {
	deps := testDependencies(t)
	liked := map[string]bool{}
	var gotKind models.LikeKind
	deps.Likes = stubLikes{toggle: func(kind models.LikeKind, targetID, actorID string) (bool, error) {
		gotKind = kind
		key := actorID + "/" + targetID
		liked[key] = !liked[key]
		return liked[key], nil
	}}
	router := newTestRouter(t, deps)

	tests := []struct {
		path    string
		kind    models.LikeKind
		message string
	}{
		{"/api/v1/likes/toggle/v/v-1", models.LikeKindVideo, "Video liked successfully"},
		{"/api/v1/likes/toggle/c/c-1", models.LikeKindComment, "Comment liked successfully"},
		{"/api/v1/likes/toggle/t/t-1", models.LikeKindTweet, "Tweet liked successfully"},
		{"/api/v1/likes/toggle/t/t-1", models.LikeKindTweet, "Tweet unliked successfully"},
	}

	for _, tt := range tests {
		rec := serve(router, authed(httptest.NewRequest(http.MethodPost, tt.path, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", tt.path, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if gotKind != tt.kind || env.Message != tt.message {
			t.Fatalf("%s: expected %s %q got %s %q", tt.path, tt.kind, tt.message, gotKind, env.Message)
		}
	}
}

func TestSubscriptionToggleMessages(t *testing.T) {
	deps := testDependencies(t)
	subscribed := false
	var gotChannel, gotActor string
	deps.Subscriptions = stubSubscriptions{toggle: func(channelID, actorID string) (bool, error) {
		gotChannel, gotActor = channelID, actorID
		subscribed = !subscribed
		return subscribed, nil
	}}
	router := newTestRouter(t, deps)

	for _, want := range []string{"Subscription Successful", "Unsubscription Successful"} {
		rec := serve(router, authed(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/c/chan-1", nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Message != want {
			t.Fatalf("expected %q got %q", want, env.Message)
		}
	}
	if gotChannel != "chan-1" || gotActor != "user-1" {
		t.Fatalf("unexpected toggle args %q %q", gotChannel, gotActor)
	}
}

func TestDashboardRequiresAuth(t *testing.T) {
	router := newTestRouter(t, testDependencies(t))

	for _, path := range []string{"/api/v1/dashboard/stats", "/api/v1/dashboard/videos", "/api/v1/likes/videos"} {
		if rec := serve(router, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, rec.Code)
		}
	}
}
