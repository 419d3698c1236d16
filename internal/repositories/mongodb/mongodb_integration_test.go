//go:build integration

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start mongo container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get container host: %v\n", err)
		container.Terminate(ctx) //nolint:errcheck
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		fmt.Fprintf(os.Stderr, "get mapped port: %v\n", err)
		container.Terminate(ctx) //nolint:errcheck
		os.Exit(1)
	}

	client, database, err := db.ConnectMongo(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), "vidtube_test", 30*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect mongo: %v\n", err)
		container.Terminate(ctx) //nolint:errcheck
		os.Exit(1)
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		fmt.Fprintf(os.Stderr, "ensure indexes: %v\n", err)
		client.Disconnect(ctx) //nolint:errcheck
		container.Terminate(ctx) //nolint:errcheck
		os.Exit(1)
	}

	testDB = database
	code := m.Run()

	client.Disconnect(ctx)   //nolint:errcheck
	container.Terminate(ctx) //nolint:errcheck
	os.Exit(code)
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for collection := range db.IndexModels() {
		if _, err := testDB.Collection(collection).DeleteMany(ctx, map[string]any{}); err != nil {
			t.Fatalf("clear %s: %v", collection, err)
		}
	}
}

func createTestUser(t *testing.T, repo *UserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  username,
		Password:  "password-hash",
		Avatar:    "https://cdn.example.com/" + username + ".png",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *VideoRepository, ownerID, title string, published bool) models.Video {
	t.Helper()
	video := models.Video{
		ID:          uuid.NewString(),
		Owner:       ownerID,
		Title:       title,
		Description: title + " description",
		VideoFile:   "https://cdn.example.com/" + uuid.NewString() + ".mp4",
		Thumbnail:   "https://cdn.example.com/" + uuid.NewString() + ".png",
		Duration:    12,
		IsPublished: published,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func TestUserRepository_ProfileAndHistory(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	stores := NewStores(testDB)
	users := NewUserRepository(testDB)
	videos := NewVideoRepository(testDB)

	owner := createTestUser(t, users, "owner")
	viewer := createTestUser(t, users, "viewer")

	dup := owner
	dup.ID = uuid.NewString()
	if err := users.Create(ctx, dup); !errors.Is(err, repositories.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	first := createTestVideo(t, videos, owner.ID, "First", true)
	second := createTestVideo(t, videos, owner.ID, "Second", true)
	for _, id := range []string{first.ID, second.ID, first.ID} {
		if err := users.RecordWatch(ctx, viewer.ID, id); err != nil {
			t.Fatalf("record watch: %v", err)
		}
	}

	history, err := users.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 || history[0].ID != first.ID || history[1].ID != second.ID {
		t.Fatalf("unexpected history: %+v", history)
	}
	if history[0].Owner.Username != owner.Username {
		t.Fatalf("expected owner summary, got %+v", history[0].Owner)
	}

	if _, err := stores.Subscriptions.Toggle(ctx, models.Subscription{ID: uuid.NewString(), Channel: owner.ID, Subscriber: viewer.ID, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	profile, err := users.ChannelProfile(ctx, owner.Username, viewer.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscribersCount != 1 || !profile.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := users.ChannelProfile(ctx, "nobody", ""); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLikeRepository_ToggleAndTotals(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewUserRepository(testDB)
	videos := NewVideoRepository(testDB)
	likes := NewLikeRepository(testDB)
	tweets := NewTweetRepository(testDB)

	owner := createTestUser(t, users, "owner")
	fan := createTestUser(t, users, "fan")
	published := createTestVideo(t, videos, owner.ID, "Public", true)
	draft := createTestVideo(t, videos, owner.ID, "Draft", false)

	tweet := models.Tweet{ID: uuid.NewString(), Owner: owner.ID, Content: "hi", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	if err := tweets.Create(ctx, tweet); err != nil {
		t.Fatalf("create tweet: %v", err)
	}

	for _, target := range []struct {
		kind models.LikeKind
		id   string
	}{{models.LikeKindVideo, published.ID}, {models.LikeKindVideo, draft.ID}, {models.LikeKindTweet, tweet.ID}} {
		lt, err := models.NewLikeTarget(target.kind, target.id)
		if err != nil {
			t.Fatalf("like target: %v", err)
		}
		if liked, err := likes.Toggle(ctx, uuid.NewString(), lt, fan.ID); err != nil || !liked {
			t.Fatalf("like: liked=%v err=%v", liked, err)
		}
	}

	liked, err := likes.LikedVideos(ctx, fan.ID)
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}
	if len(liked) != 1 || liked[0].ID != published.ID {
		t.Fatalf("expected only the published video, got %+v", liked)
	}

	if err := tweets.Delete(ctx, tweet.ID); err != nil {
		t.Fatalf("delete tweet: %v", err)
	}
	if err := videos.Delete(ctx, draft.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}

	totals, err := likes.TotalsGivenBy(ctx, fan.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals != (models.LikeTotals{Videos: 1}) {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	target, _ := models.NewLikeTarget(models.LikeKindVideo, published.ID)
	if again, err := likes.Toggle(ctx, uuid.NewString(), target, fan.ID); err != nil || again {
		t.Fatalf("expected unlike, got liked=%v err=%v", again, err)
	}
}

func TestPlaylistRepository_Membership(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewUserRepository(testDB)
	videos := NewVideoRepository(testDB)
	repo := NewPlaylistRepository(testDB)

	owner := createTestUser(t, users, "owner")
	video := createTestVideo(t, videos, owner.ID, "Clip", true)

	playlist := models.Playlist{ID: uuid.NewString(), Owner: owner.ID, Name: "mix", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	got, err := repo.AddVideo(ctx, playlist.ID, video.ID)
	if err != nil {
		t.Fatalf("add video: %v", err)
	}
	if !got.Contains(video.ID) {
		t.Fatalf("expected membership, got %v", got.Videos)
	}
	if _, err := repo.AddVideo(ctx, playlist.ID, video.ID); !errors.Is(err, repositories.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := repo.AddVideo(ctx, uuid.NewString(), video.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing playlist, got %v", err)
	}

	if err := videos.Delete(ctx, video.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	reloaded, err := repo.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("reload playlist: %v", err)
	}
	if len(reloaded.Videos) != 0 {
		t.Fatalf("expected video pulled from playlist, got %v", reloaded.Videos)
	}
	if _, err := repo.RemoveVideo(ctx, playlist.ID, video.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound removing non-member, got %v", err)
	}
}

func TestCommentRepository_ListForVideoPaginates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	usersRepo := NewUserRepository(testDB)
	videosRepo := NewVideoRepository(testDB)
	commentsRepo := NewCommentRepository(testDB)

	owner := createTestUser(t, usersRepo, "owner")
	video := createTestVideo(t, videosRepo, owner.ID, "Chatty", true)
	other := createTestVideo(t, videosRepo, owner.ID, "Quiet", true)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 7; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		comment := models.Comment{ID: uuid.NewString(), Video: video.ID, Owner: owner.ID, Content: fmt.Sprintf("comment-%d", i), CreatedAt: at, UpdatedAt: at}
		if err := commentsRepo.Create(ctx, comment); err != nil {
			t.Fatalf("create comment %d: %v", i, err)
		}
	}
	stray := models.Comment{ID: uuid.NewString(), Video: other.ID, Owner: owner.ID, Content: "elsewhere", CreatedAt: base, UpdatedAt: base}
	if err := commentsRepo.Create(ctx, stray); err != nil {
		t.Fatalf("create stray comment: %v", err)
	}

	want := map[int][]string{
		1: {"comment-6", "comment-5", "comment-4"},
		2: {"comment-3", "comment-2", "comment-1"},
		3: {"comment-0"},
	}
	for pageNum := 1; pageNum <= 3; pageNum++ {
		page, err := commentsRepo.ListForVideo(ctx, video.ID, models.NewPageRequest(pageNum, 3))
		if err != nil {
			t.Fatalf("list page %d: %v", pageNum, err)
		}
		if page.Total != 7 || page.TotalPages != 3 || page.Page != pageNum || page.Limit != 3 {
			t.Fatalf("unexpected pagination on page %d: %+v", pageNum, page.Pagination)
		}
		if len(page.Comments) != len(want[pageNum]) {
			t.Fatalf("expected %d comments on page %d, got %d", len(want[pageNum]), pageNum, len(page.Comments))
		}
		for i, comment := range page.Comments {
			if comment.Content != want[pageNum][i] {
				t.Fatalf("page %d position %d: expected %s, got %s", pageNum, i, want[pageNum][i], comment.Content)
			}
			if comment.Owner.Username != "owner" {
				t.Fatalf("expected owner summary to be looked up, got %+v", comment.Owner)
			}
		}
	}

	beyond, err := commentsRepo.ListForVideo(ctx, video.ID, models.NewPageRequest(4, 3))
	if err != nil {
		t.Fatalf("list past the end: %v", err)
	}
	if len(beyond.Comments) != 0 || beyond.TotalPages != 3 {
		t.Fatalf("expected an empty page past the end, got %+v", beyond)
	}
}
