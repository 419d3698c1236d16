package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// memoryStore backs every repository fake with one set of maps so that
// cross-entity behavior (cascades, joins) stays consistent in tests.
type memoryStore struct {
	mu            sync.Mutex
	users         map[string]models.User
	history       map[string][]string
	videos        map[string]models.Video
	comments      map[string]models.Comment
	tweets        map[string]models.Tweet
	playlists     map[string]models.Playlist
	subscriptions map[[2]string]models.Subscription
	likes         map[likeKey]time.Time

	failVideoDelete  error
	failVideoCleanup error
	failVideoCreate  error
	toggleConflicts  int
}

type likeKey struct {
	kind   models.LikeKind
	target string
	user   string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:         map[string]models.User{},
		history:       map[string][]string{},
		videos:        map[string]models.Video{},
		comments:      map[string]models.Comment{},
		tweets:        map[string]models.Tweet{},
		playlists:     map[string]models.Playlist{},
		subscriptions: map[[2]string]models.Subscription{},
		likes:         map[likeKey]time.Time{},
	}
}

type memoryUsers struct{ s *memoryStore }

func (r memoryUsers) Create(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	r.s.users[user.ID] = user
	return nil
}

func (r memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (r memoryUsers) FindByLogin(_ context.Context, username, email string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (r memoryUsers) Update(_ context.Context, id string, patch models.UserPatch) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range r.s.users {
			if otherID != id && other.Email == *patch.Email {
				return models.User{}, repositories.ErrConflict
			}
		}
		u.Email = *patch.Email
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.CoverImage != nil {
		u.CoverImage = *patch.CoverImage
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	if patch.RefreshToken != nil {
		u.RefreshToken = *patch.RefreshToken
	}
	u.UpdatedAt = patch.UpdatedAt
	r.s.users[id] = u
	return u, nil
}

func (r memoryUsers) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username != username {
			continue
		}
		profile := models.ChannelProfile{ID: u.ID, Username: u.Username, FullName: u.FullName, Email: u.Email}
		for key := range r.s.subscriptions {
			if key[0] == u.ID {
				profile.SubscribersCount++
				if key[1] == viewerID {
					profile.IsSubscribed = true
				}
			}
			if key[1] == u.ID {
				profile.ChannelsSubscribedToCount++
			}
		}
		return profile, nil
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (r memoryUsers) RecordWatch(_ context.Context, userID, videoID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return repositories.ErrNotFound
	}
	entries := []string{videoID}
	for _, id := range r.s.history[userID] {
		if id != videoID {
			entries = append(entries, id)
		}
	}
	r.s.history[userID] = entries
	return nil
}

func (r memoryUsers) WatchHistory(_ context.Context, userID string) ([]models.VideoSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.VideoSummary
	for _, id := range r.s.history[userID] {
		if v, ok := r.s.videos[id]; ok {
			out = append(out, models.VideoSummary{ID: v.ID, Title: v.Title, Owner: models.OwnerSummary{ID: v.Owner}})
		}
	}
	return out, nil
}

type memoryVideos struct{ s *memoryStore }

func (r memoryVideos) Create(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failVideoCreate != nil {
		return r.s.failVideoCreate
	}
	if _, ok := r.s.users[video.Owner]; !ok {
		return repositories.ErrNotFound
	}
	r.s.videos[video.ID] = video
	return nil
}

func (r memoryVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (r memoryVideos) Update(_ context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		v.Thumbnail = *patch.Thumbnail
	}
	if patch.VideoFile != nil {
		v.VideoFile = *patch.VideoFile
	}
	if patch.IsPublished != nil {
		v.IsPublished = *patch.IsPublished
	}
	v.UpdatedAt = patch.UpdatedAt
	r.s.videos[id] = v
	return v, nil
}

func (r memoryVideos) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failVideoDelete != nil {
		return r.s.failVideoDelete
	}
	if _, ok := r.s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.videos, id)
	if r.s.failVideoCleanup != nil {
		return fmt.Errorf("%w: delete video likes: %w", repositories.ErrDependentsRemain, r.s.failVideoCleanup)
	}
	for cid, c := range r.s.comments {
		if c.Video == id {
			delete(r.s.comments, cid)
		}
	}
	for key := range r.s.likes {
		if key.kind == models.LikeKindVideo && key.target == id {
			delete(r.s.likes, key)
		}
	}
	return nil
}

func (r memoryVideos) IncrementViews(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	v.Views++
	r.s.videos[id] = v
	return nil
}

func (r memoryVideos) List(_ context.Context, query models.VideoQuery) (models.VideoPage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []models.Video
	for _, v := range r.s.videos {
		if query.OwnerID != "" && v.Owner != query.OwnerID {
			continue
		}
		if !v.IsPublished && !(query.IncludeUnpublished && query.OwnerID != "") {
			continue
		}
		if query.Text != "" && !strings.Contains(strings.ToLower(v.Title+" "+v.Description), strings.ToLower(query.Text)) {
			continue
		}
		matched = append(matched, v)
	}
	sort.Slice(matched, func(i, j int) bool {
		less := matched[i].CreatedAt.Before(matched[j].CreatedAt)
		if query.SortBy == models.VideoSortViews {
			less = matched[i].Views < matched[j].Views
		}
		if query.Ascending {
			return less
		}
		return !less
	})

	total := int64(len(matched))
	start := query.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + query.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return models.VideoPage{Videos: matched[start:end], Pagination: models.NewPagination(query.PageRequest, total)}, nil
}

func (r memoryVideos) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Video
	for _, v := range r.s.videos {
		if v.Owner == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memoryVideos) Totals(_ context.Context, ownerID string) (models.VideoTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var totals models.VideoTotals
	for _, v := range r.s.videos {
		if v.Owner == ownerID {
			totals.Videos++
			totals.Views += v.Views
		}
	}
	return totals, nil
}

type memoryComments struct{ s *memoryStore }

func (r memoryComments) Create(_ context.Context, comment models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.videos[comment.Video]; !ok {
		return repositories.ErrNotFound
	}
	r.s.comments[comment.ID] = comment
	return nil
}

func (r memoryComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return c, nil
}

func (r memoryComments) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) (models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = updatedAt
	r.s.comments[id] = c
	return c, nil
}

func (r memoryComments) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r memoryComments) ListForVideo(_ context.Context, videoID string, page models.PageRequest) (models.CommentPage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var views []models.CommentView
	for _, c := range r.s.comments {
		if c.Video == videoID {
			views = append(views, models.CommentView{ID: c.ID, Video: c.Video, Content: c.Content, CreatedAt: c.CreatedAt, Owner: models.OwnerSummary{ID: c.Owner}})
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })
	return models.CommentPage{Comments: views, Pagination: models.NewPagination(page, int64(len(views)))}, nil
}

type memoryTweets struct{ s *memoryStore }

func (r memoryTweets) Create(_ context.Context, tweet models.Tweet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tweets[tweet.ID] = tweet
	return nil
}

func (r memoryTweets) FindByID(_ context.Context, id string) (models.Tweet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return t, nil
}

func (r memoryTweets) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) (models.Tweet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	t.Content = content
	t.UpdatedAt = updatedAt
	r.s.tweets[id] = t
	return t, nil
}

func (r memoryTweets) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.tweets, id)
	return nil
}

func (r memoryTweets) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Tweet
	for _, t := range r.s.tweets {
		if t.Owner == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memoryPlaylists struct{ s *memoryStore }

func (r memoryPlaylists) Create(_ context.Context, playlist models.Playlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.playlists {
		if p.Owner == playlist.Owner && p.Name == playlist.Name {
			return repositories.ErrConflict
		}
	}
	r.s.playlists[playlist.ID] = playlist
	return nil
}

func (r memoryPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	p.Videos = append([]string{}, p.Videos...)
	return p, nil
}

func (r memoryPlaylists) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Playlist
	for _, p := range r.s.playlists {
		if p.Owner == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memoryPlaylists) Update(_ context.Context, id string, patch models.PlaylistPatch) (models.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	r.s.playlists[id] = p
	return p, nil
}

func (r memoryPlaylists) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.playlists, id)
	return nil
}

func (r memoryPlaylists) AddVideo(_ context.Context, id, videoID string) (models.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if p.Contains(videoID) {
		return models.Playlist{}, repositories.ErrConflict
	}
	p.Videos = append(append([]string{}, p.Videos...), videoID)
	r.s.playlists[id] = p
	return p, nil
}

func (r memoryPlaylists) RemoveVideo(_ context.Context, id, videoID string) (models.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.playlists[id]
	if !ok || !p.Contains(videoID) {
		return models.Playlist{}, repositories.ErrNotFound
	}
	kept := []string{}
	for _, v := range p.Videos {
		if v != videoID {
			kept = append(kept, v)
		}
	}
	p.Videos = kept
	r.s.playlists[id] = p
	return p, nil
}

type memorySubscriptions struct{ s *memoryStore }

func (r memorySubscriptions) Toggle(_ context.Context, sub models.Subscription) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.toggleConflicts > 0 {
		r.s.toggleConflicts--
		return false, repositories.ErrConflict
	}
	key := [2]string{sub.Channel, sub.Subscriber}
	if _, ok := r.s.subscriptions[key]; ok {
		delete(r.s.subscriptions, key)
		return false, nil
	}
	r.s.subscriptions[key] = sub
	return true, nil
}

func (r memorySubscriptions) list(match func(key [2]string) (string, bool)) []models.ChannelSummary {
	var out []models.ChannelSummary
	for key, sub := range r.s.subscriptions {
		if id, ok := match(key); ok {
			u := r.s.users[id]
			out = append(out, models.ChannelSummary{ID: u.ID, Username: u.Username, SubscribedAt: sub.CreatedAt})
		}
	}
	return out
}

func (r memorySubscriptions) Subscribers(_ context.Context, channelID string) ([]models.ChannelSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(key [2]string) (string, bool) { return key[1], key[0] == channelID }), nil
}

func (r memorySubscriptions) SubscribedChannels(_ context.Context, subscriberID string) ([]models.ChannelSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(key [2]string) (string, bool) { return key[0], key[1] == subscriberID }), nil
}

func (r memorySubscriptions) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for key := range r.s.subscriptions {
		if key[0] == channelID {
			n++
		}
	}
	return n, nil
}

type memoryLikes struct{ s *memoryStore }

func (r memoryLikes) Toggle(_ context.Context, _ string, target models.LikeTarget, likedBy string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if target.IsZero() {
		return false, models.ErrInvalidLikeTarget
	}
	if r.s.toggleConflicts > 0 {
		r.s.toggleConflicts--
		return false, repositories.ErrConflict
	}
	key := likeKey{kind: target.Kind(), target: target.ID(), user: likedBy}
	if _, ok := r.s.likes[key]; ok {
		delete(r.s.likes, key)
		return false, nil
	}
	r.s.likes[key] = time.Now()
	return true, nil
}

func (r memoryLikes) LikedVideos(_ context.Context, userID string) ([]models.VideoSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.VideoSummary
	for key := range r.s.likes {
		if key.kind != models.LikeKindVideo || key.user != userID {
			continue
		}
		if v, ok := r.s.videos[key.target]; ok {
			out = append(out, models.VideoSummary{ID: v.ID, Title: v.Title})
		}
	}
	return out, nil
}

func (r memoryLikes) TotalsGivenBy(_ context.Context, userID string) (models.LikeTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var totals models.LikeTotals
	for key := range r.s.likes {
		if key.user != userID {
			continue
		}
		switch key.kind {
		case models.LikeKindVideo:
			if _, ok := r.s.videos[key.target]; ok {
				totals.Videos++
			}
		case models.LikeKindTweet:
			if _, ok := r.s.tweets[key.target]; ok {
				totals.Tweets++
			}
		case models.LikeKindComment:
			if _, ok := r.s.comments[key.target]; ok {
				totals.Comments++
			}
		}
	}
	return totals, nil
}

// fakeMedia records uploads and deletes and can be told to fail either.
type fakeMedia struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	uploadErr error
	deleteErr error
	failOn    string
	counter   int
}

func (m *fakeMedia) Upload(_ context.Context, asset storage.Asset) (storage.Uploaded, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil && (m.failOn == "" || m.failOn == asset.Name) {
		return storage.Uploaded{}, m.uploadErr
	}
	m.counter++
	url := fmt.Sprintf("https://cdn.example.com/%d/%s", m.counter, asset.Name)
	m.uploads = append(m.uploads, url)
	up := storage.Uploaded{URL: url, PublicID: asset.Name}
	if asset.Kind == storage.AssetVideo {
		up.Duration = 42.5
	}
	return up, nil
}

func (m *fakeMedia) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, url)
	return nil
}

type fakeReaper struct {
	mu   sync.Mutex
	urls []string
}

func (r *fakeReaper) Enqueue(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return nil
}

func (r *fakeReaper) queued() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

var errStoreDown = errors.New("store unavailable")
