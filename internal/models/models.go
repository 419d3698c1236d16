package models

import "time"

// User represents an account (and channel) within the VidTube platform.
type User struct {
	ID           string    `json:"_id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	FullName     string    `json:"fullName" bson:"fullName"`
	Avatar       string    `json:"avatar" bson:"avatar"`
	CoverImage   string    `json:"coverImage" bson:"coverImage"`
	Password     string    `json:"-" bson:"password"`
	RefreshToken string    `json:"-" bson:"refreshToken"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserPatch carries the fields of a partial user update. Nil fields are left untouched.
type UserPatch struct {
	FullName     *string
	Email        *string
	Avatar       *string
	CoverImage   *string
	Password     *string
	RefreshToken *string
	UpdatedAt    time.Time
}

// Video is an uploaded video together with its delegate-hosted assets.
type Video struct {
	ID          string    `json:"_id" bson:"_id"`
	Owner       string    `json:"owner" bson:"owner"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	VideoFile   string    `json:"videoFile" bson:"videoFile"`
	Thumbnail   string    `json:"thumbnail" bson:"thumbnail"`
	Duration    float64   `json:"duration" bson:"duration"`
	Views       int64     `json:"views" bson:"views"`
	IsPublished bool      `json:"isPublished" bson:"isPublished"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// VideoPatch carries the fields of a partial video update.
type VideoPatch struct {
	Title       *string
	Description *string
	Thumbnail   *string
	VideoFile   *string
	IsPublished *bool
	UpdatedAt   time.Time
}

// Comment is a text comment left on a video.
type Comment struct {
	ID        string    `json:"_id" bson:"_id"`
	Video     string    `json:"video" bson:"video"`
	Owner     string    `json:"owner" bson:"owner"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Tweet is a short text post published on a channel.
type Tweet struct {
	ID        string    `json:"_id" bson:"_id"`
	Owner     string    `json:"owner" bson:"owner"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Playlist is an ordered collection of videos curated by its owner.
type Playlist struct {
	ID          string    `json:"_id" bson:"_id"`
	Owner       string    `json:"owner" bson:"owner"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Videos      []string  `json:"videos" bson:"videos"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PlaylistPatch carries the fields of a partial playlist update.
type PlaylistPatch struct {
	Name        *string
	Description *string
	UpdatedAt   time.Time
}

// Contains reports whether the playlist already references the video.
func (p Playlist) Contains(videoID string) bool {
	for _, id := range p.Videos {
		if id == videoID {
			return true
		}
	}
	return false
}

// Subscription links a subscriber to a channel.
type Subscription struct {
	ID         string    `json:"_id" bson:"_id"`
	Channel    string    `json:"channel" bson:"channel"`
	Subscriber string    `json:"subscriber" bson:"subscriber"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
