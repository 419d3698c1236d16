package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

const invalidCredentialsMessage = "invalid user credentials"

// UserService implements registration, sessions and account management.
type UserService struct {
	users  repositories.UserRepository
	tokens TokenIssuer
	media  storage.Delegate
	reaper AssetReaper
	now    func() time.Time
}

// NewUserService wires the user service.
func NewUserService(users repositories.UserRepository, tokens TokenIssuer, media storage.Delegate, reaper AssetReaper) *UserService {
	return &UserService{users: users, tokens: tokens, media: media, reaper: reaper, now: utcNow}
}

// RegisterInput carries the registration form. Files are spooled by the caller.
type RegisterInput struct {
	FullName   string         `json:"fullName" validate:"required,max=100"`
	Username   string         `json:"username" validate:"required,max=32"`
	Email      string         `json:"email" validate:"required,email"`
	Password   string         `json:"password" validate:"required,min=8,max=72"`
	Avatar     *storage.Asset `json:"-"`
	CoverImage *storage.Asset `json:"-"`
}

// LoginInput accepts either a username or an email.
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the outcome of a successful login or refresh.
type Session struct {
	User   models.User
	Tokens models.SessionTokens
}

// ChangePasswordInput carries the change-password form.
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// UpdateAccountInput carries the account details form.
type UpdateAccountInput struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

// Register creates an account after uploading the avatar and optional cover image.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validateInput(in); err != nil {
		return models.User{}, err
	}
	if in.Avatar == nil {
		return models.User{}, apperr.Validation("avatar file is required")
	}

	_, err := s.users.FindByLogin(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		return models.User{}, apperr.Conflict("user with this username or email already exists")
	case !errors.Is(err, repositories.ErrNotFound):
		return models.User{}, apperr.Unknown(err)
	}

	avatar, err := uploadAsset(ctx, s.media, in.Avatar, "avatar")
	if err != nil {
		return models.User{}, err
	}

	var cover storage.Uploaded
	if in.CoverImage != nil {
		cover, err = uploadAsset(ctx, s.media, in.CoverImage, "cover image")
		if err != nil {
			reap(ctx, s.reaper, avatar.URL)
			return models.User{}, err
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		reap(ctx, s.reaper, avatar.URL, cover.URL)
		return models.User{}, apperr.Unknown(err)
	}

	now := s.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Avatar:     avatar.URL,
		CoverImage: cover.URL,
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		reap(ctx, s.reaper, avatar.URL, cover.URL)
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("user with this username or email already exists")
		}
		return models.User{}, apperr.Unknown(err)
	}

	logging.FromContext(ctx).Info("user registered", "userID", user.ID)
	return user, nil
}

// Login verifies credentials and opens a session.
func (s *UserService) Login(ctx context.Context, in LoginInput) (Session, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" && email == "" {
		return Session{}, apperr.Validation("username or email is required")
	}
	if in.Password == "" {
		return Session{}, apperr.Validation("password is required")
	}

	user, err := s.users.FindByLogin(ctx, username, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Session{}, apperr.Auth(invalidCredentialsMessage)
		}
		return Session{}, apperr.Unknown(err)
	}

	if err := auth.CheckPassword(user.Password, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return Session{}, apperr.Auth(invalidCredentialsMessage)
		}
		return Session{}, apperr.Unknown(err)
	}

	tokens, err := s.tokens.Issue(ctx, auth.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return Session{}, apperr.Unknown(err)
	}
	return Session{User: user, Tokens: tokens}, nil
}

// Refresh rotates the session behind a refresh token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Session{}, apperr.Auth("refresh token is required")
	}

	tokens, identity, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshTokenExpired), errors.Is(err, auth.ErrRefreshTokenReused):
			return Session{}, apperr.Auth("refresh token is expired or used")
		case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrInvalidToken):
			return Session{}, apperr.Auth("invalid refresh token")
		default:
			return Session{}, apperr.Unknown(err)
		}
	}

	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Session{}, apperr.Auth("invalid refresh token")
		}
		return Session{}, apperr.Unknown(err)
	}
	return Session{User: user, Tokens: tokens}, nil
}

// Logout revokes the user's refresh token.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return apperr.Unknown(err)
	}
	return nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *UserService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := validateInput(in); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return storeError(err, "user not found")
	}
	if err := auth.CheckPassword(user.Password, in.OldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperr.Auth("invalid old password")
		}
		return apperr.Unknown(err)
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return apperr.Unknown(err)
	}
	_, err = s.users.Update(ctx, userID, models.UserPatch{Password: &hash, UpdatedAt: s.now()})
	return storeError(err, "user not found")
}

// CurrentUser returns the authenticated user's record.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, storeError(err, "user not found")
	}
	return user, nil
}

// UpdateAccount changes the display name and email.
func (s *UserService) UpdateAccount(ctx context.Context, userID string, in UpdateAccountInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return models.User{}, err
	}

	user, err := s.users.Update(ctx, userID, models.UserPatch{
		FullName:  &in.FullName,
		Email:     &in.Email,
		UpdatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("email is already in use")
		}
		return models.User{}, storeError(err, "user not found")
	}
	return user, nil
}

// UpdateAvatar replaces the avatar image.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, asset *storage.Asset) (models.User, error) {
	return s.replaceImage(ctx, userID, asset, "avatar", func(u models.User) string { return u.Avatar },
		func(url string) models.UserPatch { return models.UserPatch{Avatar: &url} })
}

// UpdateCoverImage replaces the cover image.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, asset *storage.Asset) (models.User, error) {
	return s.replaceImage(ctx, userID, asset, "cover image", func(u models.User) string { return u.CoverImage },
		func(url string) models.UserPatch { return models.UserPatch{CoverImage: &url} })
}

// replaceImage uploads the new image, points the record at it and only then
// schedules the superseded image for deletion.
func (s *UserService) replaceImage(
	ctx context.Context,
	userID string,
	asset *storage.Asset,
	what string,
	current func(models.User) string,
	patchFor func(url string) models.UserPatch,
) (models.User, error) {
	if asset == nil {
		return models.User{}, apperr.Validation(what + " file is required")
	}

	existing, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, storeError(err, "user not found")
	}

	uploaded, err := uploadAsset(ctx, s.media, asset, what)
	if err != nil {
		return models.User{}, err
	}

	patch := patchFor(uploaded.URL)
	patch.UpdatedAt = s.now()
	updated, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		reap(ctx, s.reaper, uploaded.URL)
		return models.User{}, storeError(err, "user not found")
	}

	if old := current(existing); old != uploaded.URL {
		reap(ctx, s.reaper, old)
	}
	return updated, nil
}

// ChannelProfile returns the public profile of a channel as seen by viewerID.
func (s *UserService) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperr.Validation("username is missing")
	}

	profile, err := s.users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return models.ChannelProfile{}, storeError(err, "channel does not exist")
	}
	return profile, nil
}

// WatchHistory lists the user's watched videos, most recent first.
func (s *UserService) WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	history, err := s.users.WatchHistory(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user not found")
	}
	if history == nil {
		history = []models.VideoSummary{}
	}
	return history, nil
}
