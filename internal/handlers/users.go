package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/respond"
	"github.com/vidtube/backend/internal/services"
	"github.com/vidtube/backend/internal/storage"
)

// RefreshTokenCookie carries the refresh token for browser clients.
const RefreshTokenCookie = "refreshToken"

// UserHandler implements account, session and channel endpoints.
type UserHandler struct {
	Users         UserService
	Uploads       Uploader
	SecureCookies bool
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := h.Uploads.parse(w, r, map[string]storage.AssetKind{
		"avatar":     storage.AssetImage,
		"coverImage": storage.AssetImage,
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	defer form.cleanup(ctx)

	user, err := h.Users.Register(ctx, services.RegisterInput{
		FullName:   form.value("fullName"),
		Username:   form.value("username"),
		Email:      form.value("email"),
		Password:   form.values["password"],
		Avatar:     form.file("avatar"),
		CoverImage: form.file("coverImage"),
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.JSON(ctx, w, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	session, err := h.Users.Login(ctx, req)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	h.setSessionCookies(w, session.Tokens)
	respond.JSON(ctx, w, http.StatusOK, loginResponse{
		User:         session.User,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}, "User logged in successfully")
}

// Refresh handles POST /users/refresh-token. The cookie wins over the body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var token string
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respond.Error(ctx, w, err)
			return
		}
		token = req.RefreshToken
	}

	session, err := h.Users.Refresh(ctx, token)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	h.setSessionCookies(w, session.Tokens)
	respond.JSON(ctx, w, http.StatusOK, tokenResponse{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}, "Access token refreshed")
}

// Logout handles POST /users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Users.Logout(ctx, actorID(r)); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	h.clearSessionCookies(w)
	respond.JSON(ctx, w, http.StatusOK, struct{}{}, "User logged out")
}

// ChangePassword handles POST /users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.ChangePasswordInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if err := h.Users.ChangePassword(ctx, actorID(r), req); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully")
}

// CurrentUser handles GET /users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.CurrentUser(ctx, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.UpdateAccountInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	user, err := h.Users.UpdateAccount(ctx, actorID(r), req)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Users.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Users.UpdateCoverImage, "Cover image updated successfully")
}

func (h UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID string, asset *storage.Asset) (models.User, error),
	message string,
) {
	ctx := r.Context()

	form, err := h.Uploads.parse(w, r, map[string]storage.AssetKind{field: storage.AssetImage})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	defer form.cleanup(ctx)

	user, err := update(ctx, actorID(r), form.file(field))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, user, message)
}

// ChannelProfile handles GET /users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Users.ChannelProfile(ctx, chi.URLParam(r, "username"), actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	history, err := h.Users.WatchHistory(ctx, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(ctx, w, http.StatusOK, history, "Watch history fetched successfully")
}

func (h UserHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		c := h.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h UserHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
