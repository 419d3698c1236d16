package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

const issuer = "vidtube"

var (
	// ErrSessionNotFound indicates the user has no active refresh token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrRefreshTokenReused indicates the refresh token was valid but has since been rotated.
	ErrRefreshTokenReused = errors.New("refresh token is expired or used")
	// ErrInvalidToken indicates a token that is malformed, badly signed or expired.
	ErrInvalidToken = errors.New("invalid token")
)

// SessionStore persists the single active refresh token of each user.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, userID string) (Session, error)
	Delete(ctx context.Context, userID string) error
}

// Session is the refresh token currently issued to a user.
type Session struct {
	UserID       string
	RefreshToken string
}

// Claims are carried by both access and refresh tokens.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig holds signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// Manager issues, verifies, rotates and revokes signed session tokens.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store SessionStore
	now   func() time.Time
}

// NewManager constructs a Manager that issues HS256 tokens with the provided settings.
func NewManager(cfg TokenConfig, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		store:         store,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc allows tests to override the time source.
func (m *Manager) WithNowFunc(now func() time.Time) {
	m.now = now
}

// Issue creates a new pair of access and refresh tokens for the identity and
// records the refresh token as the user's only active one.
func (m *Manager) Issue(ctx context.Context, identity Identity) (models.SessionTokens, error) {
	if identity.UserID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := m.now()
	accessExpires := now.Add(m.accessTTL)
	refreshExpires := now.Add(m.refreshTTL)

	accessToken, err := m.sign(identity, now, accessExpires, m.accessSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := m.sign(identity, now, refreshExpires, m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.store.Save(ctx, Session{UserID: identity.UserID, RefreshToken: refreshToken}); err != nil {
		return models.SessionTokens{}, fmt.Errorf("save session: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// Refresh exchanges a valid, current refresh token for a new token pair.
// The presented token stops working afterwards.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, Identity, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, Identity{}, ErrSessionNotFound
	}

	claims, err := m.parse(refreshToken, m.refreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.SessionTokens{}, Identity{}, ErrRefreshTokenExpired
		}
		return models.SessionTokens{}, Identity{}, ErrInvalidToken
	}

	session, err := m.store.Find(ctx, claims.Subject)
	if err != nil {
		return models.SessionTokens{}, Identity{}, err
	}

	if subtle.ConstantTimeCompare([]byte(session.RefreshToken), []byte(refreshToken)) != 1 {
		return models.SessionTokens{}, Identity{}, ErrRefreshTokenReused
	}

	identity := Identity{UserID: claims.Subject, Username: claims.Username}
	tokens, err := m.Issue(ctx, identity)
	if err != nil {
		return models.SessionTokens{}, Identity{}, err
	}
	return tokens, identity, nil
}

// Verify validates an access token and returns the identity it carries.
func (m *Manager) Verify(accessToken string) (Identity, error) {
	if accessToken == "" {
		return Identity{}, ErrInvalidToken
	}
	claims, err := m.parse(accessToken, m.accessSecret)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Identity{UserID: claims.Subject, Username: claims.Username}, nil
}

// Revoke removes the user's active refresh token.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.Delete(ctx, userID)
}

func (m *Manager) sign(identity Identity, issuedAt, expires time.Time, secret []byte) (string, error) {
	claims := Claims{
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *Manager) parse(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
