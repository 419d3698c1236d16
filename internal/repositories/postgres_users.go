package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const userColumns = `id, username, email, full_name, password_hash, avatar, cover_image, refresh_token, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar, cover_image, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, user.ID, user.Username, user.Email, user.FullName, user.Password, user.Avatar, user.CoverImage, user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translatePgError(err, "insert user")
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translatePgError(err, "select user by id")
	}
	return user, nil
}

// FindByLogin fetches a user by username or email.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, username, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
        ORDER BY created_at
        LIMIT 1
    `, username, email)

	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translatePgError(err, "select user by login")
	}
	return user, nil
}

// Update applies the non-nil fields of patch and returns the stored record.
func (r *PostgresUserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	b := newSetBuilder(id)
	if patch.FullName != nil {
		b.add("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		b.add("email", *patch.Email)
	}
	if patch.Avatar != nil {
		b.add("avatar", *patch.Avatar)
	}
	if patch.CoverImage != nil {
		b.add("cover_image", *patch.CoverImage)
	}
	if patch.Password != nil {
		b.add("password_hash", *patch.Password)
	}
	if patch.RefreshToken != nil {
		b.add("refresh_token", *patch.RefreshToken)
	}
	b.add("updated_at", patch.UpdatedAt)

	row := conn.QueryRow(ctx, `UPDATE users SET `+b.clause()+` WHERE id = $1 RETURNING `+userColumns, b.args...)

	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translatePgError(err, "update user")
	}
	return user, nil
}

// ChannelProfile loads a channel page with subscriber counts in a single query.
func (r *PostgresUserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            u.id, u.full_name, u.username, u.email, u.avatar, u.cover_image,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
            EXISTS (
                SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2
            ) AS is_subscribed
        FROM users u
        WHERE u.username = $1
    `, username, viewerID)

	var profile models.ChannelProfile
	if err := row.Scan(
		&profile.ID, &profile.FullName, &profile.Username, &profile.Email, &profile.Avatar, &profile.CoverImage,
		&profile.SubscribersCount, &profile.ChannelsSubscribedToCount, &profile.IsSubscribed,
	); err != nil {
		return models.ChannelProfile{}, translatePgError(err, "select channel profile")
	}
	return profile, nil
}

// RecordWatch upserts the user's history entry for the video with the current time.
func (r *PostgresUserRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		return translatePgError(err, "record watch history")
	}
	return nil
}

// WatchHistory returns the user's watched videos, most recent first.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoSummaryColumns+`
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	return collectVideoSummaries(rows, "watch history")
}

func scanUser(row scanner) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.Avatar, &user.CoverImage, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

// PostgresSessionStore keeps each user's active refresh token on the users table.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save replaces the user's refresh token.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $2 WHERE id = $1
    `, session.UserID, session.RefreshToken)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// Find loads the user's refresh token.
func (s *PostgresSessionStore) Find(ctx context.Context, userID string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var token string
	if err := conn.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("select refresh token: %w", err)
	}
	if token == "" {
		return auth.Session{}, auth.ErrSessionNotFound
	}

	return auth.Session{UserID: userID, RefreshToken: token}, nil
}

// Delete clears the user's refresh token.
func (s *PostgresSessionStore) Delete(ctx context.Context, userID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `UPDATE users SET refresh_token = '' WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ auth.SessionStore = (*PostgresSessionStore)(nil)
