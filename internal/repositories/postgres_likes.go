package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Toggle deletes the like and inserts it only when nothing was deleted, in one statement.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, id string, target models.LikeTarget, likedBy string) (bool, error) {
	if target.IsZero() {
		return false, models.ErrInvalidLikeTarget
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var inserted string
	err = conn.QueryRow(ctx, `
        WITH deleted AS (
            DELETE FROM likes
            WHERE target_kind = $2 AND target_id = $3 AND liked_by = $4
            RETURNING id
        )
        INSERT INTO likes (id, target_kind, target_id, liked_by, created_at)
        SELECT $1, $2, $3, $4, $5
        WHERE NOT EXISTS (SELECT 1 FROM deleted)
        RETURNING id
    `, id, string(target.Kind()), target.ID(), likedBy, r.now()).Scan(&inserted)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case err != nil:
		return false, translatePgError(err, "toggle like")
	}
	return true, nil
}

// LikedVideos lists the videos a user liked, most recent like first. Unpublished
// videos only appear when the user owns them.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoSummaryColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.target_id
        JOIN users u ON u.id = v.owner_id
        WHERE l.target_kind = 'video'
          AND l.liked_by = $1
          AND (v.is_published OR v.owner_id = $1)
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	return collectVideoSummaries(rows, "liked videos")
}

// TotalsGivenBy counts a user's likes per kind, skipping likes whose target is gone.
func (r *PostgresLikeRepository) TotalsGivenBy(ctx context.Context, userID string) (models.LikeTotals, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.LikeTotals{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var totals models.LikeTotals
	err = conn.QueryRow(ctx, `
        SELECT COUNT(v.id), COUNT(t.id), COUNT(c.id)
        FROM likes l
        LEFT JOIN videos v ON l.target_kind = 'video' AND v.id = l.target_id
        LEFT JOIN tweets t ON l.target_kind = 'tweet' AND t.id = l.target_id
        LEFT JOIN comments c ON l.target_kind = 'comment' AND c.id = l.target_id
        WHERE l.liked_by = $1
    `, userID).Scan(&totals.Videos, &totals.Tweets, &totals.Comments)
	if err != nil {
		return models.LikeTotals{}, fmt.Errorf("aggregate like totals: %w", err)
	}
	return totals, nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
