package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle deletes the edge and inserts it only when nothing was deleted, in one statement.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, sub models.Subscription) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var id string
	err = conn.QueryRow(ctx, `
        WITH deleted AS (
            DELETE FROM subscriptions
            WHERE channel_id = $2 AND subscriber_id = $3
            RETURNING id
        )
        INSERT INTO subscriptions (id, channel_id, subscriber_id, created_at)
        SELECT $1, $2, $3, $4
        WHERE NOT EXISTS (SELECT 1 FROM deleted)
        RETURNING id
    `, sub.ID, sub.Channel, sub.Subscriber, sub.CreatedAt).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case err != nil:
		return false, translatePgError(err, "toggle subscription")
	}
	return true, nil
}

// Subscribers lists the users subscribed to a channel, most recent first.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error) {
	return r.listSummaries(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar, s.created_at
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID, "subscribers")
}

// SubscribedChannels lists the channels a user subscribes to, most recent first.
func (r *PostgresSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error) {
	return r.listSummaries(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar, s.created_at
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID, "subscribed channels")
}

func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return count, nil
}

func (r *PostgresSubscriptionRepository) listSummaries(ctx context.Context, sql, id, what string) ([]models.ChannelSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	summaries := []models.ChannelSummary{}
	for rows.Next() {
		var s models.ChannelSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.Avatar, &s.SubscribedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return summaries, nil
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
