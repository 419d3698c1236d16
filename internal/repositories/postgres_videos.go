package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const videoColumns = `id, owner_id, title, description, video_file, thumbnail, duration, views, is_published, created_at, updated_at`

// videoSummaryColumns expects videos aliased as v and their owners as u.
const videoSummaryColumns = `v.id, v.title, v.description, v.video_file, v.thumbnail, v.duration, v.views, v.created_at,
            u.id, u.username, u.full_name, u.avatar`

var videoSortColumns = map[models.VideoSort]string{
	models.VideoSortCreatedAt: "created_at",
	models.VideoSortViews:     "views",
	models.VideoSortDuration:  "duration",
	models.VideoSortTitle:     "title",
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (`+videoColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.Owner, video.Title, video.Description, video.VideoFile, video.Thumbnail,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return translatePgError(err, "insert video")
	}
	return nil
}

// FindByID fetches a video by identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		return models.Video{}, translatePgError(err, "select video")
	}
	return video, nil
}

// Update applies the non-nil fields of patch and returns the stored record.
func (r *PostgresVideoRepository) Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	b := newSetBuilder(id)
	if patch.Title != nil {
		b.add("title", *patch.Title)
	}
	if patch.Description != nil {
		b.add("description", *patch.Description)
	}
	if patch.Thumbnail != nil {
		b.add("thumbnail", *patch.Thumbnail)
	}
	if patch.VideoFile != nil {
		b.add("video_file", *patch.VideoFile)
	}
	if patch.IsPublished != nil {
		b.add("is_published", *patch.IsPublished)
	}
	b.add("updated_at", patch.UpdatedAt)

	video, err := scanVideo(conn.QueryRow(ctx, `UPDATE videos SET `+b.clause()+` WHERE id = $1 RETURNING `+videoColumns, b.args...))
	if err != nil {
		return models.Video{}, translatePgError(err, "update video")
	}
	return video, nil
}

// Delete removes the video. Comments, playlist entries and history rows cascade
// through foreign keys; likes are polymorphic and removed explicitly.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete video: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
        DELETE FROM likes
        WHERE (target_kind = 'video' AND target_id = $1)
           OR (target_kind = 'comment' AND target_id IN (SELECT id FROM comments WHERE video_id = $1))
    `, id); err != nil {
		return fmt.Errorf("delete video likes: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete video: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of videos matching the query.
func (r *PostgresVideoRepository) List(ctx context.Context, query models.VideoQuery) (models.VideoPage, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		where []string
		args  []any
	)
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.OwnerID != "" {
		where = append(where, "owner_id = "+param(query.OwnerID))
	}
	if query.OwnerID == "" || !query.IncludeUnpublished {
		where = append(where, "is_published = TRUE")
	}
	if text := strings.TrimSpace(query.Text); text != "" {
		p := param(likePattern(text))
		where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", p, p))
	}

	filter := ""
	if len(where) > 0 {
		filter = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos `+filter, args...).Scan(&total); err != nil {
		return models.VideoPage{}, fmt.Errorf("count videos: %w", err)
	}

	column, ok := videoSortColumns[query.SortBy]
	if !ok {
		column = videoSortColumns[models.VideoSortCreatedAt]
	}
	direction := "DESC"
	if query.Ascending {
		direction = "ASC"
	}

	limit := param(query.Limit)
	offset := param(query.Offset())
	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM videos %s
        ORDER BY %s %s, id %s
        LIMIT %s OFFSET %s
    `, videoColumns, filter, column, direction, direction, limit, offset), args...)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos, err := collectVideos(rows)
	if err != nil {
		return models.VideoPage{}, err
	}

	return models.VideoPage{Videos: videos, Pagination: models.NewPagination(query.PageRequest, total)}, nil
}

// ListByOwner returns every video of a channel, newest first.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query channel videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// Totals sums views and counts videos of a channel.
func (r *PostgresVideoRepository) Totals(ctx context.Context, ownerID string) (models.VideoTotals, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoTotals{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var totals models.VideoTotals
	if err := conn.QueryRow(ctx, `
        SELECT COALESCE(SUM(views), 0)::BIGINT, COUNT(*)
        FROM videos
        WHERE owner_id = $1
    `, ownerID).Scan(&totals.Views, &totals.Videos); err != nil {
		return models.VideoTotals{}, fmt.Errorf("aggregate video totals: %w", err)
	}
	return totals, nil
}

func scanVideo(row scanner) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.Owner, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func collectVideoSummaries(rows pgx.Rows, what string) ([]models.VideoSummary, error) {
	summaries := []models.VideoSummary{}
	for rows.Next() {
		var s models.VideoSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.VideoFile, &s.Thumbnail, &s.Duration, &s.Views, &s.CreatedAt,
			&s.Owner.ID, &s.Owner.Username, &s.Owner.FullName, &s.Owner.Avatar); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return summaries, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
