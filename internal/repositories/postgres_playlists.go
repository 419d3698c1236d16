package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const playlistColumns = `id, owner_id, name, description, created_at, updated_at`

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores a new, empty playlist. A duplicate name for the owner maps to ErrConflict.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (`+playlistColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.Owner, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return translatePgError(err, "insert playlist")
	}
	return nil
}

// FindByID fetches a playlist together with its video identifiers in insertion order.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return loadPlaylist(ctx, conn, id)
}

// ListByOwner returns every playlist of a user, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
               COALESCE(
                   ARRAY_AGG(pv.video_id ORDER BY pv.added_at, pv.video_id) FILTER (WHERE pv.video_id IS NOT NULL),
                   ARRAY[]::TEXT[]
               )
        FROM playlists p
        LEFT JOIN playlist_videos pv ON pv.playlist_id = p.id
        WHERE p.owner_id = $1
        GROUP BY p.id
        ORDER BY p.created_at DESC, p.id DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Owner, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.Videos); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

func (r *PostgresPlaylistRepository) Update(ctx context.Context, id string, patch models.PlaylistPatch) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	b := newSetBuilder(id)
	if patch.Name != nil {
		b.add("name", *patch.Name)
	}
	if patch.Description != nil {
		b.add("description", *patch.Description)
	}
	b.add("updated_at", patch.UpdatedAt)

	tag, err := conn.Exec(ctx, `UPDATE playlists SET `+b.clause()+` WHERE id = $1`, b.args...)
	if err != nil {
		return models.Playlist{}, translatePgError(err, "update playlist")
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, ErrNotFound
	}

	return loadPlaylist(ctx, conn, id)
}

// Delete removes the playlist; membership rows cascade.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, id, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, NOW())
    `, id, videoID); err != nil {
		return models.Playlist{}, translatePgError(err, "add playlist video")
	}
	if _, err := conn.Exec(ctx, `UPDATE playlists SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return models.Playlist{}, fmt.Errorf("touch playlist: %w", err)
	}

	return loadPlaylist(ctx, conn, id)
}

func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, id, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, id, videoID)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("remove playlist video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, ErrNotFound
	}
	if _, err := conn.Exec(ctx, `UPDATE playlists SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return models.Playlist{}, fmt.Errorf("touch playlist: %w", err)
	}

	return loadPlaylist(ctx, conn, id)
}

// querier is the subset of a pooled connection loadPlaylist needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadPlaylist(ctx context.Context, q querier, id string) (models.Playlist, error) {
	var p models.Playlist
	err := q.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id).
		Scan(&p.ID, &p.Owner, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Playlist{}, translatePgError(err, "select playlist")
	}

	rows, err := q.Query(ctx, `
        SELECT video_id FROM playlist_videos
        WHERE playlist_id = $1
        ORDER BY added_at, video_id
    `, id)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	p.Videos = []string{}
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return models.Playlist{}, fmt.Errorf("scan playlist video: %w", err)
		}
		p.Videos = append(p.Videos, videoID)
	}
	if err := rows.Err(); err != nil {
		return models.Playlist{}, fmt.Errorf("iterate playlist videos: %w", err)
	}
	return p, nil
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
