package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const commentColumns = `id, video_id, owner_id, content, created_at, updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a new comment. A missing video or owner maps to ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (`+commentColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.Video, comment.Owner, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return translatePgError(err, "insert comment")
	}
	return nil
}

// FindByID fetches a comment by identifier.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		return models.Comment{}, translatePgError(err, "select comment")
	}
	return comment, nil
}

// UpdateContent replaces the comment body.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        UPDATE comments SET content = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+commentColumns, id, content, updatedAt))
	if err != nil {
		return models.Comment{}, translatePgError(err, "update comment")
	}
	return comment, nil
}

// Delete removes the comment and its likes in one transaction.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete comment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM likes WHERE target_kind = 'comment' AND target_id = $1`, id); err != nil {
		return fmt.Errorf("delete comment likes: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete comment: %w", err)
	}
	return nil
}

// ListForVideo returns one page of a video's comments joined with their authors, newest first.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string, page models.PageRequest) (models.CommentPage, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.CommentPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return models.CommentPage{}, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, c.content, c.created_at, c.updated_at,
               u.id, u.username, u.full_name, u.avatar
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC, c.id DESC
        LIMIT $2 OFFSET $3
    `, videoID, page.Limit, page.Offset())
	if err != nil {
		return models.CommentPage{}, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.CommentView{}
	for rows.Next() {
		var c models.CommentView
		if err := rows.Scan(&c.ID, &c.Video, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&c.Owner.ID, &c.Owner.Username, &c.Owner.FullName, &c.Owner.Avatar); err != nil {
			return models.CommentPage{}, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return models.CommentPage{}, fmt.Errorf("iterate comments: %w", err)
	}

	return models.CommentPage{Comments: comments, Pagination: models.NewPagination(page, total)}, nil
}

func scanComment(row scanner) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.Video, &c.Owner, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
