package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// NewPostgresStores wires every PostgreSQL repository against one pool.
func NewPostgresStores(pool db.Pool) Stores {
	return Stores{
		Users:         NewPostgresUserRepository(pool),
		Sessions:      NewPostgresSessionStore(pool),
		Videos:        NewPostgresVideoRepository(pool),
		Comments:      NewPostgresCommentRepository(pool),
		Tweets:        NewPostgresTweetRepository(pool),
		Playlists:     NewPostgresPlaylistRepository(pool),
		Subscriptions: NewPostgresSubscriptionRepository(pool),
		Likes:         NewPostgresLikeRepository(pool),
	}
}

// translatePgError maps constraint violations and missing rows onto the
// repository sentinels and wraps everything else with the operation name.
func translatePgError(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// setBuilder accumulates "column = $n" fragments for partial updates.
type setBuilder struct {
	sets []string
	args []any
}

func newSetBuilder(id string) *setBuilder {
	return &setBuilder{args: []any{id}}
}

func (b *setBuilder) add(column string, value any) {
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *setBuilder) clause() string {
	return strings.Join(b.sets, ", ")
}

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped.
func likePattern(text string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(text)
	return "%" + escaped + "%"
}
