package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwise1/comment_service/internal/model"
	"github.com/bwise1/comment_service/util"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBTX is the subset of *pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const commentSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id       TEXT PRIMARY KEY,
		username TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS comments (
		id         UUID PRIMARY KEY,
		text       TEXT NOT NULL,
		author     TEXT NOT NULL,
		post_id    TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS comments_post_id_created_at_idx ON comments (post_id, created_at);
`

const commentColumns = `c.id::text, c.text, c.author, COALESCE(c.post_id, ''), c.created_at, c.updated_at`

// PostgresStore persists comments in a relational table. Ids are UUIDs; an id
// that is not a UUID is rejected by the database and surfaces as an error.
type PostgresStore struct {
	db     DBTX
	logger *zap.Logger
}

var _ Store[model.Comment] = (*PostgresStore)(nil)

func NewPostgresStore(db DBTX, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// InitSchema creates the comments and users tables when missing.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, commentSchema); err != nil {
		return fmt.Errorf("creating comment schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, filter Filter) ([]model.Comment, error) {
	where, args, err := postgresWhere(filter)
	if err != nil {
		return nil, err
	}

	stmt := `SELECT ` + commentColumns + ` FROM comments c` + where + ` ORDER BY c.created_at, c.id`
	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("getting comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var comment model.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.Text,
			&comment.Author,
			&comment.PostID,
			&comment.CreatedAt,
			&comment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting comments: %w", err)
	}
	return comments, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (model.Comment, error) {
	stmt := `SELECT ` + commentColumns + ` FROM comments c WHERE c.id = $1`
	return s.scanOne(s.db.QueryRow(ctx, stmt, id), "getting comment")
}

func (s *PostgresStore) Insert(ctx context.Context, comment model.Comment) (model.Comment, error) {
	stmt := `
		INSERT INTO comments AS c (id, text, author, post_id)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING ` + commentColumns

	created, err := s.scanOne(s.db.QueryRow(ctx, stmt,
		util.GenerateUUID(),
		comment.Text,
		comment.Author,
		comment.PostID,
	), "creating comment")
	if err != nil {
		return model.Comment{}, err
	}

	s.logger.Debug("comment inserted", zap.String("id", created.ID))
	return created, nil
}

func (s *PostgresStore) UpdateByID(ctx context.Context, id string, fields Fields) (model.Comment, error) {
	if err := checkMutable(fields); err != nil {
		return model.Comment{}, err
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	for _, field := range sortedKeys(fields) {
		args = append(args, fields[field])
		sets = append(sets, fmt.Sprintf("%s = $%d", field, len(args)))
	}

	stmt := `UPDATE comments c SET ` + strings.Join(sets, ", ") + ` WHERE c.id = $1 RETURNING ` + commentColumns
	return s.scanOne(s.db.QueryRow(ctx, stmt, args...), "updating comment")
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) (model.Comment, error) {
	stmt := `DELETE FROM comments c WHERE c.id = $1 RETURNING ` + commentColumns
	return s.scanOne(s.db.QueryRow(ctx, stmt, id), "deleting comment")
}

func (s *PostgresStore) FindWithExpansion(ctx context.Context, filter Filter, ref string) ([]model.Comment, error) {
	if err := checkReference(ref); err != nil {
		return nil, err
	}
	where, args, err := postgresWhere(filter)
	if err != nil {
		return nil, err
	}

	stmt := `
		SELECT ` + commentColumns + `, COALESCE(u.username, '')
		FROM comments c
		LEFT JOIN users u ON u.id = c.author` + where + `
		ORDER BY c.created_at, c.id`
	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("getting comments with authors: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var comment model.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.Text,
			&comment.Author,
			&comment.PostID,
			&comment.CreatedAt,
			&comment.UpdatedAt,
			&comment.AuthorName,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting comments with authors: %w", err)
	}
	return comments, nil
}

func (s *PostgresStore) scanOne(row pgx.Row, action string) (model.Comment, error) {
	var comment model.Comment
	err := row.Scan(
		&comment.ID,
		&comment.Text,
		&comment.Author,
		&comment.PostID,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Comment{}, ErrNotFound
		}
		return model.Comment{}, fmt.Errorf("%s: %w", action, err)
	}
	return comment, nil
}

// postgresWhere renders filter as a WHERE clause over the c alias, with
// positional args in field-name order.
func postgresWhere(filter Filter) (string, []any, error) {
	if err := checkFilter(filter); err != nil {
		return "", nil, err
	}
	if len(filter) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	for _, field := range sortedKeys(filter) {
		args = append(args, filter[field])
		conds = append(conds, fmt.Sprintf("%s = $%d", postgresColumn(field), len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func postgresColumn(field string) string {
	switch field {
	case model.FieldPostID:
		return "c.post_id"
	default:
		return "c." + field
	}
}
