package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"engagement/internal/model"
)

const commentColumns = `id, target_type, target_id, user_id, parent_id, content, edited, edited_at, created_at, updated_at, deleted_at`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment.
func (r *commentRepository) Create(ctx context.Context, target model.Target, userID int64, content string, parentID *int64) (*model.Comment, error) {
	query := `
		INSERT INTO comments (target_type, target_id, user_id, content, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + commentColumns + `
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, target.Type, target.ID, userID, content, parentID)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// Update replaces the comment's content and stamps the edit marker.
func (r *commentRepository) Update(ctx context.Context, commentID int64, content string) (*model.Comment, error) {
	query := `
		UPDATE comments
		SET content = $1, edited = TRUE, edited_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING ` + commentColumns + `
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, content, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// SoftDelete marks the comment deleted. The row is retained and excluded
// from default queries; replies stay untouched. There is no un-delete.
func (r *commentRepository) SoftDelete(ctx context.Context, commentID int64) error {
	query := `UPDATE comments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, commentID)
	if err != nil {
		return fmt.Errorf("soft delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}

// GetByID retrieves a single non-deleted comment.
func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	return r.getByID(ctx, commentID, false)
}

// GetByIDIncludeDeleted retrieves a comment even after soft deletion.
func (r *commentRepository) GetByIDIncludeDeleted(ctx context.Context, commentID int64) (*model.Comment, error) {
	return r.getByID(ctx, commentID, true)
}

func (r *commentRepository) getByID(ctx context.Context, commentID int64, includeDeleted bool) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// commentRow scans a comment joined with its author.
type commentRow struct {
	ID            int64      `db:"id"`
	TargetType    string     `db:"target_type"`
	TargetID      int64      `db:"target_id"`
	UserID        int64      `db:"user_id"`
	ParentID      *int64     `db:"parent_id"`
	Content       string     `db:"content"`
	Edited        bool       `db:"edited"`
	EditedAt      *time.Time `db:"edited_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	AuthorID      int64      `db:"author.id"`
	AuthorName    string     `db:"author.username"`
	AuthorDisplay *string    `db:"author.display_name"`
	AuthorAvatar  *string    `db:"author.avatar_url"`
}

func (row commentRow) toComment() model.Comment {
	return model.Comment{
		ID:         row.ID,
		TargetType: row.TargetType,
		TargetID:   row.TargetID,
		UserID:     row.UserID,
		ParentID:   row.ParentID,
		Content:    row.Content,
		Edited:     row.Edited,
		EditedAt:   row.EditedAt,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		Author: &model.UserSummary{
			ID:          row.AuthorID,
			Username:    row.AuthorName,
			DisplayName: row.AuthorDisplay,
			AvatarURL:   row.AuthorAvatar,
		},
	}
}

const commentJoinColumns = `
	c.id, c.target_type, c.target_id, c.user_id, c.parent_id, c.content,
	c.edited, c.edited_at, c.created_at, c.updated_at,
	u.id AS "author.id", u.username AS "author.username",
	u.display_name AS "author.display_name", u.avatar_url AS "author.avatar_url"`

// ListTopLevel returns non-deleted top-level comments for the target,
// newest first, with authors joined in.
func (r *commentRepository) ListTopLevel(ctx context.Context, target model.Target, limit, offset int) ([]model.Comment, error) {
	query := `
		SELECT ` + commentJoinColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.target_type = $1 AND c.target_id = $2
		  AND c.parent_id IS NULL AND c.deleted_at IS NULL
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $3 OFFSET $4
	`
	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, target.Type, target.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list top-level comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}
	return comments, nil
}

// ListReplies returns non-deleted immediate replies for the given parents,
// grouped by parent id, newest first within each group.
func (r *commentRepository) ListReplies(ctx context.Context, parentIDs []int64) (map[int64][]model.Comment, error) {
	if len(parentIDs) == 0 {
		return map[int64][]model.Comment{}, nil
	}

	query := `
		SELECT ` + commentJoinColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.parent_id = ANY($1) AND c.deleted_at IS NULL
		ORDER BY c.created_at DESC, c.id DESC
	`
	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, pq.Array(parentIDs))
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	replies := make(map[int64][]model.Comment)
	for _, row := range rows {
		comment := row.toComment()
		replies[*comment.ParentID] = append(replies[*comment.ParentID], comment)
	}
	return replies, nil
}

// Depth returns how many ancestors sit above the comment: 0 for a top-level
// comment, 1 for a reply to it, and so on. Walks the parent chain with a
// recursive CTE.
func (r *commentRepository) Depth(ctx context.Context, commentID int64) (int, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 0 AS depth FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id, c.parent_id, chain.depth + 1
			FROM comments c
			JOIN chain ON c.id = chain.parent_id
		)
		SELECT COALESCE(MAX(depth), 0) FROM chain
	`
	var depth int
	err := r.db.GetContext(ctx, &depth, query, commentID)
	if err != nil {
		return 0, fmt.Errorf("comment depth: %w", err)
	}
	return depth, nil
}
