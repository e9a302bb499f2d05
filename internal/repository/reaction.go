package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"engagement/internal/model"
)

type reactionRepository struct {
	db *sqlx.DB
}

func NewReactionRepository(db *sqlx.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Upsert inserts the reaction or, when a (user, target) row already exists,
// updates its kind in place. Concurrent calls for the same pair are resolved
// by the unique constraint; there is no read-then-write window.
func (r *reactionRepository) Upsert(ctx context.Context, userID int64, target model.Target, kind string) (*model.Reaction, error) {
	query := `
		INSERT INTO reactions (user_id, target_type, target_id, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, target_type, target_id)
		DO UPDATE SET type = EXCLUDED.type, updated_at = NOW()
		RETURNING id, user_id, target_type, target_id, type, created_at, updated_at
	`
	var reaction model.Reaction
	err := r.db.GetContext(ctx, &reaction, query, userID, target.Type, target.ID, kind)
	if err != nil {
		return nil, fmt.Errorf("upsert reaction: %w", err)
	}
	return &reaction, nil
}

// Delete removes the user's reaction on the target. Reports whether a row
// was actually deleted; deleting a missing reaction is not an error.
func (r *reactionRepository) Delete(ctx context.Context, userID int64, target model.Target) (bool, error) {
	query := `DELETE FROM reactions WHERE user_id = $1 AND target_type = $2 AND target_id = $3`
	result, err := r.db.ExecContext(ctx, query, userID, target.Type, target.ID)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Get returns the user's current reaction on the target, or nil when the
// user has not reacted.
func (r *reactionRepository) Get(ctx context.Context, userID int64, target model.Target) (*model.Reaction, error) {
	query := `
		SELECT id, user_id, target_type, target_id, type, created_at, updated_at
		FROM reactions
		WHERE user_id = $1 AND target_type = $2 AND target_id = $3
	`
	var reaction model.Reaction
	err := r.db.GetContext(ctx, &reaction, query, userID, target.Type, target.ID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	return &reaction, nil
}

// Summary returns kind→count for the target. Kinds with no reactions are
// omitted, not reported as zero.
func (r *reactionRepository) Summary(ctx context.Context, target model.Target) (map[string]int, error) {
	query := `
		SELECT type, COUNT(*) AS count
		FROM reactions
		WHERE target_type = $1 AND target_id = $2
		GROUP BY type
	`
	type row struct {
		Type  string `db:"type"`
		Count int    `db:"count"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, target.Type, target.ID)
	if err != nil {
		return nil, fmt.Errorf("reaction summary: %w", err)
	}

	summary := make(map[string]int, len(rows))
	for _, r := range rows {
		summary[r.Type] = r.Count
	}
	return summary, nil
}

// SummaryForTargets batches Summary over many ids of one target type in a
// single query. Used when hydrating comment listings.
func (r *reactionRepository) SummaryForTargets(ctx context.Context, targetType string, targetIDs []int64) (map[int64]map[string]int, error) {
	if len(targetIDs) == 0 {
		return map[int64]map[string]int{}, nil
	}

	query := `
		SELECT target_id, type, COUNT(*) AS count
		FROM reactions
		WHERE target_type = $1 AND target_id = ANY($2)
		GROUP BY target_id, type
	`
	type row struct {
		TargetID int64  `db:"target_id"`
		Type     string `db:"type"`
		Count    int    `db:"count"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, targetType, pq.Array(targetIDs))
	if err != nil {
		return nil, fmt.Errorf("reaction summaries: %w", err)
	}

	result := make(map[int64]map[string]int)
	for _, r := range rows {
		if result[r.TargetID] == nil {
			result[r.TargetID] = make(map[string]int)
		}
		result[r.TargetID][r.Type] = r.Count
	}
	return result, nil
}

// UserReactionsForTargets returns the user's reaction kind per target id,
// for the ids the user has reacted to.
func (r *reactionRepository) UserReactionsForTargets(ctx context.Context, userID int64, targetType string, targetIDs []int64) (map[int64]string, error) {
	if len(targetIDs) == 0 {
		return map[int64]string{}, nil
	}

	query := `
		SELECT target_id, type
		FROM reactions
		WHERE user_id = $1 AND target_type = $2 AND target_id = ANY($3)
	`
	type row struct {
		TargetID int64  `db:"target_id"`
		Type     string `db:"type"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, userID, targetType, pq.Array(targetIDs))
	if err != nil {
		return nil, fmt.Errorf("user reactions: %w", err)
	}

	result := make(map[int64]string, len(rows))
	for _, r := range rows {
		result[r.TargetID] = r.Type
	}
	return result, nil
}

// Reactors returns one page of "who reacted" (newest first) plus the total
// count for pagination. kind filters to a single reaction kind when set.
func (r *reactionRepository) Reactors(ctx context.Context, target model.Target, kind string, limit, offset int) ([]model.Reactor, int, error) {
	where := `WHERE r.target_type = $1 AND r.target_id = $2`
	args := []interface{}{target.Type, target.ID}
	if kind != "" {
		where += ` AND r.type = $3`
		args = append(args, kind)
	}

	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reactions r `+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count reactors: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT u.id, u.username, u.display_name, u.avatar_url, r.type
		FROM reactions r
		JOIN users u ON u.id = r.user_id
		%s
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	var reactors []model.Reactor
	err = r.db.SelectContext(ctx, &reactors, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("get reactors: %w", err)
	}

	return reactors, total, nil
}
