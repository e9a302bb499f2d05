package repository

import (
	"context"
	"time"

	"engagement/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Post, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type ReactionRepository interface {
	// Upsert inserts the reaction or updates its kind in place for an
	// existing (user, target) row. Atomic via the unique constraint.
	Upsert(ctx context.Context, userID int64, target model.Target, kind string) (*model.Reaction, error)
	// Delete removes the user's reaction; reports whether a row existed.
	Delete(ctx context.Context, userID int64, target model.Target) (bool, error)
	// Get returns the user's reaction on the target, or nil when there is none.
	Get(ctx context.Context, userID int64, target model.Target) (*model.Reaction, error)
	// Summary returns kind→count for the target, zero-count kinds omitted.
	Summary(ctx context.Context, target model.Target) (map[string]int, error)
	// SummaryForTargets batches Summary over many ids of one target type.
	SummaryForTargets(ctx context.Context, targetType string, targetIDs []int64) (map[int64]map[string]int, error)
	// UserReactionsForTargets returns the user's kind per target id.
	UserReactionsForTargets(ctx context.Context, userID int64, targetType string, targetIDs []int64) (map[int64]string, error)
	// Reactors returns one page of the "who reacted" listing plus the total
	// row count for the (optionally kind-filtered) target.
	Reactors(ctx context.Context, target model.Target, kind string, limit, offset int) ([]model.Reactor, int, error)
}

type CommentRepository interface {
	Create(ctx context.Context, target model.Target, userID int64, content string, parentID *int64) (*model.Comment, error)
	Update(ctx context.Context, commentID int64, content string) (*model.Comment, error)
	// SoftDelete marks the comment deleted; the row stays queryable via
	// GetByIDIncludeDeleted.
	SoftDelete(ctx context.Context, commentID int64) error
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	GetByIDIncludeDeleted(ctx context.Context, commentID int64) (*model.Comment, error)
	// ListTopLevel returns non-deleted top-level comments, newest first.
	ListTopLevel(ctx context.Context, target model.Target, limit, offset int) ([]model.Comment, error)
	// ListReplies returns non-deleted immediate replies grouped by parent,
	// newest first within each group.
	ListReplies(ctx context.Context, parentIDs []int64) (map[int64][]model.Comment, error)
	// Depth returns the number of ancestors above the comment
	// (0 for a top-level comment).
	Depth(ctx context.Context, commentID int64) (int, error)
}
