package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a target. ParentID links replies to their
// parent comment; the schema allows arbitrary depth but the configured
// max depth bounds what the service accepts.
type Comment struct {
	ID         int64      `db:"id" json:"id"`
	TargetType string     `db:"target_type" json:"target_type"`
	TargetID   int64      `db:"target_id" json:"target_id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	ParentID   *int64     `db:"parent_id" json:"parent_id,omitempty"`
	Content    string     `db:"content" json:"content"`
	Edited     bool       `db:"edited" json:"edited"`
	EditedAt   *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`

	// Computed fields, attached at serialization time and never persisted.
	Author       *UserSummary   `json:"author,omitempty"`
	Reactions    map[string]int `json:"reactions,omitempty"`
	UserReaction string         `json:"user_reaction,omitempty"`
	CanEdit      bool           `json:"can_edit"`
	CanDelete    bool           `json:"can_delete"`
	Replies      []Comment      `json:"replies,omitempty"`
}

// Target returns the record this comment is attached to.
func (c *Comment) Target() Target {
	return Target{Type: c.TargetType, ID: c.TargetID}
}

// IsReply reports whether this comment has a parent.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CreateCommentRequest is the body of POST /comments.
type CreateCommentRequest struct {
	TargetType string `json:"target_type"`
	TargetID   int64  `json:"target_id"`
	Content    string `json:"content"`
	ParentID   *int64 `json:"parent_id,omitempty"`
}

// UpdateCommentRequest is the body of PUT /comments/{id}.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentListResponse is the paginated top-level comment listing.
type CommentListResponse struct {
	Success    bool       `json:"success"`
	Data       []Comment  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ReplyListResponse is the flat one-level reply listing.
type ReplyListResponse struct {
	Success bool      `json:"success"`
	Replies []Comment `json:"replies"`
}

// MaxCommentLength bounds comment content, measured in runes after trimming.
const MaxCommentLength = 5000

// Comment errors
var (
	ErrCommentNotFound      = errors.New("comment not found")
	ErrContentRequired      = errors.New("comment content is required")
	ErrContentTooLong       = errors.New("comment content too long")
	ErrParentTargetMismatch = errors.New("parent comment belongs to a different target")
	ErrEditWindowExpired    = errors.New("edit window has expired")
	ErrMaxDepthExceeded     = errors.New("maximum reply depth exceeded")
)
