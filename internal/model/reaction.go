package model

import (
	"errors"
	"time"
)

// Reaction is one user's reaction on a target. At most one row exists per
// (user, target_type, target_id); switching kind is an update in place, not
// a second row. Enforced by a unique constraint, see migrations.
type Reaction struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	TargetType string    `db:"target_type" json:"target_type"`
	TargetID   int64     `db:"target_id" json:"target_id"`
	Type       string    `db:"type" json:"type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Target returns the record this reaction is attached to.
func (r *Reaction) Target() Target {
	return Target{Type: r.TargetType, ID: r.TargetID}
}

// Reactor is one row of the "who reacted" listing: the user plus the kind
// they reacted with.
type Reactor struct {
	UserSummary
	Type string `db:"type" json:"type"`
}

// ReactRequest is the body of POST /reactions. When Toggle is set, reacting
// with the user's current kind removes the reaction instead.
type ReactRequest struct {
	TargetType string `json:"target_type"`
	TargetID   int64  `json:"target_id"`
	Type       string `json:"type"`
	Toggle     bool   `json:"toggle,omitempty"`
}

// UnreactRequest is the body of DELETE /reactions.
type UnreactRequest struct {
	TargetType string `json:"target_type"`
	TargetID   int64  `json:"target_id"`
}

// ReactionResult is returned to JSON clients after a mutation so optimistic
// UI state can be reconciled with what the server actually persisted.
type ReactionResult struct {
	Reaction *Reaction      `json:"reaction,omitempty"` // nil when the reaction was removed
	Removed  bool           `json:"removed"`
	Summary  map[string]int `json:"reactions"`
}

// ReactorListResponse is the paginated "who reacted" response. Summary and
// UserReaction ride along so one GET renders the whole reaction widget.
type ReactorListResponse struct {
	Success      bool           `json:"success"`
	Reactions    []Reactor      `json:"reactions"`
	Summary      map[string]int `json:"summary"`
	UserReaction string         `json:"user_reaction,omitempty"`
	Pagination   Pagination     `json:"pagination"`
}

// DefaultReactorsPerPage is the page size for the "who reacted" listing.
const DefaultReactorsPerPage = 8

var (
	// ErrInvalidReactionType is returned when the kind is not in the
	// configured set.
	ErrInvalidReactionType = errors.New("reaction type not allowed")

	// ErrAuthRequired is returned when an operation that needs a known user
	// is attempted without one. There is no anonymous reaction.
	ErrAuthRequired = errors.New("authentication required")
)
