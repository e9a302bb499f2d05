package model

import (
	"errors"
	"time"
)

// Post is the built-in demonstration target type. It is registered in the
// target registry as "post" with its author as owner; any record type can be
// registered the same way.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Body      *string   `db:"body" json:"body,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

var ErrPostNotFound = errors.New("post not found")
