package model

import "errors"

// Target identifies the record a reaction or comment attaches to:
// a registered type discriminator plus the record's id.
type Target struct {
	Type string `json:"target_type"`
	ID   int64  `json:"target_id"`
}

// Built-in target type keys. "comment" makes comments themselves reactable,
// which is where per-comment reaction summaries come from.
const (
	TargetTypePost    = "post"
	TargetTypeComment = "comment"
)

var (
	// ErrUnknownTargetType is returned when a client submits a target type
	// string that was never registered. This is the allow-list check: type
	// strings from requests are only ever resolved through the registry.
	ErrUnknownTargetType = errors.New("unknown target type")

	// ErrTargetNotFound is returned when the target type is registered but
	// no record with the given id exists.
	ErrTargetNotFound = errors.New("target not found")

	// ErrNotAllowed is returned when an authorization policy rejects the
	// caller. The message is deliberately generic; handlers must not leak
	// which check failed.
	ErrNotAllowed = errors.New("not allowed")
)
