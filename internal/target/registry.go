package target

import (
	"context"

	"engagement/internal/model"
)

// Record is a resolved target row. OwnerID identifies the user who owns the
// record (for owner notifications and owner-only policies), or 0 when the
// target type has no owner relationship.
type Record interface {
	RecordID() int64
	OwnerID() int64
}

// Definition describes one registered target type.
//
// Lookup resolves an id to a live record and must return
// model.ErrTargetNotFound when no such record exists.
//
// CanComment decides whether a user may create a comment on the record; nil
// means any authenticated user may. CanManage decides whether a user may
// edit or delete an existing comment on the record; it combines with the
// default author-or-admin rule, and a false result vetoes even the comment's
// author. nil means no additional restriction.
type Definition struct {
	Lookup     func(ctx context.Context, id int64) (Record, error)
	CanComment func(ctx context.Context, user *model.User, rec Record) bool
	CanManage  func(ctx context.Context, user *model.User, rec Record, comment *model.Comment) bool
}

// AllowsComment evaluates the create-comment policy.
func (d Definition) AllowsComment(ctx context.Context, user *model.User, rec Record) bool {
	if user == nil {
		return false
	}
	if d.CanComment == nil {
		return true
	}
	return d.CanComment(ctx, user, rec)
}

// AllowsManage evaluates the edit/delete policy for an existing comment:
// the target's own policy AND (author match OR admin flag). Both must pass.
func (d Definition) AllowsManage(ctx context.Context, user *model.User, rec Record, comment *model.Comment) bool {
	if user == nil || comment == nil {
		return false
	}
	if d.CanManage != nil && !d.CanManage(ctx, user, rec, comment) {
		return false
	}
	return comment.UserID == user.ID || user.IsAdmin
}

// Registry is the allow-list of target types. Client-supplied type strings
// are only ever resolved through it; unregistered strings are rejected
// before any record lookup happens. Registration occurs at startup only, so
// reads are not locked.
type Registry struct {
	defs map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a target type under a stable string key. Registering the
// same key twice replaces the earlier definition.
func (r *Registry) Register(name string, def Definition) {
	r.defs[name] = def
}

// Resolve returns the definition for a registered type, or
// model.ErrUnknownTargetType.
func (r *Registry) Resolve(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, model.ErrUnknownTargetType
	}
	return def, nil
}

// Lookup resolves a (type, id) pair to its definition and live record.
func (r *Registry) Lookup(ctx context.Context, t model.Target) (Definition, Record, error) {
	def, err := r.Resolve(t.Type)
	if err != nil {
		return Definition{}, nil, err
	}
	rec, err := def.Lookup(ctx, t.ID)
	if err != nil {
		return Definition{}, nil, err
	}
	return def, rec, nil
}
