package target

import (
	"context"
	"errors"
	"testing"

	"engagement/internal/model"
)

type fakeRecord struct {
	id    int64
	owner int64
}

func (r fakeRecord) RecordID() int64 { return r.id }
func (r fakeRecord) OwnerID() int64  { return r.owner }

func newRegistryWithPost() *Registry {
	r := NewRegistry()
	r.Register("post", Definition{
		Lookup: func(ctx context.Context, id int64) (Record, error) {
			if id == 404 {
				return nil, model.ErrTargetNotFound
			}
			return fakeRecord{id: id, owner: 42}, nil
		},
	})
	return r
}

func TestRegistry_Resolve(t *testing.T) {
	r := newRegistryWithPost()

	if _, err := r.Resolve("post"); err != nil {
		t.Fatalf("registered type must resolve, got: %v", err)
	}

	_, err := r.Resolve("video")
	if !errors.Is(err, model.ErrUnknownTargetType) {
		t.Errorf("error = %v, want %v", err, model.ErrUnknownTargetType)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := newRegistryWithPost()

	_, rec, err := r.Lookup(context.Background(), model.Target{Type: "post", ID: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RecordID() != 5 || rec.OwnerID() != 42 {
		t.Errorf("record = (%d, owner %d), want (5, 42)", rec.RecordID(), rec.OwnerID())
	}

	_, _, err = r.Lookup(context.Background(), model.Target{Type: "post", ID: 404})
	if !errors.Is(err, model.ErrTargetNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrTargetNotFound)
	}
}

func TestDefinition_AllowsComment(t *testing.T) {
	user := &model.User{ID: 1, Username: "user"}
	rec := fakeRecord{id: 5}

	t.Run("nil policy admits any authenticated user", func(t *testing.T) {
		def := Definition{}
		if !def.AllowsComment(context.Background(), user, rec) {
			t.Error("nil CanComment must admit an authenticated user")
		}
	})

	t.Run("anonymous always rejected", func(t *testing.T) {
		def := Definition{}
		if def.AllowsComment(context.Background(), nil, rec) {
			t.Error("nil user must be rejected")
		}
	})

	t.Run("custom policy consulted", func(t *testing.T) {
		def := Definition{
			CanComment: func(ctx context.Context, u *model.User, r Record) bool {
				return u.ID == r.OwnerID()
			},
		}
		if def.AllowsComment(context.Background(), user, fakeRecord{id: 5, owner: 2}) {
			t.Error("policy returning false must reject")
		}
		if !def.AllowsComment(context.Background(), user, fakeRecord{id: 5, owner: 1}) {
			t.Error("policy returning true must admit")
		}
	})
}

func TestDefinition_AllowsManage(t *testing.T) {
	rec := fakeRecord{id: 5}
	comment := &model.Comment{ID: 10, UserID: 7}

	tests := []struct {
		name      string
		user      *model.User
		canManage func(ctx context.Context, user *model.User, rec Record, comment *model.Comment) bool
		want      bool
	}{
		{
			name: "author allowed",
			user: &model.User{ID: 7},
			want: true,
		},
		{
			name: "admin allowed",
			user: &model.User{ID: 99, IsAdmin: true},
			want: true,
		},
		{
			name: "other user rejected",
			user: &model.User{ID: 8},
			want: false,
		},
		{
			name: "anonymous rejected",
			user: nil,
			want: false,
		},
		{
			name: "policy vetoes even the author",
			user: &model.User{ID: 7},
			canManage: func(ctx context.Context, user *model.User, rec Record, comment *model.Comment) bool {
				return false
			},
			want: false,
		},
		{
			name: "policy passing still requires author or admin",
			user: &model.User{ID: 8},
			canManage: func(ctx context.Context, user *model.User, rec Record, comment *model.Comment) bool {
				return true
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := Definition{CanManage: tt.canManage}
			got := def.AllowsManage(context.Background(), tt.user, rec, comment)
			if got != tt.want {
				t.Errorf("AllowsManage = %v, want %v", got, tt.want)
			}
		})
	}
}
