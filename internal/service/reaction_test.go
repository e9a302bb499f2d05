package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"engagement/internal/config"
	"engagement/internal/model"
	"engagement/internal/target"
)

// =============================================================================
// MOCK REACTION REPOSITORY
// =============================================================================

type mockReactionRepository struct {
	upsertFn                  func(ctx context.Context, userID int64, t model.Target, kind string) (*model.Reaction, error)
	deleteFn                  func(ctx context.Context, userID int64, t model.Target) (bool, error)
	getFn                     func(ctx context.Context, userID int64, t model.Target) (*model.Reaction, error)
	summaryFn                 func(ctx context.Context, t model.Target) (map[string]int, error)
	summaryForTargetsFn       func(ctx context.Context, targetType string, targetIDs []int64) (map[int64]map[string]int, error)
	userReactionsForTargetsFn func(ctx context.Context, userID int64, targetType string, targetIDs []int64) (map[int64]string, error)
	reactorsFn                func(ctx context.Context, t model.Target, kind string, limit, offset int) ([]model.Reactor, int, error)

	upsertCalls int
	deleteCalls int
}

func (m *mockReactionRepository) Upsert(ctx context.Context, userID int64, t model.Target, kind string) (*model.Reaction, error) {
	m.upsertCalls++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, t, kind)
	}
	return &model.Reaction{ID: 1, UserID: userID, TargetType: t.Type, TargetID: t.ID, Type: kind}, nil
}

func (m *mockReactionRepository) Delete(ctx context.Context, userID int64, t model.Target) (bool, error) {
	m.deleteCalls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, t)
	}
	return false, nil
}

func (m *mockReactionRepository) Get(ctx context.Context, userID int64, t model.Target) (*model.Reaction, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, t)
	}
	return nil, nil
}

func (m *mockReactionRepository) Summary(ctx context.Context, t model.Target) (map[string]int, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, t)
	}
	return map[string]int{}, nil
}

func (m *mockReactionRepository) SummaryForTargets(ctx context.Context, targetType string, targetIDs []int64) (map[int64]map[string]int, error) {
	if m.summaryForTargetsFn != nil {
		return m.summaryForTargetsFn(ctx, targetType, targetIDs)
	}
	return map[int64]map[string]int{}, nil
}

func (m *mockReactionRepository) UserReactionsForTargets(ctx context.Context, userID int64, targetType string, targetIDs []int64) (map[int64]string, error) {
	if m.userReactionsForTargetsFn != nil {
		return m.userReactionsForTargetsFn(ctx, userID, targetType, targetIDs)
	}
	return map[int64]string{}, nil
}

func (m *mockReactionRepository) Reactors(ctx context.Context, t model.Target, kind string, limit, offset int) ([]model.Reactor, int, error) {
	if m.reactorsFn != nil {
		return m.reactorsFn(ctx, t, kind, limit, offset)
	}
	return nil, 0, nil
}

// =============================================================================
// TEST FIXTURES
// =============================================================================

type stubRecord struct {
	id    int64
	owner int64
}

func (r stubRecord) RecordID() int64 { return r.id }
func (r stubRecord) OwnerID() int64  { return r.owner }

// newTestRegistry registers a "post" type where any id below 100 exists and
// is owned by user 42.
func newTestRegistry() *target.Registry {
	registry := target.NewRegistry()
	registry.Register("post", target.Definition{
		Lookup: func(ctx context.Context, id int64) (target.Record, error) {
			if id >= 100 {
				return nil, model.ErrTargetNotFound
			}
			return stubRecord{id: id, owner: 42}, nil
		},
	})
	return registry
}

func testConfig() *config.Config {
	return &config.Config{
		ReactionKinds: map[string]string{"like": "👍", "love": "❤️"},
		Comments: config.CommentConfig{
			ReactionsEnabled: true,
			MaxDepth:         1,
			PerPage:          10,
		},
	}
}

// =============================================================================
// REACT TESTS
// =============================================================================

func TestReactionService_React(t *testing.T) {
	tests := []struct {
		name    string
		userID  int64
		target  model.Target
		kind    string
		wantErr error
	}{
		{
			name:   "valid reaction",
			userID: 1,
			target: model.Target{Type: "post", ID: 5},
			kind:   "like",
		},
		{
			name:    "anonymous user rejected",
			userID:  0,
			target:  model.Target{Type: "post", ID: 5},
			kind:    "like",
			wantErr: model.ErrAuthRequired,
		},
		{
			name:    "kind outside configured set",
			userID:  1,
			target:  model.Target{Type: "post", ID: 5},
			kind:    "dislike",
			wantErr: model.ErrInvalidReactionType,
		},
		{
			name:    "unregistered target type",
			userID:  1,
			target:  model.Target{Type: "video", ID: 5},
			kind:    "like",
			wantErr: model.ErrUnknownTargetType,
		},
		{
			name:    "missing target record",
			userID:  1,
			target:  model.Target{Type: "post", ID: 100},
			kind:    "like",
			wantErr: model.ErrTargetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockReactionRepository{}
			svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

			reaction, err := svc.React(context.Background(), tt.userID, tt.target, tt.kind)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if mockRepo.upsertCalls != 0 {
					t.Error("Upsert should not be called on validation failure")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reaction == nil || reaction.Type != tt.kind {
				t.Fatalf("reaction = %+v, want kind %q", reaction, tt.kind)
			}
			if mockRepo.upsertCalls != 1 {
				t.Errorf("Upsert called %d times, want 1", mockRepo.upsertCalls)
			}
		})
	}
}

func TestReactionService_React_SwitchKindIsSingleUpsert(t *testing.T) {
	// ARRANGE: the user already reacted "like"; switching to "love" must be
	// one upsert with no delete.
	mockRepo := &mockReactionRepository{
		upsertFn: func(ctx context.Context, userID int64, tgt model.Target, kind string) (*model.Reaction, error) {
			return &model.Reaction{ID: 7, UserID: userID, TargetType: tgt.Type, TargetID: tgt.ID, Type: kind}, nil
		},
	}
	svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

	// ACT
	reaction, err := svc.React(context.Background(), 1, model.Target{Type: "post", ID: 5}, "love")

	// ASSERT
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reaction.Type != "love" {
		t.Errorf("kind = %q, want love", reaction.Type)
	}
	if mockRepo.deleteCalls != 0 {
		t.Error("switching kind must not delete the existing row")
	}
}

// =============================================================================
// UNREACT TESTS
// =============================================================================

func TestReactionService_Unreact(t *testing.T) {
	t.Run("removes existing reaction", func(t *testing.T) {
		mockRepo := &mockReactionRepository{
			deleteFn: func(ctx context.Context, userID int64, tgt model.Target) (bool, error) {
				return true, nil
			},
		}
		svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

		removed, err := svc.Unreact(context.Background(), 1, model.Target{Type: "post", ID: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !removed {
			t.Error("expected removed=true")
		}
	})

	t.Run("no reaction present is a no-op", func(t *testing.T) {
		mockRepo := &mockReactionRepository{}
		svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

		removed, err := svc.Unreact(context.Background(), 1, model.Target{Type: "post", ID: 5})
		if err != nil {
			t.Fatalf("unreacting with nothing present must not error, got: %v", err)
		}
		if removed {
			t.Error("expected removed=false")
		}
	})

	t.Run("anonymous user rejected", func(t *testing.T) {
		svc := NewReactionService(&mockReactionRepository{}, newTestRegistry(), testConfig())

		_, err := svc.Unreact(context.Background(), 0, model.Target{Type: "post", ID: 5})
		if !errors.Is(err, model.ErrAuthRequired) {
			t.Errorf("error = %v, want %v", err, model.ErrAuthRequired)
		}
	})
}

// =============================================================================
// TOGGLE TESTS
// =============================================================================

func TestReactionService_Toggle(t *testing.T) {
	existing := &model.Reaction{ID: 7, UserID: 1, TargetType: "post", TargetID: 5, Type: "like", CreatedAt: time.Now()}

	t.Run("same kind removes", func(t *testing.T) {
		mockRepo := &mockReactionRepository{
			getFn: func(ctx context.Context, userID int64, tgt model.Target) (*model.Reaction, error) {
				return existing, nil
			},
			deleteFn: func(ctx context.Context, userID int64, tgt model.Target) (bool, error) {
				return true, nil
			},
		}
		svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

		reaction, removed, err := svc.Toggle(context.Background(), 1, model.Target{Type: "post", ID: 5}, "like")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !removed || reaction != nil {
			t.Errorf("got (reaction=%v removed=%v), want (nil, true)", reaction, removed)
		}
		if mockRepo.upsertCalls != 0 {
			t.Error("toggle-off must not upsert")
		}
	})

	t.Run("different kind switches", func(t *testing.T) {
		mockRepo := &mockReactionRepository{
			getFn: func(ctx context.Context, userID int64, tgt model.Target) (*model.Reaction, error) {
				return existing, nil
			},
		}
		svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

		reaction, removed, err := svc.Toggle(context.Background(), 1, model.Target{Type: "post", ID: 5}, "love")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if removed {
			t.Error("switching kind must not report removed")
		}
		if reaction == nil || reaction.Type != "love" {
			t.Errorf("reaction = %+v, want kind love", reaction)
		}
		if mockRepo.deleteCalls != 0 {
			t.Error("switching kind must not delete")
		}
	})

	t.Run("no existing reaction sets", func(t *testing.T) {
		mockRepo := &mockReactionRepository{}
		svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

		reaction, removed, err := svc.Toggle(context.Background(), 1, model.Target{Type: "post", ID: 5}, "like")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if removed || reaction == nil {
			t.Errorf("got (reaction=%v removed=%v), want (set, false)", reaction, removed)
		}
	})
}

// =============================================================================
// USER REACTION + REACTORS TESTS
// =============================================================================

func TestReactionService_UserReaction_AnonymousIsEmpty(t *testing.T) {
	repoCalled := false
	mockRepo := &mockReactionRepository{
		getFn: func(ctx context.Context, userID int64, tgt model.Target) (*model.Reaction, error) {
			repoCalled = true
			return nil, nil
		},
	}
	svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

	kind, err := svc.UserReaction(context.Background(), 0, model.Target{Type: "post", ID: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != "" {
		t.Errorf("kind = %q, want empty", kind)
	}
	if repoCalled {
		t.Error("anonymous lookup must not hit the repository")
	}
}

func TestReactionService_Reactors_Pagination(t *testing.T) {
	mockRepo := &mockReactionRepository{
		reactorsFn: func(ctx context.Context, tgt model.Target, kind string, limit, offset int) ([]model.Reactor, int, error) {
			if limit != 8 {
				t.Errorf("limit = %d, want default 8", limit)
			}
			if offset != 8 {
				t.Errorf("offset = %d, want 8 for page 2", offset)
			}
			return []model.Reactor{{Type: "like"}}, 17, nil
		},
	}
	svc := NewReactionService(mockRepo, newTestRegistry(), testConfig())

	resp, err := svc.Reactors(context.Background(), model.Target{Type: "post", ID: 5}, "", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Pagination.CurrentPage != 2 {
		t.Errorf("current_page = %d, want 2", resp.Pagination.CurrentPage)
	}
	if resp.Pagination.LastPage != 3 {
		t.Errorf("last_page = %d, want 3 for 17 rows at 8 per page", resp.Pagination.LastPage)
	}
	if !resp.Pagination.HasMore {
		t.Error("page 2 of 3 must report has_more")
	}
}

func TestReactionService_Reactors_InvalidKindFilter(t *testing.T) {
	svc := NewReactionService(&mockReactionRepository{}, newTestRegistry(), testConfig())

	_, err := svc.Reactors(context.Background(), model.Target{Type: "post", ID: 5}, "dislike", 1, 0)
	if !errors.Is(err, model.ErrInvalidReactionType) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidReactionType)
	}
}
