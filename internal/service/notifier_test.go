package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"engagement/internal/config"
	"engagement/internal/model"
	"engagement/internal/queue"
)

// =============================================================================
// MOCK MAILER
// =============================================================================

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type mockMailer struct {
	sendFn func(to, subject, body string) error
	sent   []sentMail
}

func (m *mockMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	if m.sendFn != nil {
		return m.sendFn(to, subject, body)
	}
	return nil
}

// =============================================================================
// FIXTURES
// =============================================================================

func strPtr(s string) *string { return &s }

// notifierUsers: 42 owns every stub post, 7 wrote the parent comment, 1 acts.
func notifierUsers() *mockUserRepository {
	return &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			switch id {
			case 42:
				return &model.User{ID: 42, Username: "owner", Email: strPtr("owner@example.com")}, nil
			case 7:
				return &model.User{ID: 7, Username: "parent", Email: strPtr("parent@example.com")}, nil
			case 1:
				return &model.User{ID: 1, Username: "actor", Email: strPtr("actor@example.com")}, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
}

func notifierComments() *mockCommentRepository {
	return &mockCommentRepository{
		getByIDIncludeDeletedFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			if commentID == 10 {
				return &model.Comment{ID: 10, TargetType: "post", TargetID: 5, UserID: 7, Content: "parent comment", CreatedAt: time.Now()}, nil
			}
			return &model.Comment{ID: commentID, TargetType: "post", TargetID: 5, UserID: 1, Content: "the comment text", CreatedAt: time.Now()}, nil
		},
	}
}

func allOnConfig() config.NotificationConfig {
	return config.NotificationConfig{
		Enabled:            true,
		AdminEmail:         "admin@example.com",
		NotifyOwner:        true,
		NotifyParentAuthor: true,
		NotifyOnReplies:    true,
		NotifyOnDelete:     false,
	}
}

func createdEvent(actorID int64, parentID *int64) queue.EngagementEvent {
	return queue.EngagementEvent{
		Type:       queue.EventCommentCreated,
		Timestamp:  time.Now().Unix(),
		CommentID:  11,
		TargetType: "post",
		TargetID:   5,
		ActorID:    actorID,
		ParentID:   parentID,
	}
}

func recipients(sent []sentMail) []string {
	out := make([]string, len(sent))
	for i, s := range sent {
		out[i] = s.To
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// =============================================================================
// GATING TESTS
// =============================================================================

func TestNotifier_Gating(t *testing.T) {
	parentID := int64(10)

	tests := []struct {
		name  string
		cfg   func() config.NotificationConfig
		event queue.EngagementEvent
		want  []string
	}{
		{
			name:  "disabled sends nothing",
			cfg:   func() config.NotificationConfig { c := allOnConfig(); c.Enabled = false; return c },
			event: createdEvent(1, nil),
			want:  nil,
		},
		{
			name:  "no admin email sends nothing",
			cfg:   func() config.NotificationConfig { c := allOnConfig(); c.AdminEmail = ""; return c },
			event: createdEvent(1, nil),
			want:  nil,
		},
		{
			name: "delete gated off by default",
			cfg:  allOnConfig,
			event: queue.EngagementEvent{
				Type: queue.EventCommentDeleted, CommentID: 11, TargetType: "post", TargetID: 5, ActorID: 1,
			},
			want: nil,
		},
		{
			name: "delete notifies when enabled",
			cfg:  func() config.NotificationConfig { c := allOnConfig(); c.NotifyOnDelete = true; return c },
			event: queue.EngagementEvent{
				Type: queue.EventCommentDeleted, CommentID: 11, TargetType: "post", TargetID: 5, ActorID: 1,
			},
			want: []string{"admin@example.com", "owner@example.com"},
		},
		{
			name:  "top-level comment notifies admin and owner",
			cfg:   allOnConfig,
			event: createdEvent(1, nil),
			want:  []string{"admin@example.com", "owner@example.com"},
		},
		{
			name:  "reply also notifies parent author",
			cfg:   allOnConfig,
			event: createdEvent(1, &parentID),
			want:  []string{"admin@example.com", "owner@example.com", "parent@example.com"},
		},
		{
			name:  "owner skipped for replies when notify_on_replies off",
			cfg:   func() config.NotificationConfig { c := allOnConfig(); c.NotifyOnReplies = false; return c },
			event: createdEvent(1, &parentID),
			want:  []string{"admin@example.com", "parent@example.com"},
		},
		{
			name:  "owner not notified about own comment",
			cfg:   allOnConfig,
			event: createdEvent(42, nil),
			want:  []string{"admin@example.com"},
		},
		{
			name:  "parent author not notified about own reply",
			cfg:   allOnConfig,
			event: createdEvent(7, &parentID),
			want:  []string{"admin@example.com", "owner@example.com"},
		},
		{
			name:  "notify_owner off",
			cfg:   func() config.NotificationConfig { c := allOnConfig(); c.NotifyOwner = false; return c },
			event: createdEvent(1, nil),
			want:  []string{"admin@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &mockMailer{}
			n := NewNotifier(notifierUsers(), notifierComments(), newTestRegistry(), mailer, tt.cfg())

			if err := n.Dispatch(context.Background(), tt.event); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := recipients(mailer.sent)
			if len(got) != len(tt.want) {
				t.Fatalf("sent to %v, want %v", got, tt.want)
			}
			for _, w := range tt.want {
				if !contains(got, w) {
					t.Errorf("missing recipient %s in %v", w, got)
				}
			}
		})
	}
}

func TestNotifier_DeduplicatesRecipients(t *testing.T) {
	// ARRANGE: owner is also the admin address
	cfg := allOnConfig()
	cfg.AdminEmail = "owner@example.com"
	mailer := &mockMailer{}
	n := NewNotifier(notifierUsers(), notifierComments(), newTestRegistry(), mailer, cfg)

	// ACT
	if err := n.Dispatch(context.Background(), createdEvent(1, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ASSERT
	if len(mailer.sent) != 1 {
		t.Errorf("sent %d mails, want 1 after de-duplication", len(mailer.sent))
	}
}

func TestNotifier_SendFailureIsIsolated(t *testing.T) {
	// A failing admin send must not stop the owner's mail.
	mailer := &mockMailer{
		sendFn: func(to, subject, body string) error {
			if to == "admin@example.com" {
				return errors.New("smtp refused")
			}
			return nil
		},
	}
	n := NewNotifier(notifierUsers(), notifierComments(), newTestRegistry(), mailer, allOnConfig())

	if err := n.Dispatch(context.Background(), createdEvent(1, nil)); err != nil {
		t.Fatalf("send failures must not surface, got: %v", err)
	}

	got := recipients(mailer.sent)
	if !contains(got, "owner@example.com") {
		t.Errorf("owner mail skipped after admin failure, sent to %v", got)
	}
}

func TestNotifier_OwnerWithoutEmailSkipped(t *testing.T) {
	users := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			// Owner 42 has no address on file
			return &model.User{ID: id, Username: "user"}, nil
		},
	}
	mailer := &mockMailer{}
	n := NewNotifier(users, notifierComments(), newTestRegistry(), mailer, allOnConfig())

	if err := n.Dispatch(context.Background(), createdEvent(1, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := recipients(mailer.sent)
	if len(got) != 1 || got[0] != "admin@example.com" {
		t.Errorf("sent to %v, want only the admin", got)
	}
}
