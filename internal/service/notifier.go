package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"engagement/internal/config"
	"engagement/internal/mailer"
	"engagement/internal/model"
	"engagement/internal/queue"
	"engagement/internal/repository"
	"engagement/internal/target"
)

// Notifier turns engagement events into notification emails. It runs inside
// the worker (queued mode) or on a detached goroutine (inline mode), so every
// failure here is logged and dropped rather than surfaced to the request.
type Notifier struct {
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	registry    *target.Registry
	mailer      mailer.Mailer
	cfg         config.NotificationConfig
}

func NewNotifier(
	userRepo repository.UserRepository,
	commentRepo repository.CommentRepository,
	registry *target.Registry,
	m mailer.Mailer,
	cfg config.NotificationConfig,
) *Notifier {
	return &Notifier{
		userRepo:    userRepo,
		commentRepo: commentRepo,
		registry:    registry,
		mailer:      m,
		cfg:         cfg,
	}
}

// recipient pairs an email address with the reason it is being notified.
type recipient struct {
	email  string
	reason string
}

// Dispatch evaluates the gating flags and sends at most one email per
// distinct address. A failed send to one recipient never blocks the others.
func (n *Notifier) Dispatch(ctx context.Context, event queue.EngagementEvent) error {
	if !n.cfg.Enabled {
		return nil
	}
	if n.cfg.AdminEmail == "" {
		log.Printf("[Notifier] Enabled but no admin email configured, skipping event %s for comment %d", event.Type, event.CommentID)
		return nil
	}
	if event.Type == queue.EventCommentDeleted && !n.cfg.NotifyOnDelete {
		return nil
	}

	recipients := n.recipients(ctx, event)
	if len(recipients) == 0 {
		return nil
	}

	subject, body := n.compose(ctx, event)

	sent := make(map[string]bool, len(recipients))
	for _, r := range recipients {
		addr := strings.ToLower(strings.TrimSpace(r.email))
		if addr == "" || sent[addr] {
			continue
		}
		sent[addr] = true

		if err := n.mailer.Send(r.email, subject, body); err != nil {
			log.Printf("[Notifier] Send FAILED: to=%s reason=%s comment=%d err=%v", r.email, r.reason, event.CommentID, err)
			continue
		}
		log.Printf("[Notifier] Sent %s notification to %s (%s) for comment %d", event.Type, r.email, r.reason, event.CommentID)
	}
	return nil
}

// recipients resolves who should hear about the event: the admin always,
// the target's owner and the parent comment's author depending on the flags.
// The actor never receives a notification about their own action.
func (n *Notifier) recipients(ctx context.Context, event queue.EngagementEvent) []recipient {
	out := []recipient{{email: n.cfg.AdminEmail, reason: "admin"}}

	isReply := event.ParentID != nil

	if n.cfg.NotifyOwner && (!isReply || n.cfg.NotifyOnReplies) {
		if email, ownerID := n.ownerEmail(ctx, event.Target()); email != "" && ownerID != event.ActorID {
			out = append(out, recipient{email: email, reason: "owner"})
		}
	}

	if isReply && n.cfg.NotifyParentAuthor {
		if email, authorID := n.parentAuthorEmail(ctx, *event.ParentID); email != "" && authorID != event.ActorID {
			out = append(out, recipient{email: email, reason: "parent_author"})
		}
	}

	return out
}

// ownerEmail resolves the target record's owner to an email address.
func (n *Notifier) ownerEmail(ctx context.Context, t model.Target) (string, int64) {
	_, rec, err := n.registry.Lookup(ctx, t)
	if err != nil {
		if !errors.Is(err, model.ErrTargetNotFound) {
			log.Printf("[Notifier] owner lookup failed for %s %d: %v", t.Type, t.ID, err)
		}
		return "", 0
	}
	ownerID := rec.OwnerID()
	if ownerID == 0 {
		return "", 0
	}
	return n.userEmail(ctx, ownerID), ownerID
}

// parentAuthorEmail resolves the parent comment's author. The parent is read
// with deleted rows included: a reply to a since-deleted comment still
// notifies its author.
func (n *Notifier) parentAuthorEmail(ctx context.Context, parentID int64) (string, int64) {
	parent, err := n.commentRepo.GetByIDIncludeDeleted(ctx, parentID)
	if err != nil {
		log.Printf("[Notifier] parent comment %d lookup failed: %v", parentID, err)
		return "", 0
	}
	return n.userEmail(ctx, parent.UserID), parent.UserID
}

func (n *Notifier) userEmail(ctx context.Context, userID int64) string {
	user, err := n.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("[Notifier] user %d lookup failed: %v", userID, err)
		return ""
	}
	if user.Email == nil {
		return ""
	}
	return *user.Email
}

// compose builds the subject and body for the event. The comment is re-read
// with deleted rows included so delete notifications can still quote it.
func (n *Notifier) compose(ctx context.Context, event queue.EngagementEvent) (subject, body string) {
	actorName := fmt.Sprintf("User %d", event.ActorID)
	if actor, err := n.userRepo.GetByID(ctx, event.ActorID); err == nil {
		actorName = actor.Username
		if actor.DisplayName != nil && *actor.DisplayName != "" {
			actorName = *actor.DisplayName
		}
	}

	where := fmt.Sprintf("%s #%d", event.TargetType, event.TargetID)

	var excerpt string
	if comment, err := n.commentRepo.GetByIDIncludeDeleted(ctx, event.CommentID); err == nil {
		excerpt = comment.Content
		if len(excerpt) > 300 {
			excerpt = excerpt[:300] + "…"
		}
	}

	switch event.Type {
	case queue.EventCommentDeleted:
		subject = fmt.Sprintf("Comment deleted on %s", where)
		body = fmt.Sprintf("%s deleted a comment on %s.\n\n%s\n", actorName, where, excerpt)
	default:
		if event.ParentID != nil {
			subject = fmt.Sprintf("New reply on %s", where)
			body = fmt.Sprintf("%s replied to a comment on %s:\n\n%s\n", actorName, where, excerpt)
		} else {
			subject = fmt.Sprintf("New comment on %s", where)
			body = fmt.Sprintf("%s commented on %s:\n\n%s\n", actorName, where, excerpt)
		}
	}
	return subject, body
}
