package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"engagement/internal/config"
	"engagement/internal/model"
	"engagement/internal/queue"
	"engagement/internal/repository"
	"engagement/internal/target"
)

// CommentService owns the comment lifecycle: Created → [Edited]* →
// Deleted(soft). Authorization runs through the target registry so the
// service never hardcodes per-target-type rules.
type CommentService struct {
	commentRepo  repository.CommentRepository
	userRepo     repository.UserRepository
	reactionRepo repository.ReactionRepository
	registry     *target.Registry
	publisher    queue.Publisher
	cfg          *config.Config
	sanitizer    *bluemonday.Policy
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	reactionRepo repository.ReactionRepository,
	registry *target.Registry,
	publisher queue.Publisher,
	cfg *config.Config,
) *CommentService {
	return &CommentService{
		commentRepo:  commentRepo,
		userRepo:     userRepo,
		reactionRepo: reactionRepo,
		registry:     registry,
		publisher:    publisher,
		cfg:          cfg,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

// validateContent trims, bounds and sanitizes comment content.
func (s *CommentService) validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		return "", model.ErrContentTooLong
	}
	return strings.TrimSpace(s.sanitizer.Sanitize(content)), nil
}

// Create posts a comment (or reply) on a target.
func (s *CommentService) Create(ctx context.Context, userID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	content, err := s.validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	t := model.Target{Type: req.TargetType, ID: req.TargetID}
	def, rec, err := s.registry.Lookup(ctx, t)
	if err != nil {
		return nil, err
	}
	if !def.AllowsComment(ctx, user, rec) {
		return nil, model.ErrNotAllowed
	}

	// A reply's parent must exist, be live, and sit on the same target.
	if req.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.TargetType != t.Type || parent.TargetID != t.ID {
			return nil, model.ErrParentTargetMismatch
		}
		if s.cfg.Comments.MaxDepth > 0 {
			depth, err := s.commentRepo.Depth(ctx, parent.ID)
			if err != nil {
				return nil, err
			}
			if depth+1 > s.cfg.Comments.MaxDepth {
				return nil, model.ErrMaxDepthExceeded
			}
		}
	}

	comment, err := s.commentRepo.Create(ctx, t, userID, content, req.ParentID)
	if err != nil {
		return nil, err
	}
	comment.Author = user.Summary()
	comment.CanEdit = true
	comment.CanDelete = true

	log.Printf("[CommentService] User %d commented on %s %d (comment %d)", userID, t.Type, t.ID, comment.ID)

	// Publish notification event (after the write, best-effort)
	if s.publisher != nil {
		event := queue.NewCommentCreatedEvent(comment, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamEngagement, event); err != nil {
			log.Printf("[CommentService] Failed to publish CommentCreated event: %v", err)
		}
	}

	return comment, nil
}

// Update replaces a comment's content, subject to the target's policy, the
// author-or-admin rule and the configured edit window.
func (s *CommentService) Update(ctx context.Context, userID, commentID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	def, rec, err := s.registry.Lookup(ctx, comment.Target())
	if err != nil {
		return nil, err
	}
	if !def.AllowsManage(ctx, user, rec, comment) {
		return nil, model.ErrNotAllowed
	}

	// Edit window is measured from creation, not from the last edit.
	if timeout := s.cfg.Comments.EditTimeout; timeout > 0 {
		if time.Since(comment.CreatedAt) > time.Duration(timeout)*time.Second {
			return nil, model.ErrEditWindowExpired
		}
	}

	content, err := s.validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.Update(ctx, commentID, content)
	if err != nil {
		return nil, err
	}
	updated.Author = user.Summary()
	updated.CanEdit = true
	updated.CanDelete = true

	log.Printf("[CommentService] User %d edited comment %d", userID, commentID)
	return updated, nil
}

// Delete soft-deletes a comment. The row stays recoverable at the storage
// layer but disappears from default listings; there is no un-delete.
func (s *CommentService) Delete(ctx context.Context, userID, commentID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	def, rec, err := s.registry.Lookup(ctx, comment.Target())
	if err != nil {
		return err
	}
	if !def.AllowsManage(ctx, user, rec, comment) {
		return model.ErrNotAllowed
	}

	if err := s.commentRepo.SoftDelete(ctx, commentID); err != nil {
		return err
	}

	log.Printf("[CommentService] User %d deleted comment %d from %s %d", userID, commentID, comment.TargetType, comment.TargetID)

	if s.publisher != nil {
		event := queue.NewCommentDeletedEvent(comment, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamEngagement, event); err != nil {
			log.Printf("[CommentService] Failed to publish CommentDeleted event: %v", err)
		}
	}

	return nil
}

// ListTopLevel returns one page of top-level comments, newest first, with
// immediate replies eagerly loaded and reaction/permission annotations for
// the viewer. viewerID 0 means anonymous.
func (s *CommentService) ListTopLevel(ctx context.Context, viewerID int64, t model.Target, page, perPage int) (*model.CommentListResponse, error) {
	def, rec, err := s.registry.Lookup(ctx, t)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.cfg.Comments.PerPage
	}

	// Fetch one extra row to learn whether another page exists.
	comments, err := s.commentRepo.ListTopLevel(ctx, t, perPage+1, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	hasMore := len(comments) > perPage
	if hasMore {
		comments = comments[:perPage]
	}

	parentIDs := make([]int64, len(comments))
	for i, c := range comments {
		parentIDs[i] = c.ID
	}
	replies, err := s.commentRepo.ListReplies(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	for i := range comments {
		comments[i].Replies = replies[comments[i].ID]
	}

	viewer := s.viewer(ctx, viewerID)
	if err := s.annotate(ctx, def, rec, viewer, comments); err != nil {
		return nil, err
	}

	return &model.CommentListResponse{
		Success: true,
		Data:    comments,
		Pagination: model.Pagination{
			CurrentPage: page,
			HasMore:     hasMore,
		},
	}, nil
}

// ListReplies returns all immediate replies to a comment, newest first, with
// the same annotations as ListTopLevel.
func (s *CommentService) ListReplies(ctx context.Context, viewerID, commentID int64) (*model.ReplyListResponse, error) {
	parent, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	def, rec, err := s.registry.Lookup(ctx, parent.Target())
	if err != nil {
		return nil, err
	}

	grouped, err := s.commentRepo.ListReplies(ctx, []int64{parent.ID})
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	replies := grouped[parent.ID]

	viewer := s.viewer(ctx, viewerID)
	if err := s.annotate(ctx, def, rec, viewer, replies); err != nil {
		return nil, err
	}

	return &model.ReplyListResponse{
		Success: true,
		Replies: replies,
	}, nil
}

// viewer resolves the requesting user, treating lookup failures as anonymous.
func (s *CommentService) viewer(ctx context.Context, viewerID int64) *model.User {
	if viewerID <= 0 {
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil
	}
	return user
}

// annotate attaches reaction summaries, the viewer's own reaction and
// can_edit/can_delete to comments and their eagerly loaded replies.
func (s *CommentService) annotate(ctx context.Context, def target.Definition, rec target.Record, viewer *model.User, comments []model.Comment) error {
	all := collectIDs(comments)

	var summaries map[int64]map[string]int
	var viewerKinds map[int64]string
	if s.cfg.Comments.ReactionsEnabled && len(all) > 0 {
		var err error
		summaries, err = s.reactionRepo.SummaryForTargets(ctx, model.TargetTypeComment, all)
		if err != nil {
			return fmt.Errorf("comment reaction summaries: %w", err)
		}
		if viewer != nil {
			viewerKinds, err = s.reactionRepo.UserReactionsForTargets(ctx, viewer.ID, model.TargetTypeComment, all)
			if err != nil {
				return fmt.Errorf("viewer reactions: %w", err)
			}
		}
	}

	var apply func(list []model.Comment)
	apply = func(list []model.Comment) {
		for i := range list {
			c := &list[i]
			c.Reactions = summaries[c.ID]
			c.UserReaction = viewerKinds[c.ID]
			allowed := def.AllowsManage(ctx, viewer, rec, c)
			c.CanEdit = allowed
			c.CanDelete = allowed
			apply(c.Replies)
		}
	}
	apply(comments)
	return nil
}

// collectIDs gathers comment ids including nested replies.
func collectIDs(comments []model.Comment) []int64 {
	var ids []int64
	for i := range comments {
		ids = append(ids, comments[i].ID)
		ids = append(ids, collectIDs(comments[i].Replies)...)
	}
	return ids
}
