package service

import (
	"context"
	"fmt"
	"log"

	"engagement/internal/config"
	"engagement/internal/model"
	"engagement/internal/repository"
	"engagement/internal/target"
)

// ReactionService owns the reaction lifecycle: one reaction per (user,
// target), kind switched in place, removed on unreact.
type ReactionService struct {
	reactionRepo repository.ReactionRepository
	registry     *target.Registry
	kinds        map[string]string
}

func NewReactionService(reactionRepo repository.ReactionRepository, registry *target.Registry, cfg *config.Config) *ReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		registry:     registry,
		kinds:        cfg.ReactionKinds,
	}
}

// validKind reports whether the kind is in the configured set.
func (s *ReactionService) validKind(kind string) bool {
	_, ok := s.kinds[kind]
	return ok
}

// React sets the user's reaction on the target to kind, creating or updating
// the single (user, target) row. Reacting with the current kind again leaves
// state unchanged apart from the refreshed timestamp.
func (s *ReactionService) React(ctx context.Context, userID int64, t model.Target, kind string) (*model.Reaction, error) {
	if userID <= 0 {
		return nil, model.ErrAuthRequired
	}
	if !s.validKind(kind) {
		return nil, model.ErrInvalidReactionType
	}
	if _, _, err := s.registry.Lookup(ctx, t); err != nil {
		return nil, err
	}

	reaction, err := s.reactionRepo.Upsert(ctx, userID, t, kind)
	if err != nil {
		return nil, err
	}

	log.Printf("[ReactionService] User %d reacted %q on %s %d", userID, kind, t.Type, t.ID)
	return reaction, nil
}

// Unreact removes the user's reaction on the target. Reports whether a
// reaction existed; unreacting with none present is a no-op, not an error.
func (s *ReactionService) Unreact(ctx context.Context, userID int64, t model.Target) (bool, error) {
	if userID <= 0 {
		return false, model.ErrAuthRequired
	}
	if _, _, err := s.registry.Lookup(ctx, t); err != nil {
		return false, err
	}

	removed, err := s.reactionRepo.Delete(ctx, userID, t)
	if err != nil {
		return false, err
	}

	if removed {
		log.Printf("[ReactionService] User %d removed reaction on %s %d", userID, t.Type, t.ID)
	}
	return removed, nil
}

// Toggle removes the reaction when the user's current kind equals kind, and
// sets it otherwise. Switching kinds is a single upsert, never observable as
// remove-then-add.
func (s *ReactionService) Toggle(ctx context.Context, userID int64, t model.Target, kind string) (*model.Reaction, bool, error) {
	if userID <= 0 {
		return nil, false, model.ErrAuthRequired
	}
	if !s.validKind(kind) {
		return nil, false, model.ErrInvalidReactionType
	}
	if _, _, err := s.registry.Lookup(ctx, t); err != nil {
		return nil, false, err
	}

	current, err := s.reactionRepo.Get(ctx, userID, t)
	if err != nil {
		return nil, false, err
	}
	if current != nil && current.Type == kind {
		removed, err := s.reactionRepo.Delete(ctx, userID, t)
		if err != nil {
			return nil, false, err
		}
		if removed {
			log.Printf("[ReactionService] User %d toggled off %q on %s %d", userID, kind, t.Type, t.ID)
		}
		return nil, removed, nil
	}

	reaction, err := s.reactionRepo.Upsert(ctx, userID, t, kind)
	if err != nil {
		return nil, false, err
	}
	log.Printf("[ReactionService] User %d toggled on %q on %s %d", userID, kind, t.Type, t.ID)
	return reaction, false, nil
}

// Summary returns kind→count for the target, omitting zero-count kinds.
func (s *ReactionService) Summary(ctx context.Context, t model.Target) (map[string]int, error) {
	if _, _, err := s.registry.Lookup(ctx, t); err != nil {
		return nil, err
	}
	return s.reactionRepo.Summary(ctx, t)
}

// UserReaction returns the user's current kind on the target, or "" when the
// user has no reaction. Invalid or missing user ids safely yield "".
func (s *ReactionService) UserReaction(ctx context.Context, userID int64, t model.Target) (string, error) {
	if userID <= 0 {
		return "", nil
	}
	reaction, err := s.reactionRepo.Get(ctx, userID, t)
	if err != nil {
		return "", err
	}
	if reaction == nil {
		return "", nil
	}
	return reaction.Type, nil
}

// Reactors returns one page of the "who reacted" listing, optionally
// filtered to a single kind.
func (s *ReactionService) Reactors(ctx context.Context, t model.Target, kind string, page, perPage int) (*model.ReactorListResponse, error) {
	if kind != "" && !s.validKind(kind) {
		return nil, model.ErrInvalidReactionType
	}
	if _, _, err := s.registry.Lookup(ctx, t); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = model.DefaultReactorsPerPage
	}

	reactors, total, err := s.reactionRepo.Reactors(ctx, t, kind, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("get reactors: %w", err)
	}

	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	return &model.ReactorListResponse{
		Success:   true,
		Reactions: reactors,
		Pagination: model.Pagination{
			CurrentPage: page,
			LastPage:    lastPage,
			HasMore:     page < lastPage,
		},
	}, nil
}
