// Package query composes batched social graph reads into denormalized,
// paginated view models.
//
// Each operation runs one sequential pipeline of at most three store
// round-trips: a primary row fetch plus up to two relationship fetches
// batched over the ids of the primary rows, never one query per row. The
// service holds no state between requests; a failed round-trip fails the
// whole request with no partial result.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/skein/internal/services/social/storage"
)

// Service executes read-only aggregation queries over one social graph store.
type Service struct {
	store storage.Reader
}

// NewService creates a query service over the given store.
func NewService(store storage.Reader) *Service {
	return &Service{store: store}
}

// EnrichedUser is a user view with follow adjacency attached.
type EnrichedUser struct {
	User       storage.User
	Follows    []string
	FollowedBy []string
}

// ListUsers returns every user ordered by username ascending, with follow
// adjacency aggregated across the full id set in one batched call.
func (s *Service) ListUsers(ctx context.Context) ([]EnrichedUser, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("query service is not configured")
	}

	users, err := s.store.SelectUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	follows, err := s.aggregateEdges(ctx, storage.RelationFollow, ids)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedUser, 0, len(users))
	for _, user := range users {
		enriched = append(enriched, EnrichedUser{
			User:       user,
			Follows:    follows.Forward[user.ID],
			FollowedBy: follows.Backward[user.ID],
		})
	}
	return enriched, nil
}

// GetUser returns one user with follow adjacency scoped to that single id
// rather than aggregating the whole graph. storage.ErrNotFound passes
// through unchanged when the id is unknown.
func (s *Service) GetUser(ctx context.Context, id string) (EnrichedUser, error) {
	if s == nil || s.store == nil {
		return EnrichedUser{}, fmt.Errorf("query service is not configured")
	}

	user, err := s.store.SelectUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return EnrichedUser{}, storage.ErrNotFound
		}
		return EnrichedUser{}, fmt.Errorf("select user: %w", err)
	}

	follows, err := s.aggregateEdges(ctx, storage.RelationFollow, []string{user.ID})
	if err != nil {
		return EnrichedUser{}, err
	}
	return EnrichedUser{
		User:       user,
		Follows:    follows.Forward[user.ID],
		FollowedBy: follows.Backward[user.ID],
	}, nil
}

// UserExists checks that the user id is present, returning
// storage.ErrNotFound when it is not. Routing callers use this to settle
// existence before pagination is validated.
func (s *Service) UserExists(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("query service is not configured")
	}
	if _, err := s.store.SelectUserByID(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("select user: %w", err)
	}
	return nil
}

// GetUserPosts returns one page of the user's own posts, newest first,
// enriched with reply and like adjacency. The caller verifies the user
// exists; an unknown id yields an empty page here.
func (s *Service) GetUserPosts(ctx context.Context, userID string, page, limit int) ([]EnrichedPost, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("query service is not configured")
	}

	window, err := NormalizePage(page, limit)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.SelectPostsByAuthor(ctx, userID, window.Limit, window.Offset)
	if err != nil {
		return nil, fmt.Errorf("select posts by author: %w", err)
	}
	return s.enrichPosts(ctx, posts)
}

// GetUserFeed returns one page of posts authored by the users the target
// follows, newest first, enriched with reply and like adjacency. A user who
// follows no one gets an empty feed; the target's own posts never appear.
func (s *Service) GetUserFeed(ctx context.Context, userID string, page, limit int) ([]EnrichedPost, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("query service is not configured")
	}

	window, err := NormalizePage(page, limit)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.SelectFeedPosts(ctx, userID, window.Limit, window.Offset)
	if err != nil {
		return nil, fmt.Errorf("select feed posts: %w", err)
	}
	return s.enrichPosts(ctx, posts)
}
