package query

import (
	"context"

	"github.com/louisbranch/skein/internal/services/social/storage"
)

// EnrichedPost is a post view with its direct reply ids and liker ids
// attached. Replies are one hop; thread trees are never traversed.
type EnrichedPost struct {
	Post    storage.Post
	Replies []string
	LikedBy []string
}

// enrichPosts attaches reply and like adjacency to an ordered page of posts
// using two lookups batched over the page's ids. Both lists reflect every
// edge existing at query time, even when the reply posts themselves fall
// outside any page window. Order of the input page is preserved.
func (s *Service) enrichPosts(ctx context.Context, posts []storage.Post) ([]EnrichedPost, error) {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	replySets, err := s.aggregateEdges(ctx, storage.RelationReply, ids)
	if err != nil {
		return nil, err
	}
	likeSets, err := s.aggregateEdges(ctx, storage.RelationLike, ids)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedPost, 0, len(posts))
	for _, post := range posts {
		enriched = append(enriched, EnrichedPost{
			Post:    post,
			Replies: replySets.Backward[post.ID],
			LikedBy: likeSets.Backward[post.ID],
		})
	}
	return enriched, nil
}
