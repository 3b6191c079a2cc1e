package query

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/skein/internal/services/social/storage"
)

func TestEnrichPostsPreservesOrderAndMergesAdjacency(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, time.March, 7, 8, 0, 0, 0, time.UTC)
	store.addPost("post-1", "user-1", "", base)
	store.addPost("post-2", "user-2", "post-1", base.Add(time.Hour))
	store.addPost("post-3", "user-1", "", base.Add(2*time.Hour))
	store.addPost("post-4", "user-2", "post-3", base.Add(3*time.Hour))
	store.addLike("post-1", "user-2")
	store.addLike("post-1", "user-3")

	page := []storage.Post{
		{ID: "post-3", AuthorID: "user-1", PostedAt: base.Add(2 * time.Hour)},
		{ID: "post-1", AuthorID: "user-1", PostedAt: base},
	}

	svc := NewService(store)
	enriched, err := svc.enrichPosts(context.Background(), page)
	if err != nil {
		t.Fatalf("enrich posts: %v", err)
	}

	if len(enriched) != 2 || enriched[0].Post.ID != "post-3" || enriched[1].Post.ID != "post-1" {
		t.Fatalf("enriched order = %v, want post-3 then post-1", enriched)
	}
	if !equalIDs(enriched[0].Replies, []string{"post-4"}) {
		t.Fatalf("post-3 replies = %v, want [post-4]", enriched[0].Replies)
	}
	if !equalIDs(enriched[1].Replies, []string{"post-2"}) {
		t.Fatalf("post-1 replies = %v, want [post-2]", enriched[1].Replies)
	}
	if !equalIDs(enriched[1].LikedBy, []string{"user-2", "user-3"}) {
		t.Fatalf("post-1 liked_by = %v, want both likers", enriched[1].LikedBy)
	}
	if enriched[0].LikedBy == nil || len(enriched[0].LikedBy) != 0 {
		t.Fatalf("post-3 liked_by = %v, want present empty list", enriched[0].LikedBy)
	}
	if store.calls != 2 {
		t.Fatalf("store calls = %d, want 2 batched lookups", store.calls)
	}
}

func TestEnrichPostsIncludesRepliesOutsideAnyPageWindow(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, time.March, 7, 8, 0, 0, 0, time.UTC)
	store.addPost("post-1", "user-1", "", base)
	// The reply itself would land on a later page of user-2's timeline; it
	// must still show up in the parent's reply list.
	store.addPost("post-2", "user-2", "post-1", base.Add(time.Hour))

	page := []storage.Post{{ID: "post-1", AuthorID: "user-1", PostedAt: base}}

	enriched, err := NewService(store).enrichPosts(context.Background(), page)
	if err != nil {
		t.Fatalf("enrich posts: %v", err)
	}
	if !equalIDs(enriched[0].Replies, []string{"post-2"}) {
		t.Fatalf("replies = %v, want [post-2]", enriched[0].Replies)
	}
}

func TestEnrichPostsEmptyPageIssuesNoQueries(t *testing.T) {
	store := newFakeStore()

	enriched, err := NewService(store).enrichPosts(context.Background(), nil)
	if err != nil {
		t.Fatalf("enrich posts: %v", err)
	}
	if len(enriched) != 0 {
		t.Fatalf("enriched len = %d, want 0", len(enriched))
	}
	if store.calls != 0 {
		t.Fatalf("store calls = %d, want 0 for empty page", store.calls)
	}
}
