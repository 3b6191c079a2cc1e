package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/louisbranch/skein/internal/services/social/storage"
)

type fakeStore struct {
	users   []storage.User
	posts   []storage.Post
	follows []storage.Edge
	likes   []storage.Edge
	replies []storage.Edge

	calls    int
	edgesErr error
	postsErr error
	usersErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (s *fakeStore) addUser(id, username string) {
	s.users = append(s.users, storage.User{
		ID:        id,
		FullName:  "Test " + username,
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	})
	sort.Slice(s.users, func(i, j int) bool {
		return s.users[i].Username < s.users[j].Username
	})
}

func (s *fakeStore) addPost(id, authorID, replyingTo string, postedAt time.Time) {
	s.posts = append(s.posts, storage.Post{
		ID:         id,
		AuthorID:   authorID,
		Text:       "post " + id,
		PostedAt:   postedAt,
		ReplyingTo: replyingTo,
	})
	if replyingTo != "" {
		s.replies = append(s.replies, storage.Edge{From: id, To: replyingTo})
	}
}

func (s *fakeStore) addFollow(followerID, followedID string) {
	s.follows = append(s.follows, storage.Edge{From: followerID, To: followedID})
}

func (s *fakeStore) addLike(postID, userID string) {
	s.likes = append(s.likes, storage.Edge{From: userID, To: postID})
}

func (s *fakeStore) SelectUsers(_ context.Context) ([]storage.User, error) {
	s.calls++
	if s.usersErr != nil {
		return nil, s.usersErr
	}
	return append([]storage.User(nil), s.users...), nil
}

func (s *fakeStore) SelectUserByID(_ context.Context, id string) (storage.User, error) {
	s.calls++
	if s.usersErr != nil {
		return storage.User{}, s.usersErr
	}
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (s *fakeStore) SelectEdges(_ context.Context, relation storage.Relation, ids []string) ([]storage.Edge, error) {
	s.calls++
	if s.edgesErr != nil {
		return nil, s.edgesErr
	}
	var source []storage.Edge
	switch relation {
	case storage.RelationFollow:
		source = s.follows
	case storage.RelationLike:
		source = s.likes
	case storage.RelationReply:
		source = s.replies
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var edges []storage.Edge
	for _, edge := range source {
		if wanted[edge.From] || wanted[edge.To] {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

func (s *fakeStore) SelectPostsByAuthor(_ context.Context, authorID string, limit, offset int) ([]storage.Post, error) {
	s.calls++
	if s.postsErr != nil {
		return nil, s.postsErr
	}
	var matched []storage.Post
	for _, post := range s.posts {
		if post.AuthorID == authorID {
			matched = append(matched, post)
		}
	}
	return windowNewestFirst(matched, limit, offset), nil
}

func (s *fakeStore) SelectFeedPosts(_ context.Context, followerID string, limit, offset int) ([]storage.Post, error) {
	s.calls++
	if s.postsErr != nil {
		return nil, s.postsErr
	}
	followed := make(map[string]bool)
	for _, edge := range s.follows {
		if edge.From == followerID {
			followed[edge.To] = true
		}
	}
	var matched []storage.Post
	for _, post := range s.posts {
		if followed[post.AuthorID] {
			matched = append(matched, post)
		}
	}
	return windowNewestFirst(matched, limit, offset), nil
}

func windowNewestFirst(posts []storage.Post, limit, offset int) []storage.Post {
	sorted := append([]storage.Post(nil), posts...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PostedAt.After(sorted[j].PostedAt)
	})
	if offset >= len(sorted) {
		return nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end]
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func equalIDs(got, want []string) bool {
	got = sortedIDs(got)
	want = sortedIDs(want)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestListUsersAttachesFollowAdjacency(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	store.addUser("user-2", "bruno")
	store.addUser("user-3", "chen")
	store.addFollow("user-1", "user-2")
	store.addFollow("user-1", "user-3")
	store.addFollow("user-2", "user-1")

	svc := NewService(store)
	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("users len = %d, want 3", len(users))
	}
	for i, want := range []string{"alice", "bruno", "chen"} {
		if users[i].User.Username != want {
			t.Fatalf("users[%d] = %q, want %q", i, users[i].User.Username, want)
		}
	}

	byID := make(map[string]EnrichedUser, len(users))
	for _, user := range users {
		byID[user.User.ID] = user
	}
	if !equalIDs(byID["user-1"].Follows, []string{"user-2", "user-3"}) {
		t.Fatalf("user-1 follows = %v", byID["user-1"].Follows)
	}
	if !equalIDs(byID["user-1"].FollowedBy, []string{"user-2"}) {
		t.Fatalf("user-1 followed_by = %v", byID["user-1"].FollowedBy)
	}
	if byID["user-3"].Follows == nil || byID["user-3"].FollowedBy == nil {
		t.Fatal("adjacency lists must default to empty, not nil")
	}

	if store.calls != 2 {
		t.Fatalf("store calls = %d, want 2 (users + one batched edge fetch)", store.calls)
	}
}

func TestListUsersEdgeSymmetry(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	store.addUser("user-2", "bruno")
	store.addUser("user-3", "chen")
	store.addUser("user-4", "dara")
	store.addFollow("user-1", "user-2")
	store.addFollow("user-2", "user-3")
	store.addFollow("user-3", "user-1")
	store.addFollow("user-4", "user-1")

	users, err := NewService(store).ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}

	follows := make(map[string]map[string]bool)
	followedBy := make(map[string]map[string]bool)
	for _, user := range users {
		follows[user.User.ID] = make(map[string]bool)
		followedBy[user.User.ID] = make(map[string]bool)
		for _, id := range user.Follows {
			follows[user.User.ID][id] = true
		}
		for _, id := range user.FollowedBy {
			followedBy[user.User.ID][id] = true
		}
	}
	for _, u := range users {
		for _, v := range users {
			if follows[u.User.ID][v.User.ID] != followedBy[v.User.ID][u.User.ID] {
				t.Fatalf("asymmetric edge between %s and %s", u.User.ID, v.User.ID)
			}
		}
	}
}

func TestGetUserScopesAggregationToSingleID(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	store.addUser("user-2", "bruno")
	store.addFollow("user-1", "user-2")
	store.addFollow("user-2", "user-1")

	svc := NewService(store)
	user, err := svc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.User.Username != "alice" {
		t.Fatalf("username = %q, want alice", user.User.Username)
	}
	if !equalIDs(user.Follows, []string{"user-2"}) {
		t.Fatalf("follows = %v, want [user-2]", user.Follows)
	}
	if !equalIDs(user.FollowedBy, []string{"user-2"}) {
		t.Fatalf("followed_by = %v, want [user-2]", user.FollowedBy)
	}
	if store.calls != 2 {
		t.Fatalf("store calls = %d, want 2", store.calls)
	}

	if _, err := svc.GetUser(context.Background(), "user-9"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing user err = %v, want ErrNotFound", err)
	}
}

func TestGetUserMatchesListUsersAdjacency(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	store.addUser("user-2", "bruno")
	store.addUser("user-3", "chen")
	store.addFollow("user-1", "user-2")
	store.addFollow("user-1", "user-3")
	store.addFollow("user-3", "user-1")

	svc := NewService(store)
	single, err := svc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	all, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}

	var fromList EnrichedUser
	for _, user := range all {
		if user.User.ID == "user-1" {
			fromList = user
		}
	}
	if !equalIDs(single.Follows, fromList.Follows) {
		t.Fatalf("follows differ: %v vs %v", single.Follows, fromList.Follows)
	}
	if !equalIDs(single.FollowedBy, fromList.FollowedBy) {
		t.Fatalf("followed_by differ: %v vs %v", single.FollowedBy, fromList.FollowedBy)
	}
}

func TestGetUserPostsWindowsAreDisjointAndOrdered(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	base := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.addPost(postID(i), "user-1", "", base.Add(time.Duration(i)*time.Hour))
	}

	svc := NewService(store)
	first, err := svc.GetUserPosts(context.Background(), "user-1", 1, 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	second, err := svc.GetUserPosts(context.Background(), "user-1", 2, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("page lens = %d, %d, want 2, 2", len(first), len(second))
	}
	seen := make(map[string]bool)
	for _, page := range [][]EnrichedPost{first, second} {
		for i, post := range page {
			if seen[post.Post.ID] {
				t.Fatalf("post %s appears in both pages", post.Post.ID)
			}
			seen[post.Post.ID] = true
			if i > 0 && page[i].Post.PostedAt.After(page[i-1].Post.PostedAt) {
				t.Fatal("posted_at must be non-increasing within a page")
			}
		}
	}
}

func TestGetUserPostsRoundTripBudget(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	base := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	store.addPost("post-1", "user-1", "", base)
	store.addPost("post-2", "user-1", "post-1", base.Add(time.Hour))

	svc := NewService(store)
	if _, err := svc.GetUserPosts(context.Background(), "user-1", 1, 20); err != nil {
		t.Fatalf("get user posts: %v", err)
	}
	if store.calls != 3 {
		t.Fatalf("store calls = %d, want 3 (posts + replies + likes)", store.calls)
	}
}

func TestGetUserPostsRejectsInvalidPaginationBeforeFetch(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")

	svc := NewService(store)
	if _, err := svc.GetUserPosts(context.Background(), "user-1", 0, 101); !errors.Is(err, ErrInvalidPagination) {
		t.Fatalf("err = %v, want ErrInvalidPagination", err)
	}
	if store.calls != 0 {
		t.Fatalf("store calls = %d, want 0 when pagination is rejected", store.calls)
	}
}

func TestGetUserFeedScenario(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-a", "ana")
	store.addUser("user-b", "bruno")
	store.addUser("user-c", "chen")
	store.addUser("user-d", "dara")
	store.addFollow("user-a", "user-b")
	store.addFollow("user-a", "user-c")

	base := time.Date(2026, time.March, 6, 8, 0, 0, 0, time.UTC)
	store.addPost("post-a", "user-a", "", base.Add(4*time.Hour))
	store.addPost("post-b", "user-b", "", base.Add(time.Hour))
	store.addPost("post-c", "user-c", "", base.Add(2*time.Hour))
	store.addPost("post-d", "user-d", "", base.Add(3*time.Hour))
	store.addLike("post-b", "user-a")
	store.addLike("post-b", "user-c")
	store.addLike("post-b", "user-d")

	svc := NewService(store)
	feed, err := svc.GetUserFeed(context.Background(), "user-a", 1, 20)
	if err != nil {
		t.Fatalf("get user feed: %v", err)
	}

	if len(feed) != 2 || feed[0].Post.ID != "post-c" || feed[1].Post.ID != "post-b" {
		t.Fatalf("feed = %v, want post-c then post-b", feed)
	}
	followed := map[string]bool{"user-b": true, "user-c": true}
	for _, post := range feed {
		if !followed[post.Post.AuthorID] {
			t.Fatalf("feed post %s authored by unfollowed %s", post.Post.ID, post.Post.AuthorID)
		}
		if post.Post.AuthorID == "user-a" {
			t.Fatalf("own post %s leaked into feed", post.Post.ID)
		}
	}
	if !equalIDs(feed[1].LikedBy, []string{"user-a", "user-c", "user-d"}) {
		t.Fatalf("post-b liked_by = %v, want every liker", feed[1].LikedBy)
	}
	if store.calls != 3 {
		t.Fatalf("store calls = %d, want 3", store.calls)
	}
}

func TestGetUserFeedEmptyWithoutFollows(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	store.addUser("user-2", "bruno")
	base := time.Date(2026, time.March, 6, 8, 0, 0, 0, time.UTC)
	store.addPost("post-2", "user-2", "", base)

	feed, err := NewService(store).GetUserFeed(context.Background(), "user-1", 1, 20)
	if err != nil {
		t.Fatalf("get user feed: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("feed len = %d, want 0 for user with no follows", len(feed))
	}
}

func TestStoreFailureFailsWholeRequest(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	store.edgesErr = errors.New("connection reset")

	if _, err := NewService(store).ListUsers(context.Background()); err == nil {
		t.Fatal("expected edge fetch failure to fail the request")
	}

	store.edgesErr = nil
	store.postsErr = errors.New("connection reset")
	if _, err := NewService(store).GetUserFeed(context.Background(), "user-1", 1, 20); err == nil {
		t.Fatal("expected post fetch failure to fail the request")
	}
}

func TestUserExistsDistinguishesMissingUser(t *testing.T) {
	store := newFakeStore()
	store.addUser("user-1", "alice")
	service := NewService(store)

	if err := service.UserExists(context.Background(), "user-1"); err != nil {
		t.Fatalf("user exists: %v", err)
	}
	if err := service.UserExists(context.Background(), "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}

	store.usersErr = errors.New("connection reset")
	if err := service.UserExists(context.Background(), "user-1"); err == nil || errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}
}

func postID(i int) string {
	return fmt.Sprintf("post-%d", i+1)
}
