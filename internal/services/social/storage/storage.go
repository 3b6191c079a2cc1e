// Package storage defines persistence contracts for social graph state.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New("record already exists")

// Relation names one directed edge kind in the social graph.
type Relation string

const (
	// RelationFollow links a follower user to a followed user.
	RelationFollow Relation = "follow"
	// RelationLike links a liking user to a liked post.
	RelationLike Relation = "like"
	// RelationReply links a reply post to its parent post.
	RelationReply Relation = "reply"
)

// User stores one account record.
type User struct {
	ID        string
	FullName  string
	Username  string
	Email     string
	CreatedAt time.Time
}

// Post stores one post record. ReplyingTo is empty for top-level posts.
type Post struct {
	ID         string
	AuthorID   string
	Text       string
	PostedAt   time.Time
	ReplyingTo string
}

// Edge stores one directed relationship row. Orientation per relation:
// follow is follower to followed, like is user to post, reply is reply
// post to parent post.
type Edge struct {
	From string
	To   string
}

// Reader is the query surface the aggregation layer consumes.
type Reader interface {
	// SelectUsers returns every user ordered by username ascending.
	SelectUsers(ctx context.Context) ([]User, error)
	// SelectUserByID returns one user or ErrNotFound.
	SelectUserByID(ctx context.Context, id string) (User, error)
	// SelectEdges returns every edge of the relation where either endpoint
	// is in ids. An empty ids slice returns no rows and issues no query.
	SelectEdges(ctx context.Context, relation Relation, ids []string) ([]Edge, error)
	// SelectPostsByAuthor returns the author's posts ordered by posted_at
	// descending within the limit/offset window.
	SelectPostsByAuthor(ctx context.Context, authorID string, limit, offset int) ([]Post, error)
	// SelectFeedPosts returns posts authored by users the follower follows,
	// ordered by posted_at descending within the limit/offset window.
	SelectFeedPosts(ctx context.Context, followerID string, limit, offset int) ([]Post, error)
}

// Writer persists graph records. Seeding and tests write; the read API
// never does.
type Writer interface {
	PutUser(ctx context.Context, user User) error
	PutPost(ctx context.Context, post Post) error
	PutFollow(ctx context.Context, followerID, followedID string) error
	PutLike(ctx context.Context, postID, userID string) error
}

// Store combines both surfaces of one backing database.
type Store interface {
	Reader
	Writer
	Close() error
}
