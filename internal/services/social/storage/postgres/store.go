// Package postgres provides a PostgreSQL-backed social graph storage
// implementation on pgx connection pooling.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/louisbranch/skein/internal/services/social/storage"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolationCode = "23505"

// Store persists social graph state in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pooled PostgreSQL social graph store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema applies the embedded idempotent schema statement by statement.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// SelectUsers returns every user ordered by username ascending.
func (s *Store) SelectUsers(ctx context.Context) ([]storage.User, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.pool.Query(
		ctx,
		`SELECT id, full_name, username, email, created_at
		 FROM users
		 ORDER BY username ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []storage.User
	for rows.Next() {
		var user storage.User
		if err := rows.Scan(&user.ID, &user.FullName, &user.Username, &user.Email, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("select users: %w", err)
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

// SelectUserByID returns one user or storage.ErrNotFound.
func (s *Store) SelectUserByID(ctx context.Context, id string) (storage.User, error) {
	if s == nil || s.pool == nil {
		return storage.User{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.User{}, fmt.Errorf("user id is required")
	}

	var user storage.User
	err := s.pool.QueryRow(
		ctx,
		`SELECT id, full_name, username, email, created_at
		 FROM users
		 WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.FullName, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("select user by id: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// SelectEdges returns every edge of the relation touching any id in ids.
func (s *Store) SelectEdges(ctx context.Context, relation storage.Relation, ids []string) ([]storage.Edge, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var query string
	switch relation {
	case storage.RelationFollow:
		query = `SELECT follower_id, followed_id FROM follows
		 WHERE follower_id = ANY($1) OR followed_id = ANY($1)`
	case storage.RelationLike:
		query = `SELECT user_id, post_id FROM likes
		 WHERE user_id = ANY($1) OR post_id = ANY($1)`
	case storage.RelationReply:
		query = `SELECT id, replying_to FROM posts
		 WHERE replying_to IS NOT NULL AND (id = ANY($1) OR replying_to = ANY($1))`
	default:
		return nil, fmt.Errorf("unknown relation %q", relation)
	}

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("select %s edges: %w", relation, err)
	}
	defer rows.Close()

	var edges []storage.Edge
	for rows.Next() {
		var edge storage.Edge
		if err := rows.Scan(&edge.From, &edge.To); err != nil {
			return nil, fmt.Errorf("select %s edges: %w", relation, err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s edges: %w", relation, err)
	}
	return edges, nil
}

// SelectPostsByAuthor returns the author's posts newest first within the window.
func (s *Store) SelectPostsByAuthor(ctx context.Context, authorID string, limit, offset int) ([]storage.Post, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, fmt.Errorf("author id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	rows, err := s.pool.Query(
		ctx,
		`SELECT id, author_id, text, posted_at, replying_to
		 FROM posts
		 WHERE author_id = $1
		 ORDER BY posted_at DESC
		 LIMIT $2 OFFSET $3`,
		authorID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("select posts by author: %w", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	if err != nil {
		return nil, fmt.Errorf("select posts by author: %w", err)
	}
	return posts, nil
}

// SelectFeedPosts returns posts authored by followed users newest first
// within the window.
func (s *Store) SelectFeedPosts(ctx context.Context, followerID string, limit, offset int) ([]storage.Post, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	followerID = strings.TrimSpace(followerID)
	if followerID == "" {
		return nil, fmt.Errorf("follower id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	rows, err := s.pool.Query(
		ctx,
		`SELECT p.id, p.author_id, p.text, p.posted_at, p.replying_to
		 FROM posts p
		 JOIN follows f ON f.followed_id = p.author_id
		 WHERE f.follower_id = $1
		 ORDER BY p.posted_at DESC
		 LIMIT $2 OFFSET $3`,
		followerID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("select feed posts: %w", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	if err != nil {
		return nil, fmt.Errorf("select feed posts: %w", err)
	}
	return posts, nil
}

// PutUser inserts one user. ErrAlreadyExists reports an id, username, or
// email collision.
func (s *Store) PutUser(ctx context.Context, user storage.User) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(user.ID)
	username := strings.TrimSpace(user.Username)
	email := strings.TrimSpace(user.Email)
	if id == "" {
		return fmt.Errorf("user id is required")
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO users (id, full_name, username, email, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id,
		user.FullName,
		username,
		email,
		user.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// PutPost inserts one post. An empty ReplyingTo stores NULL.
func (s *Store) PutPost(ctx context.Context, post storage.Post) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(post.ID)
	authorID := strings.TrimSpace(post.AuthorID)
	if id == "" {
		return fmt.Errorf("post id is required")
	}
	if authorID == "" {
		return fmt.Errorf("author id is required")
	}

	var replyingTo any
	if trimmed := strings.TrimSpace(post.ReplyingTo); trimmed != "" {
		replyingTo = trimmed
	}

	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO posts (id, author_id, text, posted_at, replying_to)
		 VALUES ($1, $2, $3, $4, $5)`,
		id,
		authorID,
		post.Text,
		post.PostedAt.UTC(),
		replyingTo,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put post: %w", err)
	}
	return nil
}

// PutFollow upserts one follow edge. Duplicate edges are idempotent.
func (s *Store) PutFollow(ctx context.Context, followerID, followedID string) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	followerID = strings.TrimSpace(followerID)
	followedID = strings.TrimSpace(followedID)
	if followerID == "" {
		return fmt.Errorf("follower id is required")
	}
	if followedID == "" {
		return fmt.Errorf("followed id is required")
	}
	if followerID == followedID {
		return fmt.Errorf("followed id must differ from follower id")
	}

	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO follows (follower_id, followed_id)
		 VALUES ($1, $2)
		 ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		followerID,
		followedID,
	)
	if err != nil {
		return fmt.Errorf("put follow: %w", err)
	}
	return nil
}

// PutLike upserts one like edge. Duplicate edges are idempotent.
func (s *Store) PutLike(ctx context.Context, postID, userID string) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	userID = strings.TrimSpace(userID)
	if postID == "" {
		return fmt.Errorf("post id is required")
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO likes (post_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("put like: %w", err)
	}
	return nil
}

func collectPosts(rows pgx.Rows) ([]storage.Post, error) {
	var posts []storage.Post
	for rows.Next() {
		var (
			post       storage.Post
			replyingTo *string
		)
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Text, &post.PostedAt, &replyingTo); err != nil {
			return nil, err
		}
		post.PostedAt = post.PostedAt.UTC()
		if replyingTo != nil {
			post.ReplyingTo = *replyingTo
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

var _ storage.Store = (*Store)(nil)
