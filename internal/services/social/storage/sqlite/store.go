// Package sqlite provides a SQLite-backed social graph storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/skein/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/skein/internal/services/social/storage"
	"github.com/louisbranch/skein/internal/services/social/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists social graph state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite social graph store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SelectUsers returns every user ordered by username ascending.
func (s *Store) SelectUsers(ctx context.Context) ([]storage.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
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
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("select users: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

// SelectUserByID returns one user or storage.ErrNotFound.
func (s *Store) SelectUserByID(ctx context.Context, id string) (storage.User, error) {
	if err := ctx.Err(); err != nil {
		return storage.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.User{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.User{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, full_name, username, email, created_at
		 FROM users
		 WHERE id = ?`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("select user by id: %w", err)
	}
	return user, nil
}

// SelectEdges returns every edge of the relation touching any id in ids.
func (s *Store) SelectEdges(ctx context.Context, relation storage.Relation, ids []string) ([]storage.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var query string
	switch relation {
	case storage.RelationFollow:
		query = `SELECT follower_id, followed_id FROM follows
		 WHERE follower_id IN (%[1]s) OR followed_id IN (%[1]s)`
	case storage.RelationLike:
		query = `SELECT user_id, post_id FROM likes
		 WHERE user_id IN (%[1]s) OR post_id IN (%[1]s)`
	case storage.RelationReply:
		query = `SELECT id, replying_to FROM posts
		 WHERE replying_to IS NOT NULL AND (id IN (%[1]s) OR replying_to IN (%[1]s))`
	default:
		return nil, fmt.Errorf("unknown relation %q", relation)
	}

	args := make([]any, 0, len(ids)*2)
	for _, id := range ids {
		args = append(args, id)
	}
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.sqlDB.QueryContext(ctx, fmt.Sprintf(query, placeholders(len(ids))), args...)
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
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

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, author_id, text, posted_at, replying_to
		 FROM posts
		 WHERE author_id = ?
		 ORDER BY posted_at DESC
		 LIMIT ? OFFSET ?`,
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

// SelectFeedPosts returns posts authored by followed users newest first within
// the window. The join traverses the follow relation, so the follower's own
// posts never qualify.
func (s *Store) SelectFeedPosts(ctx context.Context, followerID string, limit, offset int) ([]storage.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
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

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT p.id, p.author_id, p.text, p.posted_at, p.replying_to
		 FROM posts p
		 JOIN follows f ON f.followed_id = p.author_id
		 WHERE f.follower_id = ?
		 ORDER BY p.posted_at DESC
		 LIMIT ? OFFSET ?`,
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
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
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

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (id, full_name, username, email, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id,
		user.FullName,
		username,
		email,
		toMillis(user.CreatedAt),
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
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
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

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO posts (id, author_id, text, posted_at, replying_to)
		 VALUES (?, ?, ?, ?, ?)`,
		id,
		authorID,
		post.Text,
		toMillis(post.PostedAt),
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
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
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

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO follows (follower_id, followed_id)
		 VALUES (?, ?)
		 ON CONFLICT(follower_id, followed_id) DO NOTHING`,
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
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
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

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO likes (post_id, user_id)
		 VALUES (?, ?)
		 ON CONFLICT(post_id, user_id) DO NOTHING`,
		postID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("put like: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (storage.User, error) {
	var user storage.User
	var createdAt int64
	if err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Username,
		&user.Email,
		&createdAt,
	); err != nil {
		return storage.User{}, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func collectPosts(rows *sql.Rows) ([]storage.Post, error) {
	var posts []storage.Post
	for rows.Next() {
		var (
			post       storage.Post
			postedAt   int64
			replyingTo sql.NullString
		)
		if err := rows.Scan(
			&post.ID,
			&post.AuthorID,
			&post.Text,
			&postedAt,
			&replyingTo,
		); err != nil {
			return nil, err
		}
		post.PostedAt = fromMillis(postedAt)
		post.ReplyingTo = replyingTo.String
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
