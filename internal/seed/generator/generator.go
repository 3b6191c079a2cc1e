// Package generator produces deterministic social graph fixtures for
// seeding a development database.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/louisbranch/skein/internal/services/social/storage"
	"github.com/louisbranch/skein/internal/services/social/storage/sqlite"
)

// epoch anchors generated timestamps so the same seed always yields the
// same fixture stream regardless of wall clock.
var epoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// Config holds configuration for the generator.
type Config struct {
	DBPath  string
	Preset  Preset
	Seed    int64
	Users   int // Override preset's user count (0 = use preset default)
	Verbose bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBPath: "data/social.db",
		Preset: PresetDemo,
	}
}

// Graph is one generated fixture set, ordered so that every reference
// points at an earlier element (reply posts come after their parents).
type Graph struct {
	Users   []storage.User
	Posts   []storage.Post
	Follows []storage.Edge
	Likes   []storage.Edge
}

// Generator builds social graph fixtures and writes them through the
// storage layer.
type Generator struct {
	config Config
	rng    *rand.Rand
	names  *namePool
	store  storage.Store
}

// New creates a Generator writing to the SQLite database at cfg.DBPath.
func New(cfg Config) (*Generator, error) {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open seed store: %w", err)
	}
	rng := NewSeededRNG(cfg.Seed, cfg.Verbose)
	return &Generator{
		config: cfg,
		rng:    rng,
		names:  newNamePool(rng),
		store:  store,
	}, nil
}

// Close releases resources held by the generator.
func (g *Generator) Close() error {
	if g.store != nil {
		return g.store.Close()
	}
	return nil
}

// Run generates one fixture graph for the configured preset and writes it.
func (g *Generator) Run(ctx context.Context) error {
	graph := g.BuildGraph()

	if g.config.Verbose {
		fmt.Fprintf(os.Stderr, "Running preset %q: %d users, %d posts, %d follows, %d likes\n",
			g.config.Preset, len(graph.Users), len(graph.Posts), len(graph.Follows), len(graph.Likes))
	}

	if err := g.write(ctx, graph); err != nil {
		return err
	}

	if g.config.Verbose {
		fmt.Fprintf(os.Stderr, "Generation complete\n")
	}
	return nil
}

// BuildGraph generates the fixture graph without touching storage. The
// result depends only on the rng seed and the preset parameters.
func (g *Generator) BuildGraph() Graph {
	preset := GetPresetConfig(g.config.Preset)
	userCount := preset.Users
	if g.config.Users > 0 {
		userCount = g.config.Users
	}

	var graph Graph
	for i := 0; i < userCount; i++ {
		fullName, username := g.names.nextPerson()
		graph.Users = append(graph.Users, storage.User{
			ID:        newID(g.rng),
			FullName:  fullName,
			Username:  username,
			Email:     username + "@example.com",
			CreatedAt: epoch.Add(time.Duration(i) * time.Hour),
		})
	}

	for _, follower := range graph.Users {
		for _, followed := range graph.Users {
			if follower.ID == followed.ID {
				continue
			}
			if g.rng.Intn(100) < preset.FollowPercent {
				graph.Follows = append(graph.Follows, storage.Edge{From: follower.ID, To: followed.ID})
			}
		}
	}

	for _, author := range graph.Users {
		count := preset.PostsMin
		if spread := preset.PostsMax - preset.PostsMin; spread > 0 {
			count += g.rng.Intn(spread + 1)
		}
		for i := 0; i < count; i++ {
			post := storage.Post{
				ID:       newID(g.rng),
				AuthorID: author.ID,
				Text:     g.names.postText(),
				PostedAt: epoch.AddDate(0, 1, 0).Add(time.Duration(g.rng.Intn(30*24*60)) * time.Minute),
			}
			if len(graph.Posts) > 0 && g.rng.Intn(100) < preset.ReplyPercent {
				parent := graph.Posts[g.rng.Intn(len(graph.Posts))]
				post.ReplyingTo = parent.ID
				post.Text = g.names.replyText()
				if !post.PostedAt.After(parent.PostedAt) {
					post.PostedAt = parent.PostedAt.Add(time.Duration(1+g.rng.Intn(120)) * time.Minute)
				}
			}
			graph.Posts = append(graph.Posts, post)
		}
	}

	for _, post := range graph.Posts {
		for _, user := range graph.Users {
			if user.ID == post.AuthorID {
				continue
			}
			if g.rng.Intn(100) < preset.LikePercent {
				graph.Likes = append(graph.Likes, storage.Edge{From: user.ID, To: post.ID})
			}
		}
	}

	return graph
}

func (g *Generator) write(ctx context.Context, graph Graph) error {
	for _, user := range graph.Users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.store.PutUser(ctx, user); err != nil {
			return fmt.Errorf("put user %s: %w", user.Username, err)
		}
	}
	for _, post := range graph.Posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.store.PutPost(ctx, post); err != nil {
			return fmt.Errorf("put post %s: %w", post.ID, err)
		}
	}
	for _, edge := range graph.Follows {
		if err := g.store.PutFollow(ctx, edge.From, edge.To); err != nil {
			return fmt.Errorf("put follow %s -> %s: %w", edge.From, edge.To, err)
		}
	}
	for _, edge := range graph.Likes {
		if err := g.store.PutLike(ctx, edge.To, edge.From); err != nil {
			return fmt.Errorf("put like %s -> %s: %w", edge.From, edge.To, err)
		}
	}
	return nil
}
