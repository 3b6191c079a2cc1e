package httpapi

import (
	"time"

	"github.com/louisbranch/skein/internal/services/social/query"
)

// userView is the serialized enriched-user shape. Relationship lists always
// serialize as arrays, never null.
type userView struct {
	ID         string   `json:"id"`
	FullName   string   `json:"full_name"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Follows    []string `json:"follows"`
	FollowedBy []string `json:"followed_by"`
}

// postView is the serialized enriched-post shape. PostedAt is RFC 3339 in
// UTC; ReplyingTo serializes as null for top-level posts.
type postView struct {
	ID         string   `json:"id"`
	AuthorID   string   `json:"author_id"`
	Text       string   `json:"text"`
	PostedAt   string   `json:"posted_at"`
	ReplyingTo *string  `json:"replying_to"`
	Replies    []string `json:"replies"`
	LikedBy    []string `json:"liked_by"`
}

func newUserView(user query.EnrichedUser) userView {
	return userView{
		ID:         user.User.ID,
		FullName:   user.User.FullName,
		Username:   user.User.Username,
		Email:      user.User.Email,
		Follows:    idList(user.Follows),
		FollowedBy: idList(user.FollowedBy),
	}
}

func newPostView(post query.EnrichedPost) postView {
	view := postView{
		ID:       post.Post.ID,
		AuthorID: post.Post.AuthorID,
		Text:     post.Post.Text,
		PostedAt: post.Post.PostedAt.UTC().Format(time.RFC3339),
		Replies:  idList(post.Replies),
		LikedBy:  idList(post.LikedBy),
	}
	if post.Post.ReplyingTo != "" {
		replyingTo := post.Post.ReplyingTo
		view.ReplyingTo = &replyingTo
	}
	return view
}

func idList(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
