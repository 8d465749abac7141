package domain

import (
	"strings"
	"time"
)

const (
	DefaultFeedLimit   = 50
	MaxFeedLimit       = 100
	CommentPreviewSize = 3
)

// Post is an authored piece of content. Likes is a set of account IDs;
// comments live in their own collection and only their count is cached here.
type Post struct {
	ID           string
	AuthorID     string
	Text         string
	Image        string
	Likes        []string
	CommentCount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LikedBy reports whether accountID is in the like set.
func (p *Post) LikedBy(accountID string) bool {
	for _, id := range p.Likes {
		if id == accountID {
			return true
		}
	}
	return false
}

// PostContent is the author-supplied body of a post.
type PostContent struct {
	Text  string
	Image string
}

// Normalize trims the content and checks that at least one field is present.
func (c PostContent) Normalize() (PostContent, error) {
	c.Text = strings.TrimSpace(c.Text)
	c.Image = strings.TrimSpace(c.Image)
	if c.Text == "" && c.Image == "" {
		return c, NewValidationError("post", "requires text or image")
	}
	return c, nil
}

// PostUpdate carries optional edits. Nil means unchanged.
type PostUpdate struct {
	Text  *string
	Image *string
}

// Comment belongs to a post and is stored separately from it.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}

// NormalizeCommentText trims text and rejects empty input.
func NormalizeCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", NewValidationError("text", "must not be empty")
	}
	return text, nil
}

// LikeResult is returned by a like toggle.
type LikeResult struct {
	Liked     bool     `json:"liked"`
	Likes     []string `json:"likes"`
	LikeCount int      `json:"like_count"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ID        string         `json:"id"`
	PostID    string         `json:"post_id"`
	Author    AccountSummary `json:"author"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
}

// PostView is a post with author and comment authors resolved for a viewer.
type PostView struct {
	ID             string         `json:"id"`
	Author         AccountSummary `json:"author"`
	Text           string         `json:"text,omitempty"`
	Image          string         `json:"image,omitempty"`
	Likes          []string       `json:"likes"`
	LikeCount      int            `json:"like_count"`
	LikedByMe      bool           `json:"liked_by_me"`
	CommentCount   int64          `json:"comment_count"`
	RecentComments []CommentView  `json:"recent_comments"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ClampFeedLimit applies the default and the upper bound to a requested limit.
func ClampFeedLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}
