package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

const (
	defaultCommentPage = 20
	maxCommentPage     = 100
)

type postService struct {
	accounts ports.AccountRepository
	follows  ports.FollowRepository
	posts    ports.PostRepository
	comments ports.CommentRepository
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewPostService returns a PostService implementation.
func NewPostService(
	accounts ports.AccountRepository,
	follows ports.FollowRepository,
	posts ports.PostRepository,
	comments ports.CommentRepository,
	notifier ports.Notifier,
	log zerolog.Logger,
) ports.PostService {
	return &postService{
		accounts: accounts,
		follows:  follows,
		posts:    posts,
		comments: comments,
		notifier: notifier,
		log:      log,
	}
}

func (s *postService) Create(ctx context.Context, actorID string, content domain.PostContent) (*domain.PostView, error) {
	content, err := content.Normalize()
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, actorID); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.posts.Create(ctx, &domain.Post{
		AuthorID:  actorID,
		Text:      content.Text,
		Image:     content.Image,
		Likes:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return s.view(ctx, actorID, created)
}

func (s *postService) Get(ctx context.Context, actorID, postID string) (*domain.PostView, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return s.view(ctx, actorID, post)
}

func (s *postService) Update(ctx context.Context, actorID, postID string, update domain.PostUpdate) (*domain.PostView, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if post.AuthorID != actorID {
		return nil, fmt.Errorf("update post: %w", domain.ErrForbidden)
	}

	content := domain.PostContent{Text: post.Text, Image: post.Image}
	if update.Text != nil {
		content.Text = *update.Text
	}
	if update.Image != nil {
		content.Image = *update.Image
	}
	content, err = content.Normalize()
	if err != nil {
		return nil, err
	}

	updated, err := s.posts.UpdateContent(ctx, postID, content, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.view(ctx, actorID, updated)
}

// Delete removes a post and its comments. Only the author may delete.
func (s *postService) Delete(ctx context.Context, actorID, postID string) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if post.AuthorID != actorID {
		return fmt.Errorf("delete post: %w", domain.ErrForbidden)
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if err := s.comments.DeleteByPosts(ctx, []string{postID}); err != nil {
		return fmt.Errorf("delete post: cascade comments: %w", err)
	}
	return nil
}

// Feed lists posts by the accounts actorID follows, newest first. The actor's
// own posts are never included and an empty following set yields an empty feed.
func (s *postService) Feed(ctx context.Context, actorID string, limit int) ([]domain.PostView, error) {
	limit = domain.ClampFeedLimit(limit)

	following, err := s.follows.FollowingIDs(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	if len(following) == 0 {
		return []domain.PostView{}, nil
	}

	posts, err := s.posts.FindByAuthors(ctx, following, limit)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	allowed := make(map[string]struct{}, len(following))
	for _, id := range following {
		allowed[id] = struct{}{}
	}
	filtered := posts[:0]
	for _, p := range posts {
		if _, ok := allowed[p.AuthorID]; ok && p.AuthorID != actorID {
			filtered = append(filtered, p)
		}
	}

	sortNewestFirst(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return s.views(ctx, actorID, filtered)
}

func (s *postService) ByAuthor(ctx context.Context, actorID, authorID string, limit int) ([]domain.PostView, error) {
	if _, err := s.accounts.FindByID(ctx, authorID); err != nil {
		return nil, fmt.Errorf("posts by author: %w", err)
	}
	posts, err := s.posts.FindByAuthors(ctx, []string{authorID}, domain.ClampFeedLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("posts by author: %w", err)
	}
	sortNewestFirst(posts)
	return s.views(ctx, actorID, posts)
}

// ToggleLike flips the actor's membership in the post's like set.
func (s *postService) ToggleLike(ctx context.Context, actorID, postID string) (*domain.LikeResult, error) {
	post, liked, err := s.posts.ToggleLike(ctx, postID, actorID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	if liked && post.AuthorID != actorID {
		s.notifier.Notify(domain.Notification{
			RecipientID: post.AuthorID,
			ActorID:     actorID,
			Kind:        domain.NotifyLike,
			PostID:      post.ID,
			CreatedAt:   time.Now().UTC(),
		})
	}

	likes := post.Likes
	if likes == nil {
		likes = []string{}
	}
	return &domain.LikeResult{Liked: liked, Likes: likes, LikeCount: len(likes)}, nil
}

func (s *postService) AddComment(ctx context.Context, actorID, postID, text string) (*domain.CommentView, error) {
	text, err := domain.NormalizeCommentText(text)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	author, err := s.accounts.FindByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	created, err := s.comments.Create(ctx, &domain.Comment{
		PostID:    post.ID,
		AuthorID:  actorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	if err := s.posts.IncrementComments(ctx, post.ID, 1); err != nil {
		s.log.Warn().Err(err).Str("post_id", post.ID).Msg("failed to bump comment count")
	}

	if post.AuthorID != actorID {
		s.notifier.Notify(domain.Notification{
			RecipientID: post.AuthorID,
			ActorID:     actorID,
			Kind:        domain.NotifyComment,
			PostID:      post.ID,
			Message:     text,
			CreatedAt:   created.CreatedAt,
		})
	}

	view := commentView(created, author.Summary())
	return &view, nil
}

func (s *postService) ListComments(ctx context.Context, in ports.ListCommentsInput) ([]domain.CommentView, error) {
	if _, err := s.posts.FindByID(ctx, in.PostID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultCommentPage
	}
	if limit > maxCommentPage {
		limit = maxCommentPage
	}

	comments, err := s.comments.ListByPost(ctx, in.PostID, ports.CommentCursor{Before: in.Before, BeforeID: in.BeforeID}, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := summaries(ctx, s.accounts, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	out := make([]domain.CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView(c, authors[c.AuthorID]))
	}
	return out, nil
}

// DeleteComment lets the comment author or the post author remove a comment.
// A comment that is already gone counts as deleted.
func (s *postService) DeleteComment(ctx context.Context, actorID, postID, commentID string) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if errors.Is(err, domain.ErrCommentNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if comment.PostID != postID {
		return fmt.Errorf("delete comment: %w", domain.ErrCommentNotFound)
	}

	postAuthor := ""
	post, err := s.posts.FindByID(ctx, postID)
	switch {
	case err == nil:
		postAuthor = post.AuthorID
	case !errors.Is(err, domain.ErrPostNotFound):
		return fmt.Errorf("delete comment: %w", err)
	}

	if actorID != comment.AuthorID && actorID != postAuthor {
		return fmt.Errorf("delete comment: %w", domain.ErrForbidden)
	}

	removed, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if removed && post != nil {
		if err := s.posts.IncrementComments(ctx, postID, -1); err != nil {
			s.log.Warn().Err(err).Str("post_id", postID).Msg("failed to decrement comment count")
		}
	}
	return nil
}

func (s *postService) view(ctx context.Context, viewerID string, post *domain.Post) (*domain.PostView, error) {
	views, err := s.views(ctx, viewerID, []*domain.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views resolves authors of the posts and of their preview comments in one
// account lookup.
func (s *postService) views(ctx context.Context, viewerID string, posts []*domain.Post) ([]domain.PostView, error) {
	out := make([]domain.PostView, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	postIDs := make([]string, 0, len(posts))
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.AuthorID)
	}

	recent, err := s.comments.Recent(ctx, postIDs, domain.CommentPreviewSize)
	if err != nil {
		return nil, fmt.Errorf("load comment previews: %w", err)
	}
	for _, list := range recent {
		for _, c := range list {
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}

	authors, err := summaries(ctx, s.accounts, authorIDs)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		likes := p.Likes
		if likes == nil {
			likes = []string{}
		}
		previews := make([]domain.CommentView, 0, len(recent[p.ID]))
		for _, c := range recent[p.ID] {
			previews = append(previews, commentView(c, authors[c.AuthorID]))
		}
		out = append(out, domain.PostView{
			ID:             p.ID,
			Author:         authors[p.AuthorID],
			Text:           p.Text,
			Image:          p.Image,
			Likes:          likes,
			LikeCount:      len(likes),
			LikedByMe:      p.LikedBy(viewerID),
			CommentCount:   p.CommentCount,
			RecentComments: previews,
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		})
	}
	return out, nil
}

func commentView(c *domain.Comment, author domain.AccountSummary) domain.CommentView {
	return domain.CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    author,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

// sortNewestFirst orders by creation time descending; equal timestamps keep
// their incoming (insertion) order.
func sortNewestFirst(posts []*domain.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
