package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/connectify/social-api/internal/api/metrics"
	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

// PostHandler serves posts, the feed, likes and comments.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// Feed returns posts by the caller and the accounts they follow, newest first.
//
// @Summary      Get my feed
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of posts (default 50, max 100)"
// @Success      200    {array}   domain.PostView
// @Failure      401    {object}  errorResponse
// @Router       /posts [get]
func (h *PostHandler) Feed(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	feed, err := h.service.Feed(c.Request().Context(), p.AccountID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feed)
}

// Create publishes a post with text, an image, or both.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPostRequest  true  "Post content"
// @Success      201   {object}  domain.PostView
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.service.Create(c.Request().Context(), p.AccountID, domain.PostContent{
		Text:  req.Text,
		Image: req.Image,
	})
	if err != nil {
		return err
	}

	metrics.PostsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, post)
}

// Get returns a single post.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.PostView
// @Failure      404  {object}  errorResponse
// @Router       /posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	post, err := h.service.Get(c.Request().Context(), p.AccountID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Update edits a post. Only its author may do so.
//
// @Summary      Update a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Post ID"
// @Param        body  body      updatePostRequest  true  "Fields to change"
// @Success      200   {object}  domain.PostView
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /posts/{id} [put]
func (h *PostHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req updatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.service.Update(c.Request().Context(), p.AccountID, c.Param("id"), domain.PostUpdate{
		Text:  req.Text,
		Image: req.Image,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Delete removes a post with its comments. Only its author may do so.
//
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), p.AccountID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "post deleted"})
}

// ToggleLike likes the post, or removes the caller's like when present.
//
// @Summary      Like or unlike a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.LikeResult
// @Failure      404  {object}  errorResponse
// @Router       /posts/{id}/like [put]
func (h *PostHandler) ToggleLike(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	res, err := h.service.ToggleLike(c.Request().Context(), p.AccountID, c.Param("id"))
	if err != nil {
		return err
	}

	state := "unliked"
	if res.Liked {
		state = "liked"
	}
	metrics.LikesToggledTotal.WithLabelValues(state).Inc()
	return c.JSON(http.StatusOK, res)
}

// ListComments pages the comments of a post, newest first.
//
// @Summary      List comments
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string  true   "Post ID"
// @Param        limit      query     int     false  "Maximum number of comments"
// @Param        before     query     string  false  "created_at of the last comment already seen (RFC 3339)"
// @Param        before_id  query     string  false  "ID of the last comment already seen"
// @Success      200        {array}   domain.CommentView
// @Failure      400        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /posts/{id}/comments [get]
func (h *PostHandler) ListComments(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	before, err := queryTime(c, "before")
	if err != nil {
		return err
	}

	comments, err := h.service.ListComments(c.Request().Context(), ports.ListCommentsInput{
		PostID:   c.Param("id"),
		Before:   before,
		BeforeID: c.QueryParam("before_id"),
		Limit:    limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}

// AddComment comments on a post.
//
// @Summary      Comment on a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Post ID"
// @Param        body  body      createCommentRequest  true  "Comment"
// @Success      201   {object}  domain.CommentView
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /posts/{id}/comments [post]
func (h *PostHandler) AddComment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.service.AddComment(c.Request().Context(), p.AccountID, c.Param("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

// DeleteComment removes a comment. Its author or the post's author may do so.
//
// @Summary      Delete a comment
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string  true  "Post ID"
// @Param        commentId  path      string  true  "Comment ID"
// @Success      200        {object}  messageResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /posts/{id}/comments/{commentId} [delete]
func (h *PostHandler) DeleteComment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteComment(c.Request().Context(), p.AccountID, c.Param("id"), c.Param("commentId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "comment deleted"})
}
