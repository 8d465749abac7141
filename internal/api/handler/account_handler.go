package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/connectify/social-api/internal/api/metrics"
	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

// AccountHandler serves profiles, search and the follow graph.
type AccountHandler struct {
	accounts ports.AccountService
	social   ports.SocialService
	posts    ports.PostService
}

func NewAccountHandler(accounts ports.AccountService, social ports.SocialService, posts ports.PostService) *AccountHandler {
	return &AccountHandler{accounts: accounts, social: social, posts: posts}
}

// Search finds accounts by username or name.
//
// @Summary      Search accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q    query     string  true  "Case-insensitive substring"
// @Success      200  {array}   domain.AccountSummary
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/search [get]
func (h *AccountHandler) Search(c echo.Context) error {
	results, err := h.accounts.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}

// Profile returns an account's public profile as seen by the caller. The id
// "me" resolves to the caller.
//
// @Summary      Get a profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if id == "me" {
		id = p.AccountID
	}

	profile, err := h.accounts.Profile(c.Request().Context(), p.AccountID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateMe edits the caller's own profile.
//
// @Summary      Update my profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.Account
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/me [put]
func (h *AccountHandler) UpdateMe(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.UpdateProfile(c.Request().Context(), p.AccountID, domain.ProfileUpdate{
		Name:   req.Name,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// DeleteMe removes the caller's account and everything attached to it.
//
// @Summary      Delete my account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/me [delete]
func (h *AccountHandler) DeleteMe(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.accounts.Delete(c.Request().Context(), p.AccountID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "account deleted"})
}

// UploadAvatar replaces the caller's avatar with a square JPEG of the upload.
//
// @Summary      Upload my avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Image file"
// @Success      200   {object}  domain.Account
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/me/avatar [post]
func (h *AccountHandler) UploadAvatar(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file could not be read")
	}
	defer f.Close()

	account, err := h.accounts.UploadAvatar(c.Request().Context(), p.AccountID, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Posts lists the posts written by an account, newest first.
//
// @Summary      List an account's posts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Account ID"
// @Param        limit  query     int     false  "Maximum number of posts (default 50, max 100)"
// @Success      200    {array}   domain.PostView
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /users/{id}/posts [get]
func (h *AccountHandler) Posts(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	posts, err := h.posts.ByAuthor(c.Request().Context(), p.AccountID, c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// Followers lists the accounts following an account.
//
// @Summary      List followers
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {array}   domain.AccountSummary
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/followers [get]
func (h *AccountHandler) Followers(c echo.Context) error {
	list, err := h.social.Followers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Following lists the accounts an account follows.
//
// @Summary      List followed accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {array}   domain.AccountSummary
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/following [get]
func (h *AccountHandler) Following(c echo.Context) error {
	list, err := h.social.Following(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// ToggleFollow follows the account, or unfollows it when already followed.
//
// @Summary      Follow or unfollow an account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/follow [put]
func (h *AccountHandler) ToggleFollow(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	state, err := h.social.ToggleFollow(c.Request().Context(), p.AccountID, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.FollowsToggledTotal.WithLabelValues(string(state)).Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: string(state)})
}
