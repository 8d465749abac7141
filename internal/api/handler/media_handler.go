package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/connectify/social-api/internal/core/ports"
)

// MediaHandler accepts image uploads for posts.
type MediaHandler struct {
	service ports.MediaService
}

func NewMediaHandler(service ports.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// Upload stores an image and returns the URL to reference it by.
//
// @Summary      Upload an image
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Image file"
// @Success      201   {object}  ports.UploadResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /media [post]
func (h *MediaHandler) Upload(c echo.Context) error {
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

	res, err := h.service.Upload(c.Request().Context(), ports.UploadInput{
		OwnerID:     p.AccountID,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}
