package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/connectify/social-api/internal/core/domain"
)

// MapError translates a domain error into its HTTP status and the message that
// is safe to show a client. known is false for errors that are not part of the
// domain contract; those map to a generic 500.
func MapError(err error) (code int, msg string, known bool) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error(), true
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, fromSentinel(err, domain.ErrValidation), true
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusBadRequest, fromSentinel(err, domain.ErrInvalidOperation), true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, domain.ErrInvalidCredentials.Error(), true
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domain.ErrUnauthorized.Error(), true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error(), true
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, domain.ErrAccountExists.Error(), true
	case domain.IsNotFound(err):
		return http.StatusNotFound, notFoundMessage(err), true
	}
	return http.StatusInternalServerError, "internal server error", false
}

// fromSentinel drops the "op: " prefixes services wrap with, keeping the
// sentinel text and any detail appended after it.
func fromSentinel(err, sentinel error) string {
	s := err.Error()
	if i := strings.Index(s, sentinel.Error()); i >= 0 {
		return s[i:]
	}
	return sentinel.Error()
}

func notFoundMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrAccountNotFound,
		domain.ErrPostNotFound,
		domain.ErrCommentNotFound,
		domain.ErrMessageNotFound,
		domain.ErrNotificationNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "not found"
}
