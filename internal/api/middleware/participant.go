package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Participant only lets the request through when the caller is named by one of
// the given path params, e.g. a conversation between :userA and :userB.
func Participant(params ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
			}
			for _, name := range params {
				if c.Param(name) == p.AccountID {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
		}
	}
}
