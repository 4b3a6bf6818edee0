package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORS returns middleware for a read-only API: it stamps the allow headers
// on requests from permitted origins and short-circuits preflight. Only GET
// is ever allowed, the API has no mutating endpoints.
func CORS(allowOrigins []string) echo.MiddlewareFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	methods := strings.Join([]string{http.MethodGet, http.MethodOptions}, ", ")
	headers := strings.Join([]string{
		echo.HeaderOrigin,
		echo.HeaderContentType,
		echo.HeaderAccept,
	}, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			_, ok := allowed[origin]

			if origin != "" && (allowAll || ok) {
				h := c.Response().Header()
				if allowAll {
					h.Set(echo.HeaderAccessControlAllowOrigin, "*")
				} else {
					h.Set(echo.HeaderAccessControlAllowOrigin, origin)
				}
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
