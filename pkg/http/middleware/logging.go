package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request. The metrics and health paths
// are polled constantly and stay out of the log.
func RequestLogging() echo.MiddlewareFunc {
	quiet := map[string]bool{
		"/metrics": true,
		"/healthz": true,
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			if quiet[req.URL.Path] {
				return err
			}
			log.Printf("%s %s from %s -> %d in %s",
				req.Method,
				req.RequestURI,
				c.RealIP(),
				c.Response().Status,
				time.Since(start),
			)
			return err
		}
	}
}
