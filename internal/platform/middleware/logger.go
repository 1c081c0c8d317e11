package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinscribe/clinscribe/internal/platform/auth"
)

// Logger emits one structured line per request. User identity fields are
// read after the handler chain runs, so they are populated on routes behind
// the auth middleware and absent elsewhere. Query strings are deliberately
// not logged: transcript and patient endpoints must not leak PHI into logs.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			if rid, ok := c.Get("request_id").(string); ok && rid != "" {
				evt = evt.Str("request_id", rid)
			}
			if uid, ok := c.Get(auth.ContextUserID).(string); ok && uid != "" {
				evt = evt.Str("user_id", uid)
			}
			if role, ok := c.Get(auth.ContextRole).(string); ok && role != "" {
				evt = evt.Str("role", role)
			}

			req := c.Request()
			res := c.Response()
			evt.
				Str("method", req.Method).
				Str("path", c.Path()).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
