package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/api/internal/models"
	"storefront/api/internal/security"
)

var quietPaths = map[string]struct{}{
	"/api/healthz": {},
	"/api/readyz":  {},
}

// Logger writes one line per request. The session cookie value is never
// logged, only whether one was sent and which admin it resolved to.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		_, cookieErr := c.Request.Cookie(security.SessionCookieName)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			if _, quiet := quietPaths[c.Request.URL.Path]; quiet {
				event = log.Debug()
			}
		}

		event = event.
			Str("request_id", c.GetString(requestIDHeader)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Bool("session_cookie", cookieErr == nil)
		if admin, ok := c.Get(CurrentAdminKey); ok {
			if user, ok := admin.(models.AdminUser); ok {
				event = event.Str("admin", user.Username)
			}
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("http request")
	}
}
