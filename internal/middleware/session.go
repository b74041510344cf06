package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/api/internal/config"
	"storefront/api/internal/models"
	"storefront/api/internal/security"
	"storefront/api/internal/service"
)

const (
	CurrentSessionKey = "current_session"
	CurrentAdminKey   = "current_admin"
)

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (models.Session, error)
}

// AdminSession is the authoritative check behind EdgeGate. Invalid or
// expired sessions clear the cookie and send the browser to the login page.
func AdminSession(resolver SessionResolver, codec *security.CookieCodec, cfg *config.AppConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := codec.Decode(security.SessionCookieValue(c.Request))
		if err == nil {
			var session models.Session
			session, err = resolver.Resolve(c.Request.Context(), token)
			if err == nil {
				c.Set(CurrentSessionKey, session)
				if session.User != nil {
					c.Set(CurrentAdminKey, *session.User)
				}
				c.Next()
				return
			}
		}

		if errors.Is(err, service.ErrStorage) {
			log.Error().Err(err).Msg("resolve admin session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			return
		}

		security.ClearSessionCookie(c.Writer, cfg.IsProduction())
		c.Redirect(http.StatusFound, LoginRedirect(cfg.Gate.LoginPath, c.Request.URL.Path))
		c.Abort()
	}
}

func CurrentSession(c *gin.Context) (models.Session, bool) {
	val, ok := c.Get(CurrentSessionKey)
	if !ok {
		return models.Session{}, false
	}
	session, ok := val.(models.Session)
	return session, ok
}
