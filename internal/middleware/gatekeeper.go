package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/config"
	"storefront/api/internal/security"
)

// EdgeGate runs ahead of every route. Requests under the protected prefix
// without a session cookie are redirected to the login page with the
// original path in "from". It never reads the session store: a forged or
// expired cookie passes here and is rejected by AdminSession. When the
// codec signs cookies, the signature and expiry are checked too.
func EdgeGate(cfg config.GateConfig, codec *security.CookieCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !IsProtectedPath(path, cfg.ProtectedPrefix) {
			c.Next()
			return
		}

		value := security.SessionCookieValue(c.Request)
		if value == "" || !codec.Verify(value) {
			c.Redirect(http.StatusFound, LoginRedirect(cfg.LoginPath, path))
			c.Abort()
			return
		}

		c.Next()
	}
}

// IsProtectedPath matches the prefix itself and anything below it, but not
// siblings sharing the prefix ("/administrator" is not under "/admin").
func IsProtectedPath(path string, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func LoginRedirect(loginPath string, from string) string {
	target := url.URL{
		Path:     loginPath,
		RawQuery: url.Values{"from": []string{from}}.Encode(),
	}
	return target.String()
}
