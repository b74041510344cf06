package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/middleware"
)

func (h HandlerSet) AdminDashboard(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	status, err := h.authService.Status(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      toUserResponse(session),
		"expiresAt": session.ExpiresAt,
		"counts": gin.H{
			"adminUsers": status.AdminUsers,
			"sessions":   status.Sessions,
		},
	})
}

// AdminPage answers for any page below the admin prefix once the session
// is confirmed. Rendering belongs to the frontend.
func (h HandlerSet) AdminPage(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page": c.Param("page"),
		"user": toUserResponse(session),
	})
}
