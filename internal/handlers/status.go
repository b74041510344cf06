package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) DebugStatus(c *gin.Context) {
	status, err := h.authService.Status(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("debug status failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "storage_unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"dbProvider": h.storageKind(),
		"counts": gin.H{
			"adminUser": status.AdminUsers,
			"session":   status.Sessions,
		},
	})
}
