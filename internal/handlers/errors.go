package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/service"
)

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrCredentialsRequired, http.StatusBadRequest, "credentials_required"},
	{service.ErrPasswordsRequired, http.StatusBadRequest, "passwords_required"},
	{service.ErrPasswordTooShort, http.StatusBadRequest, "password_too_short"},
	{service.ErrValidation, http.StatusBadRequest, "invalid_request"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrSessionInvalid, http.StatusUnauthorized, "session_invalid"},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests, "too_many_attempts"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
}

// writeError maps the service taxonomy onto a status and error code.
// Anything unrecognised, storage failures included, is logged and
// reported as 500.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			c.JSON(entry.status, gin.H{"error": entry.code})
			return
		}
	}

	h.log.Error().
		Err(err).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
}
