package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/models"
	"storefront/api/internal/security"
	"storefront/api/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	session, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
		Client:   clientMeta(c),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	value, err := h.codec.Encode(session.Token, session.ExpiresAt)
	if err != nil {
		h.writeError(c, err)
		return
	}
	security.WriteSessionCookie(c.Writer, value, session.ExpiresAt, h.secureCookies())

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout always answers 200 and clears the cookie.
func (h HandlerSet) Logout(c *gin.Context) {
	token, _ := h.codec.Decode(security.SessionCookieValue(c.Request))
	h.authService.Logout(c.Request.Context(), token, clientMeta(c))

	security.ClearSessionCookie(c.Writer, h.secureCookies())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) Me(c *gin.Context) {
	session, ok := h.requireSession(c, true)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": toUserResponse(session),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	session, ok := h.requireSession(c, false)
	if !ok {
		return
	}

	var req changePasswordRequest
	// a malformed body is reported like a missing field
	_ = c.ShouldBindJSON(&req)

	err := h.authService.ChangePassword(c.Request.Context(), session, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Client:          clientMeta(c),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_current_password"})
			return
		}
		h.writeError(c, err)
		return
	}

	// every session of the account is gone, this one included
	security.ClearSessionCookie(c.Writer, h.secureCookies())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// requireSession resolves the cookie against the session store, answering
// 401 itself when there is no valid session.
func (h HandlerSet) requireSession(c *gin.Context, clearOnFailure bool) (models.Session, bool) {
	value := security.SessionCookieValue(c.Request)
	if value == "" {
		if clearOnFailure {
			security.ClearSessionCookie(c.Writer, h.secureCookies())
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return models.Session{}, false
	}

	session, err := h.resolveCookie(c, value)
	if err != nil {
		if errors.Is(err, service.ErrSessionInvalid) {
			if clearOnFailure {
				security.ClearSessionCookie(c.Writer, h.secureCookies())
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session_invalid"})
			return models.Session{}, false
		}
		h.writeError(c, err)
		return models.Session{}, false
	}
	return session, true
}

func (h HandlerSet) resolveCookie(c *gin.Context, value string) (models.Session, error) {
	token, err := h.codec.Decode(value)
	if err != nil {
		return models.Session{}, service.ErrSessionInvalid
	}
	return h.authService.Sessions().Resolve(c.Request.Context(), token)
}

func toUserResponse(session models.Session) userResponse {
	resp := userResponse{ID: session.UserID}
	if session.User != nil {
		resp.Username = session.User.Username
	}
	return resp
}
