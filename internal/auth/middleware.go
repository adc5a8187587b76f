package auth

import (
	"context"
	"errors"
	"strings"

	apierrors "codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/internal/logger"
	"github.com/gin-gonic/gin"
)

const sessionKey = "auth_session"

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// validates JWT tokens and adds the session to the context
func AuthMiddleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "authorization header required")
			return
		}

		session, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrRevocationCheck) {
				logger.ErrorErr(err, "rejected request, revocation store unavailable", "path", c.Request.URL.Path)
			}

			apierrors.Unauthorized(c, "invalid or expired token")
			return
		}

		setSession(c, session)
		c.Next()
	}
}

// validates JWT if present but doesn't require it
func OptionalAuthMiddleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if session, err := svc.Authenticate(c.Request.Context(), token); err == nil {
				setSession(c, session)
			}
		}

		c.Next()
	}
}

// requires AuthMiddleware first; the admin flag is re-read so demotions apply immediately
func AdminAuthMiddleware(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		isAdmin, err := checker.IsAdmin(c.Request.Context(), session.UserID)
		if err != nil {
			logger.ErrorErr(err, "failed to check admin flag", "user_id", session.UserID)
			apierrors.Forbidden(c, "admin access required")
			return
		}

		if !isAdmin {
			apierrors.Forbidden(c, "admin access required")
			return
		}

		c.Next()
	}
}

// extracts user_id from context after AuthMiddleware
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")

	return userID, userID != ""
}

func GetSession(c *gin.Context) (Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return Session{}, false
	}

	session, ok := v.(Session)

	return session, ok
}

func setSession(c *gin.Context, session *Session) {
	c.Set(sessionKey, *session)
	c.Set("user_id", session.UserID)
	c.Set("user_email", session.Email)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
