package auth

import (
	"net/http"

	"codeberg.org/promptdeck/server/internal/auth"
	"codeberg.org/promptdeck/server/internal/errors"
	"github.com/gin-gonic/gin"
)

// Logout godoc
// @Summary Log out
// @Description Revokes the bearer token used for this request; other sessions stay valid
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/auth/logout [post]
// @Security BearerAuth
func Logout(sessions SessionEnder) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := auth.GetSession(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		if err := sessions.Logout(c.Request.Context(), session); err != nil {
			errors.InternalError(c, "failed to log out", err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
	}
}

// returns the validated session behind the bearer token
func GetSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := auth.GetSession(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		c.JSON(http.StatusOK, SessionResponse{
			UserID:    session.UserID,
			Email:     session.Email,
			IsAdmin:   session.IsAdmin,
			ExpiresAt: session.ExpiresAt,
		})
	}
}
