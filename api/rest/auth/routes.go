package auth

import (
	"context"

	"codeberg.org/promptdeck/server/internal/auth"
	"github.com/gin-gonic/gin"
)

type SessionEnder interface {
	Logout(ctx context.Context, session auth.Session) error
}

// rg is expected to carry auth
func RegisterRoutes(rg *gin.RouterGroup, sessions SessionEnder) {
	rg.POST("/auth/logout", Logout(sessions))
	rg.GET("/auth/session", GetSession())
}
