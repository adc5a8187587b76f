package admin

import (
	stderrors "errors"
	"net/http"
	"strings"

	"codeberg.org/promptdeck/server/api/rest/pagination"
	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/promptdeck/users"
	"github.com/gin-gonic/gin"
)

func ListUsers(store UserAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := pagination.FromQuery(c)
		search := strings.TrimSpace(c.Query("search"))

		list, total, err := store.List(c.Request.Context(), search, params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list users", err)
			return
		}

		if list == nil {
			list = []users.User{}
		}

		c.JSON(http.StatusOK, UsersListResponse{
			Users:      list,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

// GrantTokens godoc
// @Summary Grant tokens to a user
// @Description Raises the user's token limit; the grant and its reason land in the audit log
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body users.GrantTokensRequest true "Grant"
// @Success 200 {object} users.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/admin/users/{id}/tokens [post]
// @Security BearerAuth
func GrantTokens(store UserAdmin, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		var req users.GrantTokensRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		user, err := store.GrantTokens(c.Request.Context(), userID, req.Tokens)
		if stderrors.Is(err, users.ErrUserNotFound) {
			errors.NotFound(c, "user")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to grant tokens", err)
			return
		}

		recordAudit(c, log, "user.grant_tokens", "user", userID, map[string]any{
			"tokens":       req.Tokens,
			"reason":       req.Reason,
			"tokens_limit": user.TokensLimit,
		})

		c.JSON(http.StatusOK, user)
	}
}
