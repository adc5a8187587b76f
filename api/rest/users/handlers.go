package users

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/promptdeck/server/api/rest/pagination"
	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/promptdeck/users"
	"github.com/gin-gonic/gin"
)

// GetMe godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Success 200 {object} users.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/users/me [get]
// @Security BearerAuth
func GetMe(store UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		user, err := store.FindByID(c.Request.Context(), userID)
		if stderrors.Is(err, users.ErrUserNotFound) {
			errors.NotFound(c, "user")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to fetch user", err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

func UpdateProfile(store UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req users.UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		user, err := store.UpdateProfile(c.Request.Context(), userID, req.Name)
		if stderrors.Is(err, users.ErrUserNotFound) {
			errors.NotFound(c, "user")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to update profile", err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// GetQuota godoc
// @Summary Get token quota
// @Description Returns the caller's cumulative token usage against their plan limit
// @Tags users
// @Produce json
// @Success 200 {object} QuotaResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/users/me/quota [get]
// @Security BearerAuth
func GetQuota(store UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		usage, err := store.GetUsage(c.Request.Context(), userID)
		if stderrors.Is(err, users.ErrUserNotFound) {
			errors.NotFound(c, "user")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to fetch quota", err)
			return
		}

		c.JSON(http.StatusOK, QuotaResponse{
			TokensUsed:  usage.TokensUsed,
			TokensLimit: usage.TokensLimit,
			Remaining:   usage.Remaining(),
		})
	}
}

// dry run of the execution quota check, for the editor's token counter
func CheckQuota(guard QuotaChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req QuotaCheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		decision, err := guard.Check(c.Request.Context(), userID, req.Content)
		if err != nil && !stderrors.Is(err, quota.ErrQuotaExceeded) {
			errors.InternalError(c, "failed to check quota", err)
			return
		}

		c.JSON(http.StatusOK, QuotaCheckResponse{
			EstimatedTokens: decision.EstimatedTokens,
			Remaining:       decision.Usage.Remaining(),
			Allowed:         err == nil,
		})
	}
}

func ListExecutions(history ExecutionHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		page := pagination.FromQuery(c)

		list, total, err := history.ListByUser(c.Request.Context(), userID, page.Limit, page.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list executions", err)
			return
		}

		c.JSON(http.StatusOK, ExecutionsListResponse{
			Executions: list,
			Pagination: pagination.NewMeta(page, total),
		})
	}
}

func GetExecutionSummary(history ExecutionHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		summary, err := history.SummaryByUser(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to summarize executions", err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

func requireUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		errors.Unauthorized(c, "user not authenticated")
		return "", false
	}

	return userID, true
}
