package executions

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/internal/llm"
	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/internal/runner"
	"codeberg.org/promptdeck/server/promptdeck/catalog"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
	"github.com/gin-gonic/gin"
)

// ExecutePrompt godoc
// @Summary Execute a prompt
// @Description Runs the prompt (or caller-supplied content) against a provider model and bills the tokens used
// @Tags executions
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param request body ExecuteRequest true "Execution parameters"
// @Success 200 {object} runner.Result
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/prompts/{id}/execute [post]
// @Security BearerAuth
func ExecutePrompt(executor Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		var req ExecuteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		promptID := c.Param("id")
		if promptID == "" {
			promptID = req.PromptID
		}

		if !errors.IsValidUUID(promptID) {
			errors.NotFound(c, "prompt")
			return
		}

		result, err := executor.Execute(c.Request.Context(), runner.ExecuteRequest{
			PromptID:   promptID,
			UserID:     userID,
			Provider:   req.Provider,
			Model:      req.Model,
			Content:    req.Content,
			Parameters: req.Parameters,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func respondError(c *gin.Context, err error) {
	var providerErr *llm.ProviderError

	switch {
	case stderrors.Is(err, quota.ErrQuotaExceeded):
		errors.QuotaExceeded(c, "")
	case runner.IsNotFound(err):
		errors.NotFound(c, notFoundResource(err))
	case stderrors.As(err, &providerErr):
		errors.ProviderFailed(c, providerErr)
	default:
		errors.InternalError(c, "failed to execute prompt", err)
	}
}

func notFoundResource(err error) string {
	switch {
	case stderrors.Is(err, prompts.ErrPromptNotFound):
		return "prompt"
	case stderrors.Is(err, catalog.ErrModelNotFound):
		return "model"
	default:
		return "provider"
	}
}
