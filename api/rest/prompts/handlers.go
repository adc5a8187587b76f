package prompts

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/promptdeck/server/api/rest/pagination"
	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/internal/improver"
	"codeberg.org/promptdeck/server/internal/llm"
	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
	"github.com/gin-gonic/gin"
)

// ListPrompts godoc
// @Summary List prompts
// @Description Lists system prompts plus the caller's own, optionally filtered by language
// @Tags prompts
// @Produce json
// @Param language query string false "es or en"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} PromptsListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/prompts [get]
// @Security BearerAuth
func ListPrompts(store PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		page := pagination.FromQuery(c)

		language := c.Query("language")
		if language != "" && language != prompts.LanguageSpanish && language != prompts.LanguageEnglish {
			errors.BadRequest(c, "language must be es or en", nil)
			return
		}

		list, total, err := store.ListVisible(c.Request.Context(), userID, language, page.Limit, page.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list prompts", err)
			return
		}

		c.JSON(http.StatusOK, PromptsListResponse{
			Prompts:    list,
			Pagination: pagination.NewMeta(page, total),
		})
	}
}

func CreatePrompt(store PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		var req prompts.CreatePromptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		prompt, err := store.Create(c.Request.Context(), userID, req)
		if err != nil {
			errors.InternalError(c, "failed to create prompt", err)
			return
		}

		c.JSON(http.StatusCreated, prompt)
	}
}

// GetPrompt godoc
// @Summary Get a prompt
// @Tags prompts
// @Produce json
// @Param id path string true "Prompt ID"
// @Success 200 {object} prompts.Prompt
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/prompts/{id} [get]
// @Security BearerAuth
func GetPrompt(store PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		prompt, ok := loadVisible(c, store)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, prompt)
	}
}

func GetStats(store PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		prompt, ok := loadVisible(c, store)
		if !ok {
			return
		}

		stats, err := store.GetStats(c.Request.Context(), prompt.ID)
		if err != nil {
			errors.InternalError(c, "failed to get prompt stats", err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func ListVersions(store PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		prompt, ok := loadVisible(c, store)
		if !ok {
			return
		}

		versions, err := store.ListVersions(c.Request.Context(), prompt.ID)
		if err != nil {
			errors.InternalError(c, "failed to list prompt versions", err)
			return
		}

		c.JSON(http.StatusOK, VersionsResponse{Versions: versions})
	}
}

// ToggleFavorite godoc
// @Summary Toggle favorite
// @Description Flips the caller's favorite flag and returns the stored value
// @Tags prompts
// @Produce json
// @Param id path string true "Prompt ID"
// @Success 200 {object} FavoriteResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/prompts/{id}/favorite [post]
// @Security BearerAuth
func ToggleFavorite(store PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		prompt, ok := loadVisible(c, store)
		if !ok {
			return
		}

		favorite, err := store.ToggleFavorite(c.Request.Context(), prompt.ID, userID)
		if err != nil {
			errors.InternalError(c, "failed to toggle favorite", err)
			return
		}

		c.JSON(http.StatusOK, FavoriteResponse{PromptID: prompt.ID, IsFavorite: favorite})
	}
}

// counts a visit or copy; failures are logged and do not bother the client
func RecordStat(store PromptStore, stat prompts.Stat) gin.HandlerFunc {
	return func(c *gin.Context) {
		prompt, ok := loadVisible(c, store)
		if !ok {
			return
		}

		if err := store.IncrementStat(c.Request.Context(), prompt.ID, stat); err != nil {
			logger.ErrorErr(err, "failed to record prompt stat",
				"prompt_id", prompt.ID,
				"stat", string(stat),
			)
		}

		c.Status(http.StatusNoContent)
	}
}

// ImprovePrompt godoc
// @Summary Improve a prompt with AI
// @Description Rewrites the prompt for clarity and stores the result as a new version
// @Tags prompts
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param request body ImproveRequest false "Target language (defaults to the prompt's)"
// @Success 200 {object} improver.Rewrite
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/prompts/{id}/improve [post]
// @Security BearerAuth
func ImprovePrompt(rewriter Rewriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, promptID, ok := rewriteTarget(c)
		if !ok {
			return
		}

		var req ImproveRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				errors.ValidationError(c, err)
				return
			}
		}

		rewrite, err := rewriter.Improve(c.Request.Context(), promptID, userID, req.Language)
		if err != nil {
			respondRewriteError(c, err)
			return
		}

		c.JSON(http.StatusOK, rewrite)
	}
}

// TranslatePrompt godoc
// @Summary Translate a prompt with AI
// @Tags prompts
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param request body TranslateRequest true "Target language"
// @Success 200 {object} improver.Rewrite
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/prompts/{id}/translate [post]
// @Security BearerAuth
func TranslatePrompt(rewriter Rewriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, promptID, ok := rewriteTarget(c)
		if !ok {
			return
		}

		var req TranslateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		rewrite, err := rewriter.Translate(c.Request.Context(), promptID, userID, req.Language)
		if err != nil {
			respondRewriteError(c, err)
			return
		}

		c.JSON(http.StatusOK, rewrite)
	}
}

func rewriteTarget(c *gin.Context) (string, string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		errors.Unauthorized(c, "user not authenticated")
		return "", "", false
	}

	promptID, ok := errors.ValidatePathUUID(c, "id")
	if !ok {
		return "", "", false
	}

	return userID, promptID, true
}

// loads the prompt named in the path; other users' private prompts read as missing
func loadVisible(c *gin.Context, store PromptStore) (*prompts.Prompt, bool) {
	promptID, ok := errors.ValidatePathUUID(c, "id")
	if !ok {
		return nil, false
	}

	userID := c.GetString("user_id")

	prompt, err := store.Get(c.Request.Context(), promptID, userID)
	if stderrors.Is(err, prompts.ErrPromptNotFound) || (err == nil && !prompt.VisibleTo(userID)) {
		errors.NotFound(c, "prompt")
		return nil, false
	}

	if err != nil {
		errors.InternalError(c, "failed to get prompt", err)
		return nil, false
	}

	return prompt, true
}

func respondRewriteError(c *gin.Context, err error) {
	var providerErr *llm.ProviderError

	switch {
	case stderrors.Is(err, prompts.ErrPromptNotFound):
		errors.NotFound(c, "prompt")
	case stderrors.Is(err, improver.ErrNotAllowed):
		errors.Forbidden(c, err.Error())
	case stderrors.Is(err, improver.ErrUnsupportedLanguage), stderrors.Is(err, improver.ErrSameLanguage):
		errors.BadRequest(c, err.Error(), nil)
	case stderrors.Is(err, quota.ErrQuotaExceeded):
		errors.QuotaExceeded(c, "")
	case stderrors.As(err, &providerErr):
		errors.ProviderFailed(c, providerErr)
	default:
		errors.InternalError(c, "failed to rewrite prompt", err)
	}
}
