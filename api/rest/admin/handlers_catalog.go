package admin

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/promptdeck/catalog"
	"github.com/gin-gonic/gin"
)

func ListProviders(store CatalogStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		providers, err := store.ListProviders(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to list providers", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"providers": providers})
	}
}

func ListModels(store CatalogStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		models, err := store.ListModels(c.Request.Context(), false)
		if err != nil {
			errors.InternalError(c, "failed to list models", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"models": models})
	}
}

// UpdateModel godoc
// @Summary Update a model
// @Description Toggles a model or changes its capabilities and raw costs
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Model ID"
// @Param request body catalog.UpdateModelRequest true "Fields to change"
// @Success 200 {object} catalog.Model
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/admin/models/{id} [put]
// @Security BearerAuth
func UpdateModel(store CatalogStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		modelID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		var req catalog.UpdateModelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if (req.InputCost != nil && req.InputCost.IsNegative()) || (req.OutputCost != nil && req.OutputCost.IsNegative()) {
			errors.BadRequest(c, "costs must not be negative", nil)
			return
		}

		model, err := store.UpdateModel(c.Request.Context(), modelID, req)
		if stderrors.Is(err, catalog.ErrModelNotFound) {
			errors.NotFound(c, "model")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to update model", err)
			return
		}

		recordAudit(c, log, "model.update", "model", model.ID, map[string]any{
			"model":   model.Model,
			"enabled": model.Enabled,
		})

		c.JSON(http.StatusOK, model)
	}
}

func ListTokenPrices(store CatalogStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		prices, err := store.ListTokenPrices(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to list token prices", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"token_prices": prices})
	}
}

// UpsertTokenPrice godoc
// @Summary Create or replace a model's token price
// @Description Base costs are per million tokens; margins are percentages; fx_rate converts to the billing currency
// @Tags admin
// @Accept json
// @Produce json
// @Param request body catalog.UpsertTokenPriceRequest true "Token price"
// @Success 200 {object} catalog.TokenPrice
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/admin/token-prices [put]
// @Security BearerAuth
func UpsertTokenPrice(store CatalogStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.UpsertTokenPriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if req.InputCostBase.IsNegative() || req.OutputCostBase.IsNegative() ||
			req.InputMarginPercent.IsNegative() || req.OutputMarginPercent.IsNegative() {
			errors.BadRequest(c, "costs and margins must not be negative", nil)
			return
		}

		if !req.FXRate.IsPositive() {
			errors.BadRequest(c, "fx_rate must be positive", nil)
			return
		}

		price, err := store.UpsertTokenPrice(c.Request.Context(), req)
		if err != nil {
			errors.InternalError(c, "failed to save token price", err)
			return
		}

		recordAudit(c, log, "token_price.upsert", "token_price", price.Model, map[string]any{
			"input_cost_base":       price.InputCostBase.String(),
			"output_cost_base":      price.OutputCostBase.String(),
			"input_margin_percent":  price.InputMarginPercent.String(),
			"output_margin_percent": price.OutputMarginPercent.String(),
			"fx_rate":               price.FXRate.String(),
			"currency":              price.Currency,
		})

		c.JSON(http.StatusOK, price)
	}
}

func DeleteTokenPrice(store CatalogStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		model := c.Param("model")

		err := store.DeleteTokenPrice(c.Request.Context(), model)
		if stderrors.Is(err, catalog.ErrTokenPriceNotFound) {
			errors.NotFound(c, "token price")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to delete token price", err)
			return
		}

		recordAudit(c, log, "token_price.delete", "token_price", model, nil)

		c.JSON(http.StatusOK, MessageResponse{Message: "token price deleted"})
	}
}
