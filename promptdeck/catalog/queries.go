package catalog

const (
	modelColumns = `id, provider, model, display_name, input_cost, output_cost,
		supports_temperature, supports_top_p, max_tokens, enabled, updated_at`

	tokenPriceColumns = `id, model, input_cost_base, output_cost_base, input_margin_percent,
		output_margin_percent, fx_rate, currency, updated_at`

	queryGetProvider = `
		SELECT id, name, COALESCE(base_url, ''), enabled, created_at
		FROM ai_providers
		WHERE id = $1
	`

	queryListProviders = `
		SELECT id, name, COALESCE(base_url, ''), enabled, created_at
		FROM ai_providers
		ORDER BY name
	`

	queryGetModel = `
		SELECT ` + modelColumns + `
		FROM ai_models
		WHERE provider = $1 AND model = $2
	`

	queryListModels = `
		SELECT ` + modelColumns + `
		FROM ai_models
		WHERE ($1::boolean = false OR enabled = true)
		ORDER BY provider, model
	`

	queryUpdateModel = `
		UPDATE ai_models
		SET display_name = COALESCE($1, display_name),
		    input_cost = COALESCE($2, input_cost),
		    output_cost = COALESCE($3, output_cost),
		    supports_temperature = COALESCE($4, supports_temperature),
		    supports_top_p = COALESCE($5, supports_top_p),
		    max_tokens = COALESCE($6, max_tokens),
		    enabled = COALESCE($7, enabled),
		    updated_at = NOW()
		WHERE id = $8
		RETURNING ` + modelColumns

	queryGetTokenPrice = `
		SELECT ` + tokenPriceColumns + `
		FROM token_prices
		WHERE model = $1
	`

	queryListTokenPrices = `
		SELECT ` + tokenPriceColumns + `
		FROM token_prices
		ORDER BY model
	`

	queryUpsertTokenPrice = `
		INSERT INTO token_prices (
			model, input_cost_base, output_cost_base, input_margin_percent,
			output_margin_percent, fx_rate, currency
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (model)
		DO UPDATE SET
			input_cost_base = EXCLUDED.input_cost_base,
			output_cost_base = EXCLUDED.output_cost_base,
			input_margin_percent = EXCLUDED.input_margin_percent,
			output_margin_percent = EXCLUDED.output_margin_percent,
			fx_rate = EXCLUDED.fx_rate,
			currency = EXCLUDED.currency,
			updated_at = NOW()
		RETURNING ` + tokenPriceColumns

	queryDeleteTokenPrice = `
		DELETE FROM token_prices
		WHERE model = $1
	`
)
