package executions

const (
	executionColumns = `id, prompt_id, user_id, provider, model, input_tokens, output_tokens,
		total_tokens, cost, currency, latency_ms, result, parameters, created_at`

	// a replayed id inserts nothing, so the counters below are skipped
	queryInsertExecution = `
		INSERT INTO prompt_executions (
			id, prompt_id, user_id, provider, model, input_tokens, output_tokens,
			total_tokens, cost, currency, latency_ms, result, parameters, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`

	queryIncrementTokensUsed = `
		UPDATE users
		SET tokens_used = tokens_used + $1, updated_at = NOW()
		WHERE id = $2
	`

	queryIncrementPromptUsage = `
		INSERT INTO prompt_stats (prompt_id, executions, visits)
		VALUES ($1, 1, 1)
		ON CONFLICT (prompt_id) DO UPDATE SET
			executions = prompt_stats.executions + 1,
			visits = prompt_stats.visits + 1,
			ctr = prompt_stats.copies::float8 / (prompt_stats.visits + 1),
			updated_at = NOW()
	`

	queryListByUser = `
		SELECT ` + executionColumns + `
		FROM prompt_executions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	queryCountByUser = `
		SELECT COUNT(*)
		FROM prompt_executions
		WHERE user_id = $1
	`

	querySummaryByUser = `
		SELECT COUNT(*), COALESCE(SUM(total_tokens), 0), COALESCE(SUM(cost), 0)
		FROM prompt_executions
		WHERE user_id = $1
	`

	querySaveDeadLetter = `
		INSERT INTO execution_dead_letters (execution_id, payload, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (execution_id) DO UPDATE SET
			reason = EXCLUDED.reason
	`

	queryListDeadLetters = `
		SELECT execution_id, payload, reason, attempts, created_at, last_tried_at
		FROM execution_dead_letters
		ORDER BY created_at
		LIMIT $1
	`

	queryDeleteDeadLetter = `
		DELETE FROM execution_dead_letters
		WHERE execution_id = $1
	`

	queryMarkDeadLetterAttempt = `
		UPDATE execution_dead_letters
		SET attempts = attempts + 1, reason = $1, last_tried_at = NOW()
		WHERE execution_id = $2
	`
)
