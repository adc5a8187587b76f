package prompts

const (
	promptColumns = `p.id, p.user_id, p.is_system, p.title, COALESCE(p.description, ''), p.content,
		p.language, COALESCE(p.category, ''), p.version,
		EXISTS (SELECT 1 FROM prompt_favorites f WHERE f.prompt_id = p.id AND f.user_id::text = $2),
		p.created_at, p.updated_at`

	queryGet = `
		SELECT ` + promptColumns + `
		FROM prompts p
		WHERE p.id = $1
	`

	queryListVisible = `
		SELECT ` + promptColumns + `
		FROM prompts p
		WHERE (p.is_system = true OR p.user_id::text = $2)
		  AND ($1 = '' OR p.language = $1)
		ORDER BY p.is_system DESC, p.updated_at DESC
		LIMIT $3 OFFSET $4
	`

	queryCountVisible = `
		SELECT COUNT(*)
		FROM prompts p
		WHERE (p.is_system = true OR p.user_id::text = $2)
		  AND ($1 = '' OR p.language = $1)
	`

	queryCreate = `
		INSERT INTO prompts (user_id, is_system, title, description, content, language, category, version)
		VALUES ($1, false, $2, $3, $4, $5, $6, 1)
		RETURNING id
	`

	queryInsertStats = `
		INSERT INTO prompt_stats (prompt_id)
		VALUES ($1)
		ON CONFLICT (prompt_id) DO NOTHING
	`

	queryIsFavorite = `
		SELECT EXISTS (SELECT 1 FROM prompt_favorites WHERE prompt_id = $1 AND user_id = $2)
	`

	queryAddFavorite = `
		INSERT INTO prompt_favorites (prompt_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	queryRemoveFavorite = `
		DELETE FROM prompt_favorites
		WHERE prompt_id = $1 AND user_id = $2
	`

	// visits and copies also refresh the click-through rate
	queryIncrementVisits = `
		INSERT INTO prompt_stats (prompt_id, visits)
		VALUES ($1, 1)
		ON CONFLICT (prompt_id) DO UPDATE SET
			visits = prompt_stats.visits + 1,
			ctr = prompt_stats.copies::float8 / (prompt_stats.visits + 1),
			updated_at = NOW()
	`

	queryIncrementCopies = `
		INSERT INTO prompt_stats (prompt_id, copies)
		VALUES ($1, 1)
		ON CONFLICT (prompt_id) DO UPDATE SET
			copies = prompt_stats.copies + 1,
			ctr = CASE WHEN prompt_stats.visits > 0
				THEN (prompt_stats.copies + 1)::float8 / prompt_stats.visits
				ELSE 0 END,
			updated_at = NOW()
	`

	queryIncrementImprovements = `
		INSERT INTO prompt_stats (prompt_id, improvements)
		VALUES ($1, 1)
		ON CONFLICT (prompt_id) DO UPDATE SET
			improvements = prompt_stats.improvements + 1,
			updated_at = NOW()
	`

	queryIncrementTranslations = `
		INSERT INTO prompt_stats (prompt_id, translations)
		VALUES ($1, 1)
		ON CONFLICT (prompt_id) DO UPDATE SET
			translations = prompt_stats.translations + 1,
			updated_at = NOW()
	`

	queryGetStats = `
		SELECT prompt_id, visits, copies, executions, improvements, translations, ctr, updated_at
		FROM prompt_stats
		WHERE prompt_id = $1
	`

	queryLockPromptVersion = `
		SELECT version
		FROM prompts
		WHERE id = $1
		FOR UPDATE
	`

	queryInsertVersion = `
		INSERT INTO prompt_versions (prompt_id, version, content, language, change_type, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, prompt_id, version, content, language, change_type, created_by, created_at
	`

	queryApplyVersion = `
		UPDATE prompts
		SET content = $1, language = $2, version = $3, updated_at = NOW()
		WHERE id = $4
	`

	queryListVersions = `
		SELECT id, prompt_id, version, content, language, change_type, created_by, created_at
		FROM prompt_versions
		WHERE prompt_id = $1
		ORDER BY version DESC
	`
)
