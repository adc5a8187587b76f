package users

const (
	userColumns = `id, email, COALESCE(name, ''), plan_id, tokens_used, tokens_limit, is_admin, created_at, updated_at`

	queryFindByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	queryGetUsage = `
		SELECT tokens_used, tokens_limit
		FROM users
		WHERE id = $1
	`

	queryIsAdmin = `
		SELECT is_admin
		FROM users
		WHERE id = $1
	`

	queryUpdateProfile = `
		UPDATE users
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns

	queryGrantTokens = `
		UPDATE users
		SET tokens_limit = tokens_limit + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns

	queryList = `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 = '' OR email ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	queryCount = `
		SELECT COUNT(*)
		FROM users
		WHERE ($1 = '' OR email ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%')
	`
)
