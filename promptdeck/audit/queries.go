package audit

const (
	queryInsertEntry = `
		INSERT INTO audit_logs (actor_id, action, resource, resource_id, details)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`

	queryListEntries = `
		SELECT id, actor_id, action, resource, COALESCE(resource_id, ''), details, created_at
		FROM audit_logs
		WHERE ($1 = '' OR actor_id = $1)
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR resource = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	queryCountEntries = `
		SELECT COUNT(*)
		FROM audit_logs
		WHERE ($1 = '' OR actor_id = $1)
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR resource = $3)
	`
)
