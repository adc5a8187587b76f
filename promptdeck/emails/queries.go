package emails

const (
	templateColumns = `id, name, subject, html_body, text_body, created_at, updated_at`

	queryGetTemplate = `
		SELECT ` + templateColumns + `
		FROM email_templates
		WHERE id = $1
	`

	queryListTemplates = `
		SELECT ` + templateColumns + `
		FROM email_templates
		ORDER BY name
	`

	queryCreateTemplate = `
		INSERT INTO email_templates (name, subject, html_body, text_body)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + templateColumns

	queryUpdateTemplate = `
		UPDATE email_templates
		SET name = $1, subject = $2, html_body = $3, text_body = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + templateColumns

	queryDeleteTemplate = `
		DELETE FROM email_templates
		WHERE id = $1
	`

	queryInsertLog = `
		INSERT INTO email_logs (template_id, "to", subject, status, message_id, error)
		VALUES (NULLIF($1, '')::uuid, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	`

	queryListLogs = `
		SELECT id, COALESCE(template_id::text, ''), "to", subject, status,
			COALESCE(message_id, ''), COALESCE(error, ''), created_at
		FROM email_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	queryCountLogs = `
		SELECT COUNT(*)
		FROM email_logs
	`
)
