package settings

const (
	queryGetSetting = `
		SELECT value
		FROM system_settings
		WHERE key = $1
	`

	queryPutSetting = `
		INSERT INTO system_settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
	`
)
