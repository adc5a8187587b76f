package coupons

const (
	couponColumns = `id, code, type, value, max_uses, used_count, expires_at, scope, created_at`

	queryGetByCode = `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE code = $1
	`

	queryList = `
		SELECT ` + couponColumns + `
		FROM coupons
		ORDER BY created_at DESC
	`

	queryCreate = `
		INSERT INTO coupons (code, type, value, max_uses, expires_at, scope)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + couponColumns

	queryUpdate = `
		UPDATE coupons
		SET value = COALESCE($1, value),
			max_uses = COALESCE($2, max_uses),
			expires_at = COALESCE($3, expires_at),
			scope = COALESCE($4, scope)
		WHERE id = $5
		RETURNING ` + couponColumns

	queryDelete = `
		DELETE FROM coupons
		WHERE id = $1
	`

	// the guard conditions make concurrent redemptions race safely
	queryRedeem = `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE code = $1
		  AND (max_uses IS NULL OR used_count < max_uses)
		  AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING ` + couponColumns
)
