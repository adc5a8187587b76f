package affiliates

const (
	affiliateColumns = `a.id, a.user_id, u.email, a.commission_percent, a.total_referrals,
		a.total_earnings, a.active, a.created_at`

	queryList = `
		SELECT ` + affiliateColumns + `
		FROM affiliates a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.total_earnings DESC, a.created_at
		LIMIT $1 OFFSET $2
	`

	queryCount = `
		SELECT COUNT(*)
		FROM affiliates
	`

	queryGetByUser = `
		SELECT ` + affiliateColumns + `
		FROM affiliates a
		JOIN users u ON u.id = a.user_id
		WHERE a.user_id = $1
	`

	queryCreate = `
		WITH inserted AS (
			INSERT INTO affiliates (user_id, commission_percent)
			VALUES ($1, $2)
			RETURNING *
		)
		SELECT ` + affiliateColumns + `
		FROM inserted a
		JOIN users u ON u.id = a.user_id
	`

	queryUpdate = `
		WITH updated AS (
			UPDATE affiliates
			SET commission_percent = COALESCE($1, commission_percent),
				active = COALESCE($2, active),
				updated_at = NOW()
			WHERE id = $3
			RETURNING *
		)
		SELECT ` + affiliateColumns + `
		FROM updated a
		JOIN users u ON u.id = a.user_id
	`
)
