package billing

const (
	queryMarkEventProcessed = `
		INSERT INTO webhook_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`

	querySetUserPlan = `
		UPDATE users
		SET plan_id = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, email, COALESCE(name, '')
	`

	queryGrantTokens = `
		UPDATE users
		SET tokens_limit = tokens_limit + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, email, COALESCE(name, '')
	`

	queryGetOrganizationPlan = `
		SELECT id, name, price_per_user, tokens_per_user, min_team_size
		FROM organization_plans
		WHERE id = $1
	`

	queryCreateOrganization = `
		INSERT INTO organizations (
			name, owner_id, organization_plan_id, team_size, tokens_included,
			active, subscription_id, checkout_session_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		ON CONFLICT (checkout_session_id) DO NOTHING
		RETURNING id
	`

	queryOrganizationBySession = `
		SELECT id
		FROM organizations
		WHERE checkout_session_id = $1
	`

	queryAddOrganizationMember = `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id) DO NOTHING
	`

	querySetOrganizationsActive = `
		UPDATE organizations
		SET active = $1, updated_at = NOW()
		WHERE subscription_id = $2
	`

	queryAttachSubscription = `
		INSERT INTO subscriptions (id, user_id, status, active, event_at)
		VALUES ($1, $2, 'active', true, 0)
		ON CONFLICT (id) DO UPDATE SET
			user_id = COALESCE(subscriptions.user_id, EXCLUDED.user_id),
			updated_at = NOW()
		RETURNING id, COALESCE(user_id::text, ''), status, active, event_at
	`

	// a row stored from a newer event wins and a canceled row stays canceled, even against an
	// update carrying the same second; the caller reads the stored row back afterwards
	queryUpsertSubscription = `
		INSERT INTO subscriptions (id, user_id, status, active, event_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			user_id = COALESCE(EXCLUDED.user_id, subscriptions.user_id),
			status = EXCLUDED.status,
			active = EXCLUDED.active,
			event_at = EXCLUDED.event_at,
			updated_at = NOW()
		WHERE subscriptions.event_at <= EXCLUDED.event_at
			AND subscriptions.status <> 'canceled'
	`

	queryGetSubscription = `
		SELECT id, COALESCE(user_id::text, ''), status, active, event_at
		FROM subscriptions
		WHERE id = $1
	`

	queryAffiliateForUpdate = `
		SELECT id, user_id, commission_percent, total_referrals, total_earnings
		FROM affiliates
		WHERE user_id = $1 AND active = true
		FOR UPDATE
	`

	queryCreditAffiliate = `
		UPDATE affiliates
		SET total_referrals = total_referrals + 1,
			total_earnings = total_earnings + $1,
			updated_at = NOW()
		WHERE id = $2
	`
)

const (
	planColumns = `id, name, price, currency, tokens_included, overage_price, active`

	queryListPlans = `
		SELECT ` + planColumns + `
		FROM plans
		WHERE ($1::boolean = false OR active = true)
		ORDER BY price
	`

	queryGetPlan = `
		SELECT ` + planColumns + `
		FROM plans
		WHERE id = $1
	`

	queryCreatePlan = `
		INSERT INTO plans (name, price, currency, tokens_included, overage_price, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + planColumns

	queryUpdatePlan = `
		UPDATE plans
		SET name = $1, price = $2, currency = $3, tokens_included = $4,
			overage_price = $5, active = $6
		WHERE id = $7
		RETURNING ` + planColumns

	queryListOrganizationPlans = `
		SELECT id, name, price_per_user, tokens_per_user, min_team_size
		FROM organization_plans
		ORDER BY price_per_user
	`

	packageColumns = `id, name, tokens, price, currency, active`

	queryListPackages = `
		SELECT ` + packageColumns + `
		FROM token_packages
		WHERE active = true
		ORDER BY tokens
	`

	queryGetPackage = `
		SELECT ` + packageColumns + `
		FROM token_packages
		WHERE id = $1
	`

	promotionColumns = `id, name, discount_percent, starts_at, ends_at, active`

	queryActivePromotion = `
		SELECT ` + promotionColumns + `
		FROM token_promotions
		WHERE active = true AND starts_at <= $1 AND ends_at > $1
		ORDER BY discount_percent DESC
		LIMIT 1
	`

	queryListPromotions = `
		SELECT ` + promotionColumns + `
		FROM token_promotions
		ORDER BY starts_at DESC
	`

	queryCreatePromotion = `
		INSERT INTO token_promotions (name, discount_percent, starts_at, ends_at, active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING ` + promotionColumns

	queryDeactivatePromotion = `
		UPDATE token_promotions
		SET active = false
		WHERE id = $1
	`
)
