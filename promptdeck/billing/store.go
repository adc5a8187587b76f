// Package billing persists payment reconciliation: processed webhook ids, plan and token
// changes, organizations, subscriptions and affiliate credit.
package billing

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/promptdeck/server/internal/reconciler"
	"codeberg.org/promptdeck/server/promptdeck/audit"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// transactional store behind the payment reconciler
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx reconciler.Tx) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	tag, err := t.tx.Exec(ctx, queryMarkEventProcessed, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (t *txStore) SetUserPlan(ctx context.Context, userID, planID string) (*reconciler.Recipient, error) {
	return t.recipient(ctx, querySetUserPlan, planID, userID)
}

func (t *txStore) GrantTokens(ctx context.Context, userID string, tokens int64) (*reconciler.Recipient, error) {
	return t.recipient(ctx, queryGrantTokens, tokens, userID)
}

func (t *txStore) recipient(ctx context.Context, query string, args ...any) (*reconciler.Recipient, error) {
	var r reconciler.Recipient

	err := t.tx.QueryRow(ctx, query, args...).Scan(&r.UserID, &r.Email, &r.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, reconciler.ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &r, nil
}

func (t *txStore) GetOrganizationPlan(ctx context.Context, planID string) (*reconciler.OrganizationPlan, error) {
	var p reconciler.OrganizationPlan

	err := t.tx.QueryRow(ctx, queryGetOrganizationPlan, planID).Scan(
		&p.ID,
		&p.Name,
		&p.PricePerUser,
		&p.TokensPerUser,
		&p.MinTeamSize,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, reconciler.ErrOrganizationPlanNotFound
	}

	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (t *txStore) CreateOrganization(ctx context.Context, org reconciler.NewOrganization) (string, bool, error) {
	var id string

	err := t.tx.QueryRow(
		ctx,
		queryCreateOrganization,
		org.Name,
		org.OwnerID,
		org.OrganizationPlanID,
		org.TeamSize,
		org.TokensIncluded,
		org.Active,
		org.SubscriptionID,
		org.CheckoutSessionID,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	// conflict on checkout_session_id: already created
	if err := t.tx.QueryRow(ctx, queryOrganizationBySession, org.CheckoutSessionID).Scan(&id); err != nil {
		return "", false, err
	}

	return id, false, nil
}

func (t *txStore) AddOrganizationMember(ctx context.Context, orgID, userID, role string) error {
	_, err := t.tx.Exec(ctx, queryAddOrganizationMember, orgID, userID, role)
	return err
}

func (t *txStore) SetOrganizationsActive(ctx context.Context, subscriptionID string, active bool) (int64, error) {
	tag, err := t.tx.Exec(ctx, querySetOrganizationsActive, active, subscriptionID)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (t *txStore) AttachSubscription(ctx context.Context, subscriptionID, userID string) (*reconciler.Subscription, error) {
	return scanSubscription(t.tx.QueryRow(ctx, queryAttachSubscription, subscriptionID, userID))
}

func (t *txStore) UpsertSubscription(ctx context.Context, sub reconciler.Subscription) (*reconciler.Subscription, error) {
	if _, err := t.tx.Exec(ctx, queryUpsertSubscription, sub.ID, sub.UserID, sub.Status, sub.Active, sub.EventAt); err != nil {
		return nil, err
	}

	return scanSubscription(t.tx.QueryRow(ctx, queryGetSubscription, sub.ID))
}

func (t *txStore) GetAffiliateForUpdate(ctx context.Context, userID string) (*reconciler.Affiliate, error) {
	var a reconciler.Affiliate

	err := t.tx.QueryRow(ctx, queryAffiliateForUpdate, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.CommissionPercent,
		&a.TotalReferrals,
		&a.TotalEarnings,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, reconciler.ErrAffiliateNotFound
	}

	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (t *txStore) CreditAffiliate(ctx context.Context, affiliateID string, amount decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, queryCreditAffiliate, amount, affiliateID)
	return err
}

func (t *txStore) RedeemCoupon(ctx context.Context, code string) error {
	_, err := coupons.Redeem(ctx, t.tx, code)
	return err
}

func (t *txStore) AppendAudit(ctx context.Context, entry audit.Entry) error {
	return audit.Insert(ctx, t.tx, entry)
}

func scanSubscription(row pgx.Row) (*reconciler.Subscription, error) {
	var s reconciler.Subscription

	if err := row.Scan(&s.ID, &s.UserID, &s.Status, &s.Active, &s.EventAt); err != nil {
		return nil, err
	}

	return &s, nil
}
