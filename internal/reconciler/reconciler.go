// Package reconciler turns payment-processor webhook events into plan changes, token
// grants, organizations and subscription state.
//
// Every event is applied at most once: its id is inserted into the processed-events ledger
// in the same transaction as the changes it causes, so a redelivery finds the id and does
// nothing. Subscription state is upserted by id with the processor timestamp, and a canceled
// subscription never leaves that state, which makes the result independent of delivery order.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/internal/metrics"
	"codeberg.org/promptdeck/server/promptdeck/audit"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"github.com/shopspring/decimal"
)

const (
	roleOwner = "owner"

	actionPlanSet        = "plan_set"
	actionTokensGranted  = "tokens_granted"
	actionOrgCreated     = "organization_created"
	actionSubscription   = "subscription_synced"
	actionReferral       = "referral_credited"
	actionPaymentFailed  = "payment_failed_logged"
	actionCouponRedeemed = "coupon_redeemed"
)

var hundred = decimal.NewFromInt(100)

type Reconciler struct {
	store     Store
	referrals ReferralSettings
	notifier  Notifier
	templates Templates
}

func New(store Store, referrals ReferralSettings, notifier Notifier, templates Templates) *Reconciler {
	return &Reconciler{
		store:     store,
		referrals: referrals,
		notifier:  notifier,
		templates: templates,
	}
}

// email queued during reconciliation and sent after commit
type pendingEmail struct {
	to         string
	templateID string
	vars       map[string]string
}

// applies one event. Replays return Outcome.Duplicate and change nothing.
func (r *Reconciler) Handle(ctx context.Context, ev *Event) (*Outcome, error) {
	out := &Outcome{EventID: ev.ID, Type: ev.Type}

	var emails []pendingEmail

	err := r.store.WithTx(ctx, func(tx Tx) error {
		// reset in case the store retries fn
		out.Actions = nil
		out.Ignored = false
		emails = nil

		fresh, err := tx.MarkEventProcessed(ctx, ev.ID, ev.RawType)
		if err != nil {
			return err
		}

		if !fresh {
			out.Duplicate = true
			return nil
		}

		switch ev.Type {
		case EventCheckoutCompleted:
			emails, err = r.checkoutCompleted(ctx, tx, ev, out)
		case EventSubscriptionUpdated, EventSubscriptionDeleted:
			err = r.subscriptionChanged(ctx, tx, ev, out)
		case EventInvoicePaymentFailed:
			logger.Warn("invoice payment failed",
				"event_id", ev.ID,
				"subscription_id", ev.SubscriptionID,
				"customer_email", ev.CustomerEmail,
				"amount", ev.AmountTotal.String(),
			)

			out.Actions = append(out.Actions, actionPaymentFailed)
		default:
			out.Ignored = true
		}

		if err != nil {
			return err
		}

		if out.Ignored {
			return nil
		}

		return tx.AppendAudit(ctx, audit.Entry{
			ActorID:    audit.ActorPayments,
			Action:     "webhook." + string(ev.Type),
			Resource:   "payment_event",
			ResourceID: ev.ID,
			Details:    auditDetails(ev, out),
		})
	})
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(ev.Type), "error").Inc()
		return nil, fmt.Errorf("reconcile %s (%s): %w", ev.ID, ev.RawType, err)
	}

	metrics.WebhookEventsTotal.WithLabelValues(string(ev.Type), outcomeLabel(out)).Inc()

	if out.Ignored {
		logger.Info("ignored payment event", "event_id", ev.ID, "type", ev.RawType)
	}

	// only first deliveries reach here with queued emails
	for _, m := range emails {
		r.sendEmail(ctx, ev, m)
	}

	return out, nil
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, tx Tx, ev *Event, out *Outcome) ([]pendingEmail, error) {
	md := ev.Metadata

	if md.UserID == "" {
		logger.Warn("checkout without user_id metadata", "event_id", ev.ID, "session_id", ev.CheckoutSessionID)
		out.Ignored = true

		return nil, nil
	}

	var emails []pendingEmail

	if md.PlanID != "" {
		recipient, err := tx.SetUserPlan(ctx, md.UserID, md.PlanID)
		if err != nil {
			return nil, fmt.Errorf("set plan: %w", err)
		}

		if ev.SubscriptionID != "" {
			if _, err := tx.AttachSubscription(ctx, ev.SubscriptionID, md.UserID); err != nil {
				return nil, fmt.Errorf("attach subscription: %w", err)
			}
		}

		out.Actions = append(out.Actions, actionPlanSet)
		emails = r.queue(emails, recipient, r.templates.Welcome, map[string]string{
			"plan_id": md.PlanID,
		})
	}

	if md.OrganizationPlanID != "" && md.TeamSize > 0 {
		if err := r.createOrganization(ctx, tx, ev, out); err != nil {
			return nil, err
		}
	}

	if md.Tokens > 0 {
		recipient, err := tx.GrantTokens(ctx, md.UserID, md.Tokens)
		if err != nil {
			return nil, fmt.Errorf("grant tokens: %w", err)
		}

		out.Actions = append(out.Actions, actionTokensGranted)
		emails = r.queue(emails, recipient, r.templates.PaymentConfirmation, map[string]string{
			"tokens":   strconv.FormatInt(md.Tokens, 10),
			"amount":   ev.AmountTotal.StringFixed(2),
			"currency": ev.Currency,
		})
	}

	if md.CouponCode != "" {
		err := tx.RedeemCoupon(ctx, md.CouponCode)

		switch {
		case errors.Is(err, coupons.ErrCouponUnavailable):
			// the processor already charged the discounted price
			logger.Warn("checkout used an unavailable coupon", "event_id", ev.ID, "coupon", md.CouponCode)
		case err != nil:
			return nil, fmt.Errorf("redeem coupon: %w", err)
		default:
			out.Actions = append(out.Actions, actionCouponRedeemed)
		}
	}

	if md.ReferrerID != "" && md.ReferrerID != md.UserID && ev.AmountTotal.IsPositive() {
		if err := r.creditReferrer(ctx, tx, md.ReferrerID, ev.AmountTotal, out); err != nil {
			return nil, err
		}
	}

	return emails, nil
}

func (r *Reconciler) createOrganization(ctx context.Context, tx Tx, ev *Event, out *Outcome) error {
	md := ev.Metadata

	plan, err := tx.GetOrganizationPlan(ctx, md.OrganizationPlanID)
	if err != nil {
		return fmt.Errorf("load organization plan: %w", err)
	}

	teamSize := md.TeamSize
	if teamSize < plan.MinTeamSize {
		teamSize = plan.MinTeamSize
	}

	active := true

	// a subscription event may have arrived first; honor its state
	if ev.SubscriptionID != "" {
		sub, err := tx.AttachSubscription(ctx, ev.SubscriptionID, md.UserID)
		if err != nil {
			return fmt.Errorf("attach subscription: %w", err)
		}

		active = sub.Active
	}

	orgID, created, err := tx.CreateOrganization(ctx, NewOrganization{
		Name:               plan.Name,
		OwnerID:            md.UserID,
		OrganizationPlanID: plan.ID,
		TeamSize:           teamSize,
		TokensIncluded:     int64(teamSize) * plan.TokensPerUser,
		Active:             active,
		SubscriptionID:     ev.SubscriptionID,
		CheckoutSessionID:  ev.CheckoutSessionID,
	})
	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}

	if !created {
		return nil
	}

	if err := tx.AddOrganizationMember(ctx, orgID, md.UserID, roleOwner); err != nil {
		return fmt.Errorf("add organization owner: %w", err)
	}

	out.Actions = append(out.Actions, actionOrgCreated)

	return nil
}

func (r *Reconciler) subscriptionChanged(ctx context.Context, tx Tx, ev *Event, out *Outcome) error {
	if ev.SubscriptionID == "" {
		out.Ignored = true
		return nil
	}

	active := ev.Type != EventSubscriptionDeleted && IsActiveStatus(ev.SubscriptionStatus)

	status := ev.SubscriptionStatus
	if ev.Type == EventSubscriptionDeleted {
		status = StatusCanceled
	}

	stored, err := tx.UpsertSubscription(ctx, Subscription{
		ID:      ev.SubscriptionID,
		UserID:  ev.Metadata.UserID,
		Status:  status,
		Active:  active,
		EventAt: ev.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	// a stale event leaves the newer stored state in place
	if _, err := tx.SetOrganizationsActive(ctx, stored.ID, stored.Active); err != nil {
		return fmt.Errorf("sync organizations: %w", err)
	}

	out.Actions = append(out.Actions, actionSubscription)

	return nil
}

func (r *Reconciler) creditReferrer(ctx context.Context, tx Tx, referrerID string, amount decimal.Decimal, out *Outcome) error {
	program, err := r.referrals.Referral(ctx)
	if err != nil {
		return fmt.Errorf("load referral settings: %w", err)
	}

	if !program.Enabled {
		return nil
	}

	aff, err := tx.GetAffiliateForUpdate(ctx, referrerID)
	if errors.Is(err, ErrAffiliateNotFound) {
		logger.Warn("checkout referrer is not an affiliate", "referrer_id", referrerID)
		return nil
	}

	if err != nil {
		return fmt.Errorf("load affiliate: %w", err)
	}

	percent := aff.CommissionPercent
	if percent.IsZero() {
		percent = program.DefaultCommissionPercent
	}

	credit := Commission(amount, percent, aff.TotalEarnings, program.MaxEarningsPerReferrer)

	if err := tx.CreditAffiliate(ctx, aff.ID, credit); err != nil {
		return fmt.Errorf("credit affiliate: %w", err)
	}

	out.Actions = append(out.Actions, actionReferral)

	return nil
}

// commission on amount, reduced so earned+commission never exceeds maxEarnings
// (zero maxEarnings means uncapped)
func Commission(amount, percent, earned, maxEarnings decimal.Decimal) decimal.Decimal {
	c := amount.Mul(percent).Div(hundred).Round(2)
	if c.IsNegative() {
		return decimal.Zero
	}

	if maxEarnings.IsPositive() {
		room := maxEarnings.Sub(earned)
		if room.IsNegative() {
			room = decimal.Zero
		}

		if c.GreaterThan(room) {
			c = room
		}
	}

	return c
}

// a subscription grants access while paid or trialing
func IsActiveStatus(status string) bool {
	return status == "active" || status == "trialing"
}

func (r *Reconciler) queue(emails []pendingEmail, to *Recipient, templateID string, vars map[string]string) []pendingEmail {
	if r.notifier == nil || templateID == "" || to == nil || to.Email == "" {
		return emails
	}

	vars["name"] = to.Name
	vars["email"] = to.Email

	return append(emails, pendingEmail{to: to.Email, templateID: templateID, vars: vars})
}

// failures are logged; the event is already committed
func (r *Reconciler) sendEmail(ctx context.Context, ev *Event, m pendingEmail) {
	messageID, err := r.notifier.Send(context.WithoutCancel(ctx), m.to, m.templateID, m.vars)
	if err != nil {
		logger.ErrorErr(err, "failed to send payment email",
			"event_id", ev.ID,
			"template_id", m.templateID,
			"to", m.to,
		)

		return
	}

	logger.Info("payment email sent",
		"event_id", ev.ID,
		"template_id", m.templateID,
		"message_id", messageID,
	)
}

func auditDetails(ev *Event, out *Outcome) map[string]any {
	d := map[string]any{
		"event_type": ev.RawType,
		"actions":    out.Actions,
	}

	if ev.Metadata.UserID != "" {
		d["user_id"] = ev.Metadata.UserID
	}

	if ev.SubscriptionID != "" {
		d["subscription_id"] = ev.SubscriptionID
	}

	if ev.Metadata.Tokens > 0 {
		d["tokens"] = ev.Metadata.Tokens
	}

	if !ev.AmountTotal.IsZero() {
		d["amount"] = ev.AmountTotal.StringFixed(2)
		d["currency"] = ev.Currency
	}

	return d
}

func outcomeLabel(out *Outcome) string {
	switch {
	case out.Duplicate:
		return "duplicate"
	case out.Ignored:
		return "ignored"
	default:
		return "processed"
	}
}
