package reconciler

import (
	"context"
	"errors"

	"codeberg.org/promptdeck/server/promptdeck/audit"
	"codeberg.org/promptdeck/server/promptdeck/settings"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrOrganizationPlanNotFound = errors.New("organization plan not found")
	ErrAffiliateNotFound        = errors.New("affiliate not found")
)

// runs fn in one database transaction; an error rolls everything back
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	// records the event id; false means it was already processed
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)

	SetUserPlan(ctx context.Context, userID, planID string) (*Recipient, error)
	GrantTokens(ctx context.Context, userID string, tokens int64) (*Recipient, error)

	GetOrganizationPlan(ctx context.Context, planID string) (*OrganizationPlan, error)
	// inserts unless an organization already exists for the checkout session
	CreateOrganization(ctx context.Context, org NewOrganization) (id string, created bool, err error)
	AddOrganizationMember(ctx context.Context, orgID, userID, role string) error
	SetOrganizationsActive(ctx context.Context, subscriptionID string, active bool) (int64, error)

	// links a subscription to a user, creating it as active when unseen; returns the stored state
	AttachSubscription(ctx context.Context, subscriptionID, userID string) (*Subscription, error)
	// applies a status change unless a newer one is stored; returns the stored state
	UpsertSubscription(ctx context.Context, sub Subscription) (*Subscription, error)

	// locks and returns the referrer's affiliate row
	GetAffiliateForUpdate(ctx context.Context, userID string) (*Affiliate, error)
	CreditAffiliate(ctx context.Context, affiliateID string, amount decimal.Decimal) error

	// consumes one use of a coupon; coupons.ErrCouponUnavailable when none is left
	RedeemCoupon(ctx context.Context, code string) error

	AppendAudit(ctx context.Context, entry audit.Entry) error
}

type ReferralSettings interface {
	Referral(ctx context.Context) (settings.Referral, error)
}

// sends a templated email; returns the message id
type Notifier interface {
	Send(ctx context.Context, to, templateID string, vars map[string]string) (string, error)
}

type Recipient struct {
	UserID string
	Email  string
	Name   string
}

type OrganizationPlan struct {
	ID            string
	Name          string
	PricePerUser  decimal.Decimal
	TokensPerUser int64
	MinTeamSize   int
}

type NewOrganization struct {
	Name               string
	OwnerID            string
	OrganizationPlanID string
	TeamSize           int
	TokensIncluded     int64
	Active             bool
	SubscriptionID     string
	CheckoutSessionID  string
}

// a canceled subscription is terminal; the processor opens a new id to resubscribe
const StatusCanceled = "canceled"

type Subscription struct {
	ID     string
	UserID string
	Status string
	Active bool

	// processor timestamp of the event that produced this state
	EventAt int64
}

type Affiliate struct {
	ID                string
	UserID            string
	CommissionPercent decimal.Decimal // zero falls back to the program default
	TotalReferrals    int64
	TotalEarnings     decimal.Decimal
}

// what Handle did with an event
type Outcome struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"type"`
	Duplicate bool      `json:"duplicate,omitempty"`
	Ignored   bool      `json:"ignored,omitempty"`
	Actions   []string  `json:"actions,omitempty"`
}

type Templates struct {
	Welcome             string
	PaymentConfirmation string
}
