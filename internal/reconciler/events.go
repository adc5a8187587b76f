package reconciler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidEvent = errors.New("invalid payment event")

type EventType string

// normalized event types
const (
	EventCheckoutCompleted    EventType = "checkout_completed"
	EventSubscriptionUpdated  EventType = "subscription_updated"
	EventSubscriptionDeleted  EventType = "subscription_deleted"
	EventInvoicePaymentFailed EventType = "invoice_payment_failed"
	EventUnknown              EventType = "unknown"
)

// processor event names we act on
var processorTypes = map[string]EventType{
	"checkout.session.completed":    EventCheckoutCompleted,
	"customer.subscription.updated": EventSubscriptionUpdated,
	"customer.subscription.deleted": EventSubscriptionDeleted,
	"invoice.payment_failed":        EventInvoicePaymentFailed,
}

// checkout metadata we set when creating the session
type Metadata struct {
	UserID             string
	PlanID             string
	OrganizationPlanID string
	TeamSize           int
	Tokens             int64
	ReferrerID         string
	CouponCode         string
}

// a processor webhook reduced to the fields reconciliation needs
type Event struct {
	ID        string
	Type      EventType
	RawType   string
	CreatedAt time.Time

	CheckoutSessionID  string
	CustomerEmail      string
	AmountTotal        decimal.Decimal // major units
	Currency           string
	SubscriptionID     string
	SubscriptionStatus string

	Metadata Metadata
}

type rawEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object rawObject `json:"object"`
	} `json:"data"`
}

type rawObject struct {
	ID              string            `json:"id"`
	Object          string            `json:"object"`
	Status          string            `json:"status"`
	AmountTotal     *int64            `json:"amount_total"`
	AmountDue       *int64            `json:"amount_due"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email"`
	Subscription    string            `json:"subscription"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// decodes a processor webhook body into an Event
func ParseEvent(body []byte) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if raw.ID == "" || raw.Type == "" {
		return nil, fmt.Errorf("%w: missing id or type", ErrInvalidEvent)
	}

	ev := &Event{
		ID:        raw.ID,
		Type:      EventUnknown,
		RawType:   raw.Type,
		CreatedAt: time.Unix(raw.Created, 0).UTC(),
	}

	if t, ok := processorTypes[raw.Type]; ok {
		ev.Type = t
	}

	obj := raw.Data.Object

	ev.Currency = strings.ToUpper(obj.Currency)
	ev.CustomerEmail = obj.CustomerEmail
	if ev.CustomerEmail == "" {
		ev.CustomerEmail = obj.CustomerDetails.Email
	}

	switch ev.Type {
	case EventCheckoutCompleted:
		ev.CheckoutSessionID = obj.ID
		ev.SubscriptionID = obj.Subscription
		ev.AmountTotal = minorToMajor(obj.AmountTotal)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		ev.SubscriptionID = obj.ID
		ev.SubscriptionStatus = obj.Status
	case EventInvoicePaymentFailed:
		ev.SubscriptionID = obj.Subscription
		ev.AmountTotal = minorToMajor(obj.AmountDue)
	}

	md, err := parseMetadata(obj.Metadata)
	if err != nil {
		return nil, err
	}

	ev.Metadata = md

	return ev, nil
}

func parseMetadata(m map[string]string) (Metadata, error) {
	md := Metadata{
		UserID:             m["user_id"],
		PlanID:             m["plan_id"],
		OrganizationPlanID: m["organization_plan_id"],
		ReferrerID:         m["referrer_id"],
		CouponCode:         m["coupon_code"],
	}

	if raw := m["team_size"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return md, fmt.Errorf("%w: team_size %q", ErrInvalidEvent, raw)
		}

		md.TeamSize = n
	}

	if raw := m["tokens"]; raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return md, fmt.Errorf("%w: tokens %q", ErrInvalidEvent, raw)
		}

		md.Tokens = n
	}

	return md, nil
}

// amounts arrive in the currency's minor unit (cents)
func minorToMajor(v *int64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}

	return decimal.New(*v, -2)
}
