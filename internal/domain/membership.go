package domain

import (
	"context"
	"time"
)

// BillingInterval is the repeating unit of a membership's billing cycle
type BillingInterval string

const (
	BillingIntervalWeekly  BillingInterval = "weekly"
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

// MembershipState is the lifecycle classification of a membership at creation time
type MembershipState string

const (
	MembershipStatePending MembershipState = "pending"
	MembershipStateActive  MembershipState = "active"
	MembershipStateExpired MembershipState = "expired"
)

// PeriodState is the bookkeeping state of a single billing period
type PeriodState string

const (
	PeriodStatePlanned   PeriodState = "planned"
	PeriodStateIssued    PeriodState = "issued"
	PeriodStateCancelled PeriodState = "cancelled"
)

// Recognized payment methods. Other values are stored as given.
const (
	PaymentMethodCash       = "cash"
	PaymentMethodCreditCard = "creditCard"
)

// Membership is a subscription agreement with a fixed validity window
type Membership struct {
	ID              int64           `bson:"_id" json:"id"`
	UUID            string          `bson:"uuid" json:"uuid"`
	Name            string          `bson:"name" json:"name"`
	UserID          int64           `bson:"user_id" json:"user"`
	PaymentMethod   string          `bson:"payment_method,omitempty" json:"paymentMethod,omitempty"`
	RecurringPrice  float64         `bson:"recurring_price" json:"recurringPrice"`
	BillingInterval BillingInterval `bson:"billing_interval" json:"billingInterval"`
	BillingPeriods  int             `bson:"billing_periods" json:"billingPeriods"`
	ValidFrom       time.Time       `bson:"valid_from" json:"validFrom"`
	ValidUntil      time.Time       `bson:"valid_until" json:"validUntil"`
	State           MembershipState `bson:"state" json:"state"`
	CreatedAt       time.Time       `bson:"created_at,omitempty" json:"-"`
}

// MembershipPeriod is one billing sub-interval of a membership.
// ID is the sequence number within the owning membership, starting at 1.
type MembershipPeriod struct {
	ID           int         `bson:"sequence" json:"id"`
	UUID         string      `bson:"_id" json:"uuid"`
	MembershipID int64       `bson:"membership_id" json:"membershipId"`
	Start        time.Time   `bson:"start" json:"start"`
	End          time.Time   `bson:"end" json:"end"`
	State        PeriodState `bson:"state" json:"state"`
}

// MembershipWithPeriods pairs a membership with the periods it owns
type MembershipWithPeriods struct {
	Membership *Membership         `json:"membership"`
	Periods    []*MembershipPeriod `json:"periods"`
}

// MembershipRepository stores memberships.
// Create assigns the next sequential ID and appends the record as one atomic step.
type MembershipRepository interface {
	Create(ctx context.Context, membership *Membership) error
	GetByID(ctx context.Context, id int64) (*Membership, error)
	List(ctx context.Context) ([]*Membership, error)
}

// MembershipPeriodRepository stores the periods owned by memberships
type MembershipPeriodRepository interface {
	CreateMany(ctx context.Context, periods []*MembershipPeriod) error
	ListByMembership(ctx context.Context, membershipID int64) ([]*MembershipPeriod, error)
}

// Transactor runs fn so that every repository write inside it commits or fails together,
// as far as the backing store supports it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactor runs fn directly without any transactional boundary
type NoopTransactor struct{}

func (NoopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
