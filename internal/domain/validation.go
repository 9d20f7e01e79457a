package domain

import (
	"strings"
	"time"
)

// RejectionCode names the first business rule a membership request violated
type RejectionCode string

const (
	RejectMissingMandatoryFields         RejectionCode = "MISSING_MANDATORY_FIELDS"
	RejectNegativeRecurringPrice         RejectionCode = "NEGATIVE_RECURRING_PRICE"
	RejectCashPriceBelow100              RejectionCode = "CASH_PRICE_BELOW_100"
	RejectBillingPeriodsMoreThan12Months RejectionCode = "BILLING_PERIODS_MORE_THAN_12_MONTHS"
	RejectBillingPeriodsLessThan6Months  RejectionCode = "BILLING_PERIODS_LESS_THAN_6_MONTHS"
	RejectBillingPeriodsMoreThan10Years  RejectionCode = "BILLING_PERIODS_MORE_THAN_10_YEARS"
	RejectBillingPeriodsLessThan3Years   RejectionCode = "BILLING_PERIODS_LESS_THAN_3_YEARS"
	RejectInvalidBillingPeriods          RejectionCode = "INVALID_BILLING_PERIODS"
	RejectInvalidValidFrom               RejectionCode = "INVALID_VALID_FROM"
)

var rejectionMessages = map[RejectionCode]string{
	RejectMissingMandatoryFields:         "missingMandatoryFields",
	RejectNegativeRecurringPrice:         "negativeRecurringPrice",
	RejectCashPriceBelow100:              "cashPriceBelow100",
	RejectBillingPeriodsMoreThan12Months: "billingPeriodsMoreThan12Months",
	RejectBillingPeriodsLessThan6Months:  "billingPeriodsLessThan6Months",
	RejectBillingPeriodsMoreThan10Years:  "billingPeriodsMoreThan10Years",
	RejectBillingPeriodsLessThan3Years:   "billingPeriodsLessThan3Years",
	RejectInvalidBillingPeriods:          "invalidBillingPeriods",
	RejectInvalidValidFrom:               "invalidValidFrom",
}

// Message returns the client-facing message for the code
func (c RejectionCode) Message() string {
	if msg, ok := rejectionMessages[c]; ok {
		return msg
	}
	return string(c)
}

// CreateMembershipInput is the loosely typed creation request as received from a client.
// Zero values mean the field was absent.
type CreateMembershipInput struct {
	Name            string  `json:"name"`
	RecurringPrice  float64 `json:"recurringPrice"`
	PaymentMethod   string  `json:"paymentMethod"`
	BillingInterval string  `json:"billingInterval"`
	BillingPeriods  int     `json:"billingPeriods"`
	ValidFrom       string  `json:"validFrom"`
}

// MembershipCreation is a creation request that passed every business rule
type MembershipCreation struct {
	Name            string
	PaymentMethod   string
	RecurringPrice  float64
	BillingInterval BillingInterval
	BillingPeriods  int
	ValidFrom       time.Time
}

// ValidateMembershipCreation applies the billing rules in order and stops at the first violation.
// ValidFrom defaults to clock.Now() when the request does not carry one.
func ValidateMembershipCreation(input CreateMembershipInput, clock Clock) (*MembershipCreation, *ValidationError) {
	if input.Name == "" || input.RecurringPrice == 0 {
		return nil, NewValidationError(RejectMissingMandatoryFields)
	}
	if input.RecurringPrice < 0 {
		return nil, NewValidationError(RejectNegativeRecurringPrice)
	}
	if input.RecurringPrice > 100 && input.PaymentMethod == PaymentMethodCash {
		return nil, NewValidationError(RejectCashPriceBelow100)
	}

	interval := BillingInterval(input.BillingInterval)
	switch interval {
	case BillingIntervalMonthly:
		if input.BillingPeriods > 12 {
			return nil, NewValidationError(RejectBillingPeriodsMoreThan12Months)
		}
		if input.BillingPeriods < 6 {
			return nil, NewValidationError(RejectBillingPeriodsLessThan6Months)
		}
	case BillingIntervalYearly:
		// Only 1-3 years are sold; the message names are historical.
		if input.BillingPeriods > 10 {
			return nil, NewValidationError(RejectBillingPeriodsMoreThan10Years)
		}
		if input.BillingPeriods > 3 {
			return nil, NewValidationError(RejectBillingPeriodsLessThan3Years)
		}
	default:
		return nil, NewValidationError(RejectInvalidBillingPeriods)
	}

	validFrom := clock.Now()
	if input.ValidFrom != "" {
		parsed, err := ParseValidFrom(input.ValidFrom)
		if err != nil {
			return nil, NewValidationError(RejectInvalidValidFrom)
		}
		validFrom = parsed
	}

	return &MembershipCreation{
		Name:            input.Name,
		PaymentMethod:   input.PaymentMethod,
		RecurringPrice:  input.RecurringPrice,
		BillingInterval: interval,
		BillingPeriods:  input.BillingPeriods,
		ValidFrom:       validFrom,
	}, nil
}

// ParseValidFrom accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (midnight UTC)
func ParseValidFrom(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
