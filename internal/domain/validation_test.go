package domain

import (
	"testing"
	"time"
)

func validInput() CreateMembershipInput {
	return CreateMembershipInput{
		Name:            "Gold Plan",
		RecurringPrice:  50,
		PaymentMethod:   PaymentMethodCreditCard,
		BillingInterval: "monthly",
		BillingPeriods:  6,
	}
}

func TestValidateMembershipCreation_Rejections(t *testing.T) {
	clock := FixedClock(date(2024, 1, 1))

	tests := []struct {
		name    string
		mutate  func(in *CreateMembershipInput)
		want    RejectionCode
		message string
	}{
		{"missing name", func(in *CreateMembershipInput) { in.Name = "" }, RejectMissingMandatoryFields, "missingMandatoryFields"},
		{"missing price", func(in *CreateMembershipInput) { in.RecurringPrice = 0 }, RejectMissingMandatoryFields, "missingMandatoryFields"},
		{"missing name wins over negative price", func(in *CreateMembershipInput) {
			in.Name = ""
			in.RecurringPrice = -10
		}, RejectMissingMandatoryFields, "missingMandatoryFields"},
		{"negative price", func(in *CreateMembershipInput) { in.RecurringPrice = -10 }, RejectNegativeRecurringPrice, "negativeRecurringPrice"},
		{"negative cash price is negative, not cash cap", func(in *CreateMembershipInput) {
			in.RecurringPrice = -200
			in.PaymentMethod = PaymentMethodCash
		}, RejectNegativeRecurringPrice, "negativeRecurringPrice"},
		{"cash above 100", func(in *CreateMembershipInput) {
			in.RecurringPrice = 101
			in.PaymentMethod = PaymentMethodCash
		}, RejectCashPriceBelow100, "cashPriceBelow100"},
		{"cash cap wins over bad periods", func(in *CreateMembershipInput) {
			in.RecurringPrice = 150
			in.PaymentMethod = PaymentMethodCash
			in.BillingPeriods = 40
		}, RejectCashPriceBelow100, "cashPriceBelow100"},
		{"monthly above 12", func(in *CreateMembershipInput) { in.BillingPeriods = 13 }, RejectBillingPeriodsMoreThan12Months, "billingPeriodsMoreThan12Months"},
		{"monthly below 6", func(in *CreateMembershipInput) { in.BillingPeriods = 5 }, RejectBillingPeriodsLessThan6Months, "billingPeriodsLessThan6Months"},
		{"monthly missing periods", func(in *CreateMembershipInput) { in.BillingPeriods = 0 }, RejectBillingPeriodsLessThan6Months, "billingPeriodsLessThan6Months"},
		{"yearly above 10", func(in *CreateMembershipInput) {
			in.BillingInterval = "yearly"
			in.BillingPeriods = 11
		}, RejectBillingPeriodsMoreThan10Years, "billingPeriodsMoreThan10Years"},
		{"yearly between 4 and 10", func(in *CreateMembershipInput) {
			in.BillingInterval = "yearly"
			in.BillingPeriods = 5
		}, RejectBillingPeriodsLessThan3Years, "billingPeriodsLessThan3Years"},
		{"yearly exactly 4", func(in *CreateMembershipInput) {
			in.BillingInterval = "yearly"
			in.BillingPeriods = 4
		}, RejectBillingPeriodsLessThan3Years, "billingPeriodsLessThan3Years"},
		{"weekly is not sold", func(in *CreateMembershipInput) { in.BillingInterval = "weekly" }, RejectInvalidBillingPeriods, "invalidBillingPeriods"},
		{"missing interval", func(in *CreateMembershipInput) { in.BillingInterval = "" }, RejectInvalidBillingPeriods, "invalidBillingPeriods"},
		{"unparseable validFrom", func(in *CreateMembershipInput) { in.ValidFrom = "next tuesday" }, RejectInvalidValidFrom, "invalidValidFrom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			got, verr := ValidateMembershipCreation(in, clock)
			if verr == nil {
				t.Fatalf("expected rejection %s, got %+v", tt.want, got)
			}
			if verr.Code != tt.want {
				t.Errorf("code = %s, want %s", verr.Code, tt.want)
			}
			if verr.Message() != tt.message {
				t.Errorf("message = %q, want %q", verr.Message(), tt.message)
			}
		})
	}
}

func TestValidateMembershipCreation_Accepts(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	clock := FixedClock(now)

	tests := []struct {
		name          string
		mutate        func(in *CreateMembershipInput)
		wantValidFrom time.Time
	}{
		{"monthly 6 defaults validFrom to now", func(in *CreateMembershipInput) {}, now},
		{"monthly 12", func(in *CreateMembershipInput) { in.BillingPeriods = 12 }, now},
		{"cash exactly 100", func(in *CreateMembershipInput) {
			in.RecurringPrice = 100
			in.PaymentMethod = PaymentMethodCash
		}, now},
		{"unrecognized payment method passes through", func(in *CreateMembershipInput) { in.PaymentMethod = "paypal" }, now},
		{"yearly 1", func(in *CreateMembershipInput) {
			in.BillingInterval = "yearly"
			in.BillingPeriods = 1
		}, now},
		{"yearly 3", func(in *CreateMembershipInput) {
			in.BillingInterval = "yearly"
			in.BillingPeriods = 3
		}, now},
		{"rfc3339 validFrom", func(in *CreateMembershipInput) { in.ValidFrom = "2023-01-01T00:00:00Z" }, date(2023, 1, 1)},
		{"offset validFrom normalized to utc", func(in *CreateMembershipInput) { in.ValidFrom = "2023-01-01T02:00:00+02:00" }, date(2023, 1, 1)},
		{"date-only validFrom", func(in *CreateMembershipInput) { in.ValidFrom = "2023-05-17" }, date(2023, 5, 17)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			got, verr := ValidateMembershipCreation(in, clock)
			if verr != nil {
				t.Fatalf("unexpected rejection %s", verr.Code)
			}
			if !got.ValidFrom.Equal(tt.wantValidFrom) {
				t.Errorf("ValidFrom = %v, want %v", got.ValidFrom, tt.wantValidFrom)
			}
			if got.Name != in.Name || got.RecurringPrice != in.RecurringPrice || got.PaymentMethod != in.PaymentMethod {
				t.Errorf("fields not passed through: %+v", got)
			}
			if string(got.BillingInterval) != in.BillingInterval || got.BillingPeriods != in.BillingPeriods {
				t.Errorf("billing config not passed through: %+v", got)
			}
		})
	}
}

func TestRejectionCode_UnknownMessage(t *testing.T) {
	if got := RejectionCode("SOMETHING_ELSE").Message(); got != "SOMETHING_ELSE" {
		t.Errorf("Message() = %q", got)
	}
}
