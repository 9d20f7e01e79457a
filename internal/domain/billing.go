package domain

import "time"

const (
	daysInWeek   = 7
	monthsInYear = 12
)

// CalculateValidUntil advances start by count billing intervals.
// Month overflow follows time.AddDate normalization, so Jan 31 + 1 month lands in March.
// Unknown intervals return start unchanged.
func CalculateValidUntil(start time.Time, count int, interval BillingInterval) time.Time {
	switch interval {
	case BillingIntervalMonthly:
		return start.AddDate(0, count, 0)
	case BillingIntervalYearly:
		return start.AddDate(0, count*monthsInYear, 0)
	case BillingIntervalWeekly:
		return start.AddDate(0, 0, count*daysInWeek)
	default:
		return start
	}
}

// ClassifyState derives the lifecycle state of the window [start, end) relative to now.
// A future start always wins over a past end.
func ClassifyState(start, end, now time.Time) MembershipState {
	if start.After(now) {
		return MembershipStatePending
	}
	if end.Before(now) {
		return MembershipStateExpired
	}
	return MembershipStateActive
}

// GeneratePeriods splits the window starting at start into count contiguous periods
// of one interval each. Every period starts where the previous one ended.
func GeneratePeriods(start time.Time, count int, interval BillingInterval, membershipID int64, ids IDGenerator) []*MembershipPeriod {
	if count <= 0 {
		return []*MembershipPeriod{}
	}

	periods := make([]*MembershipPeriod, 0, count)
	periodStart := start
	for i := 0; i < count; i++ {
		periodEnd := CalculateValidUntil(periodStart, 1, interval)
		periods = append(periods, &MembershipPeriod{
			ID:           i + 1,
			UUID:         ids.NewID(),
			MembershipID: membershipID,
			Start:        periodStart,
			End:          periodEnd,
			State:        PeriodStatePlanned,
		})
		periodStart = periodEnd
	}
	return periods
}
