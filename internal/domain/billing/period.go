package billing

import "time"

const day = 24 * time.Hour

// PeriodEnd computes the end of a billing period. Months are a flat 30 days
// and years a flat 365; changing this shifts downstream billing amounts, so
// calendar-exact arithmetic is intentionally not used.
func PeriodEnd(start time.Time, interval BillingInterval, count int) time.Time {
	if count < 1 {
		count = 1
	}
	switch interval {
	case IntervalDaily:
		return start.Add(time.Duration(count) * day)
	case IntervalWeekly:
		return start.Add(time.Duration(count) * 7 * day)
	case IntervalMonthly:
		return start.Add(time.Duration(count) * 30 * day)
	default:
		return start.Add(time.Duration(count) * 365 * day)
	}
}

// TrialEnd returns nil when the plan carries no trial.
func TrialEnd(start time.Time, trialDays int) *time.Time {
	if trialDays <= 0 {
		return nil
	}
	t := start.Add(time.Duration(trialDays) * day)
	return &t
}
