package model

import "math"

// Plan tiers.
const (
	PlanFree    = "FREE"
	PlanBasic   = "BASIC"
	PlanPremium = "PREMIUM"
)

// Unlimited marks a ceiling that is never enforced.
const Unlimited = math.MaxInt64

// PlanLimits holds the resource ceilings for a subscription tier.
type PlanLimits struct {
	MaxDomains        int64
	MaxMailboxes      int64
	MaxSentEmails     int64
	MaxReceivedEmails int64
	AllowedStorageMB  int64
}

var planLimits = map[string]PlanLimits{
	PlanFree: {
		MaxDomains:        1,
		MaxMailboxes:      1,
		MaxSentEmails:     50,
		MaxReceivedEmails: 500,
		AllowedStorageMB:  1024,
	},
	PlanBasic: {
		MaxDomains:        3,
		MaxMailboxes:      10,
		MaxSentEmails:     1000,
		MaxReceivedEmails: 10000,
		AllowedStorageMB:  10240,
	},
	PlanPremium: {
		MaxDomains:        10,
		MaxMailboxes:      50,
		MaxSentEmails:     Unlimited,
		MaxReceivedEmails: Unlimited,
		AllowedStorageMB:  51200,
	},
}

// ValidPlan reports whether the plan name is a known tier.
func ValidPlan(plan string) bool {
	_, ok := planLimits[plan]
	return ok
}

// ValidBillingCycle reports whether the cycle is MONTHLY or YEARLY.
func ValidBillingCycle(cycle string) bool {
	return cycle == BillingCycleMonthly || cycle == BillingCycleYearly
}

// LimitsFor returns the ceilings for a plan and billing cycle. Unknown
// plans fall back to the free tier. Yearly billing raises every bounded
// ceiling by 1.5x; unlimited ceilings stay unlimited.
func LimitsFor(plan, billingCycle string) PlanLimits {
	limits, ok := planLimits[plan]
	if !ok {
		limits = planLimits[PlanFree]
	}
	if billingCycle != BillingCycleYearly {
		return limits
	}
	return PlanLimits{
		MaxDomains:        scaleCeiling(limits.MaxDomains),
		MaxMailboxes:      scaleCeiling(limits.MaxMailboxes),
		MaxSentEmails:     scaleCeiling(limits.MaxSentEmails),
		MaxReceivedEmails: scaleCeiling(limits.MaxReceivedEmails),
		AllowedStorageMB:  scaleCeiling(limits.AllowedStorageMB),
	}
}

func scaleCeiling(n int64) int64 {
	if n == Unlimited {
		return Unlimited
	}
	return n * 3 / 2
}
