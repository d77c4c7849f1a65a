package model

// Domain verification statuses.
const (
	DomainStatusPending  = "PENDING"
	DomainStatusVerified = "VERIFIED"
)

// Outbound message statuses.
const (
	MessageStatusSent   = "SENT"
	MessageStatusFailed = "FAILED"
)

// Subscription payment statuses.
const (
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFree    = "FREE"
	PaymentStatusPending = "PENDING"
	PaymentStatusFailed  = "FAILED"
)

// Billing cycles.
const (
	BillingCycleMonthly = "MONTHLY"
	BillingCycleYearly  = "YEARLY"
)
