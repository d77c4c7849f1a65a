package request

type CreateSubscription struct {
	Plan         string `json:"plan" validate:"required,oneof=FREE BASIC PREMIUM"`
	BillingCycle string `json:"billing_cycle" validate:"required,oneof=MONTHLY YEARLY"`
}
