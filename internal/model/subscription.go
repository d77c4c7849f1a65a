package model

import "time"

type Subscription struct {
	ID            string    `json:"id" db:"id"`
	AccountID     string    `json:"account_id" db:"account_id"`
	Plan          string    `json:"plan" db:"plan"`
	BillingCycle  string    `json:"billing_cycle" db:"billing_cycle"`
	PaymentStatus string    `json:"payment_status" db:"payment_status"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	StartDate     time.Time `json:"start_date" db:"start_date"`
	EndDate       time.Time `json:"end_date" db:"end_date"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Settled reports whether the subscription's payment state allows use.
// Free-tier subscriptions carry the FREE payment status and count as
// settled.
func (s *Subscription) Settled() bool {
	return s.PaymentStatus == PaymentStatusSuccess || s.PaymentStatus == PaymentStatusFree
}

// ExpiredAt reports whether the subscription has lapsed at the given
// time, compared at date granularity.
func (s *Subscription) ExpiredAt(now time.Time) bool {
	today := now.UTC().Truncate(24 * time.Hour)
	end := s.EndDate.UTC().Truncate(24 * time.Hour)
	return today.After(end)
}
