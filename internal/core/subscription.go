package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhost/internal/model"
)

type SubscriptionService struct {
	db DB
}

func NewSubscriptionService(db DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// CreateOrRenew deactivates the account's current subscription and
// inserts the new one. Payment verification happens upstream; this
// records the settled result.
func (s *SubscriptionService) CreateOrRenew(ctx context.Context, sub *model.Subscription) error {
	if !model.ValidPlan(sub.Plan) {
		return fmt.Errorf("invalid plan %q", sub.Plan)
	}
	if !model.ValidBillingCycle(sub.BillingCycle) {
		return fmt.Errorf("invalid billing cycle %q", sub.BillingCycle)
	}

	_, err := s.db.Exec(ctx,
		`UPDATE subscriptions SET is_active = false, updated_at = $1 WHERE account_id = $2 AND is_active`,
		time.Now().UTC(), sub.AccountID,
	)
	if err != nil {
		return fmt.Errorf("deactivate subscriptions for account %s: %w", sub.AccountID, err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO subscriptions (id, account_id, plan, billing_cycle, payment_status, is_active, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.AccountID, sub.Plan, sub.BillingCycle, sub.PaymentStatus,
		sub.IsActive, sub.StartDate, sub.EndDate, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Current returns the account's active subscription, or (nil, nil) when
// none exists.
func (s *SubscriptionService) Current(ctx context.Context, accountID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.QueryRow(ctx,
		`SELECT id, account_id, plan, billing_cycle, payment_status, is_active, start_date, end_date, created_at, updated_at
		 FROM subscriptions
		 WHERE account_id = $1 AND is_active
		 ORDER BY end_date DESC
		 LIMIT 1`, accountID,
	).Scan(&sub.ID, &sub.AccountID, &sub.Plan, &sub.BillingCycle, &sub.PaymentStatus,
		&sub.IsActive, &sub.StartDate, &sub.EndDate, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current subscription for account %s: %w", accountID, err)
	}
	return &sub, nil
}

// PeriodEnd computes the subscription end date for a billing cycle.
func PeriodEnd(start time.Time, billingCycle string) time.Time {
	if billingCycle == model.BillingCycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
