package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhost/internal/model"
)

// Decision is the outcome of an admission check. Reason is set only on
// denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// AdmissionService gates resource creation and mail flow against the
// account's subscription state and plan ceilings. Checks are a handful
// of indexed point lookups: the receive check runs on every RCPT TO of
// every inbound session and again defensively at fan-out.
type AdmissionService struct {
	db  DB
	now func() time.Time
}

func NewAdmissionService(db DB) *AdmissionService {
	return &AdmissionService{db: db, now: time.Now}
}

// AllowReceive decides whether the account may receive one more
// message right now.
func (s *AdmissionService) AllowReceive(ctx context.Context, accountID string) (Decision, error) {
	return s.check(ctx, accountID, func(limits model.PlanLimits) (string, int64, string) {
		return `SELECT COUNT(*) FROM received_emails WHERE account_id = $1`,
			limits.MaxReceivedEmails, "received message"
	})
}

// AllowSend decides whether the account may send one more message.
func (s *AdmissionService) AllowSend(ctx context.Context, accountID string) (Decision, error) {
	return s.check(ctx, accountID, func(limits model.PlanLimits) (string, int64, string) {
		return `SELECT COUNT(*) FROM sent_emails WHERE account_id = $1`,
			limits.MaxSentEmails, "sent message"
	})
}

// AllowCreateDomain decides whether the account may register another
// domain.
func (s *AdmissionService) AllowCreateDomain(ctx context.Context, accountID string) (Decision, error) {
	return s.check(ctx, accountID, func(limits model.PlanLimits) (string, int64, string) {
		return `SELECT COUNT(*) FROM domains WHERE account_id = $1`,
			limits.MaxDomains, "domain"
	})
}

// AllowCreateMailbox decides whether the account may provision another
// mailbox.
func (s *AdmissionService) AllowCreateMailbox(ctx context.Context, accountID string) (Decision, error) {
	return s.check(ctx, accountID, func(limits model.PlanLimits) (string, int64, string) {
		return `SELECT COUNT(*) FROM mailboxes WHERE account_id = $1`,
			limits.MaxMailboxes, "mailbox"
	})
}

func (s *AdmissionService) check(ctx context.Context, accountID string, pick func(model.PlanLimits) (string, int64, string)) (Decision, error) {
	sub, err := s.activeSubscription(ctx, accountID)
	if err != nil {
		return Decision{}, err
	}
	if sub == nil {
		return deny("no active subscription"), nil
	}
	if !sub.Settled() {
		return deny("subscription payment not settled"), nil
	}
	if sub.ExpiredAt(s.now()) {
		return deny("subscription expired"), nil
	}

	limits := model.LimitsFor(sub.Plan, sub.BillingCycle)
	query, ceiling, resource := pick(limits)
	if ceiling == model.Unlimited {
		return allow(), nil
	}

	var count int64
	if err := s.db.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		return Decision{}, fmt.Errorf("count %ss for account %s: %w", resource, accountID, err)
	}
	if count >= ceiling {
		return deny(fmt.Sprintf("plan limit exceeded: max %d %ss for %s plan", ceiling, resource, sub.Plan)), nil
	}
	return allow(), nil
}

func (s *AdmissionService) activeSubscription(ctx context.Context, accountID string) (*model.Subscription, error) {
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
		return nil, fmt.Errorf("get active subscription for account %s: %w", accountID, err)
	}
	return &sub, nil
}
