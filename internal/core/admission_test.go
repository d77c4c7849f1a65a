package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mailhost/internal/model"
)

func subscriptionRow(plan, cycle, paymentStatus string, endDate time.Time) *mockRow {
	now := time.Now().Truncate(time.Microsecond)
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "test-sub-1"
		*(dest[1].(*string)) = "test-account-1"
		*(dest[2].(*string)) = plan
		*(dest[3].(*string)) = cycle
		*(dest[4].(*string)) = paymentStatus
		*(dest[5].(*bool)) = true
		*(dest[6].(*time.Time)) = now.AddDate(0, -1, 0)
		*(dest[7].(*time.Time)) = endDate
		*(dest[8].(*time.Time)) = now
		*(dest[9].(*time.Time)) = now
		return nil
	}}
}

func countRow(n int64) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int64)) = n
		return nil
	}}
}

func TestAdmissionService_AllowReceive_UnderCeiling(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	ctx := context.Background()

	subRow := subscriptionRow(model.PlanFree, model.BillingCycleMonthly, model.PaymentStatusFree, time.Now().AddDate(0, 1, 0))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM subscriptions")
	}), mock.Anything).Return(subRow).Once()
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM received_emails")
	}), mock.Anything).Return(countRow(499)).Once()

	decision, err := svc.AllowReceive(ctx, "test-account-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reason)
	db.AssertExpectations(t)
}

func TestAdmissionService_AllowReceive_AtCeiling(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	ctx := context.Background()

	subRow := subscriptionRow(model.PlanFree, model.BillingCycleMonthly, model.PaymentStatusFree, time.Now().AddDate(0, 1, 0))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM subscriptions")
	}), mock.Anything).Return(subRow).Once()
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM received_emails")
	}), mock.Anything).Return(countRow(500)).Once()

	decision, err := svc.AllowReceive(ctx, "test-account-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "plan limit exceeded")
	db.AssertExpectations(t)
}

func TestAdmissionService_AllowReceive_NoSubscription(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return pgx.ErrNoRows
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	decision, err := svc.AllowReceive(ctx, "test-account-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "no active subscription", decision.Reason)
	db.AssertExpectations(t)
}

func TestAdmissionService_AllowReceive_PaymentPending(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	ctx := context.Background()

	subRow := subscriptionRow(model.PlanBasic, model.BillingCycleMonthly, model.PaymentStatusPending, time.Now().AddDate(0, 1, 0))
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(subRow).Once()

	decision, err := svc.AllowReceive(ctx, "test-account-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "subscription payment not settled", decision.Reason)
	db.AssertExpectations(t)
}

func TestAdmissionService_AllowReceive_Expired(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	ctx := context.Background()

	subRow := subscriptionRow(model.PlanBasic, model.BillingCycleMonthly, model.PaymentStatusSuccess, time.Now().AddDate(0, 0, -2))
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(subRow).Once()

	decision, err := svc.AllowReceive(ctx, "test-account-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "subscription expired", decision.Reason)
	db.AssertExpectations(t)
}

// A subscription ending earlier today is still good for the rest of
// the day.
func TestAdmissionService_AllowReceive_EndsToday(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	endDate := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	subRow := subscriptionRow(model.PlanFree, model.BillingCycleMonthly, model.PaymentStatusFree, endDate)
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM subscriptions")
	}), mock.Anything).Return(subRow).Once()
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM received_emails")
	}), mock.Anything).Return(countRow(0)).Once()

	decision, err := svc.AllowReceive(ctx, "test-account-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	db.AssertExpectations(t)
}

// PREMIUM has no receive ceiling, so the count query must be skipped.
func TestAdmissionService_AllowReceive_UnlimitedSkipsCount(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	ctx := context.Background()

	subRow := subscriptionRow(model.PlanPremium, model.BillingCycleMonthly, model.PaymentStatusSuccess, time.Now().AddDate(0, 1, 0))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM subscriptions")
	}), mock.Anything).Return(subRow).Once()

	decision, err := svc.AllowReceive(ctx, "test-account-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	db.AssertExpectations(t)
}

// Yearly BASIC scales the mailbox ceiling from 10 to 15.
func TestAdmissionService_AllowCreateMailbox_YearlyScaledCeiling(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	ctx := context.Background()

	subRow := subscriptionRow(model.PlanBasic, model.BillingCycleYearly, model.PaymentStatusSuccess, time.Now().AddDate(0, 6, 0))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM subscriptions")
	}), mock.Anything).Return(subRow).Once()
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM mailboxes")
	}), mock.Anything).Return(countRow(14)).Once()

	decision, err := svc.AllowCreateMailbox(ctx, "test-account-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	db.AssertExpectations(t)
}

func TestAdmissionService_AllowCreateDomain_AtCeiling(t *testing.T) {
	db := &mockDB{}
	svc := NewAdmissionService(db)
	ctx := context.Background()

	subRow := subscriptionRow(model.PlanFree, model.BillingCycleMonthly, model.PaymentStatusFree, time.Now().AddDate(0, 1, 0))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM subscriptions")
	}), mock.Anything).Return(subRow).Once()
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM domains")
	}), mock.Anything).Return(countRow(1)).Once()

	decision, err := svc.AllowCreateDomain(ctx, "test-account-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "domain")
	db.AssertExpectations(t)
}

