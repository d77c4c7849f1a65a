package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mailhost/internal/model"
)

func TestSubscriptionService_CreateOrRenew_DeactivatesThenInserts(t *testing.T) {
	db := &mockDB{}
	svc := NewSubscriptionService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "SET is_active = false")
	}), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()
	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO subscriptions")
	}), mock.Anything).Return(pgconn.CommandTag{}, nil).Once()

	start := time.Now()
	err := svc.CreateOrRenew(ctx, &model.Subscription{
		ID:            "test-sub-1",
		AccountID:     "test-account-1",
		Plan:          model.PlanBasic,
		BillingCycle:  model.BillingCycleYearly,
		PaymentStatus: model.PaymentStatusSuccess,
		IsActive:      true,
		StartDate:     start,
		EndDate:       PeriodEnd(start, model.BillingCycleYearly),
	})
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestSubscriptionService_CreateOrRenew_InvalidPlan(t *testing.T) {
	db := &mockDB{}
	svc := NewSubscriptionService(db)

	err := svc.CreateOrRenew(context.Background(), &model.Subscription{Plan: "GOLD", BillingCycle: model.BillingCycleMonthly})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid plan")
	db.AssertExpectations(t)
}

func TestSubscriptionService_Current_None(t *testing.T) {
	db := &mockDB{}
	svc := NewSubscriptionService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return pgx.ErrNoRows
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	sub, err := svc.Current(ctx, "test-account-1")
	require.NoError(t, err)
	assert.Nil(t, sub)
	db.AssertExpectations(t)
}

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), PeriodEnd(start, model.BillingCycleMonthly))
	assert.Equal(t, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC), PeriodEnd(start, model.BillingCycleYearly))
}
