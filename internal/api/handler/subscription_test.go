package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
)

func TestSubscriptionCreate_UnknownPlan(t *testing.T) {
	h := NewSubscription(nil)
	rec := httptest.NewRecorder()
	r := withAccount(newRequest(http.MethodPost, "/subscriptions", map[string]any{
		"plan":          "GOLD",
		"billing_cycle": "MONTHLY",
	}), testAccount())

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "validation error")
}

func TestSubscriptionCreate_FreePlanCarriesFreePaymentStatus(t *testing.T) {
	db := &handlerMockDB{}
	db.On("Exec", mock.Anything, sqlContains("UPDATE subscriptions SET is_active = false"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()

	var inserted []any
	db.On("Exec", mock.Anything, sqlContains("INSERT INTO subscriptions"), mock.Anything).
		Run(func(args mock.Arguments) { inserted = args.Get(2).([]any) }).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()

	h := NewSubscription(core.NewSubscriptionService(db))
	rec := httptest.NewRecorder()
	r := withAccount(newRequest(http.MethodPost, "/subscriptions", map[string]any{
		"plan":          "FREE",
		"billing_cycle": "MONTHLY",
	}), testAccount())

	h.Create(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	// insert order: id, account_id, plan, billing_cycle, payment_status, ...
	assert.Equal(t, model.PlanFree, inserted[2])
	assert.Equal(t, model.PaymentStatusFree, inserted[4])
	db.AssertExpectations(t)
}

func TestSubscriptionCurrent_None(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, sqlContains("FROM subscriptions"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}).Once()

	h := NewSubscription(core.NewSubscriptionService(db))
	rec := httptest.NewRecorder()
	r := withAccount(newRequest(http.MethodGet, "/subscriptions/current", nil), testAccount())

	h.Current(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no active subscription", decodeErrorResponse(rec)["error"])
}
