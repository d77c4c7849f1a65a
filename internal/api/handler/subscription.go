package handler

import (
	"net/http"
	"time"

	mw "github.com/edvin/mailhost/internal/api/middleware"
	"github.com/edvin/mailhost/internal/api/request"
	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/platform"
)

type Subscription struct {
	svc *core.SubscriptionService
}

func NewSubscription(svc *core.SubscriptionService) *Subscription {
	return &Subscription{svc: svc}
}

// Create starts or renews the account's subscription. Payment happens
// upstream; the FREE plan carries its own payment status.
func (h *Subscription) Create(w http.ResponseWriter, r *http.Request) {
	account := mw.GetAccount(r.Context())

	var req request.CreateSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	paymentStatus := model.PaymentStatusSuccess
	if req.Plan == model.PlanFree {
		paymentStatus = model.PaymentStatusFree
	}

	now := time.Now().UTC()
	sub := &model.Subscription{
		ID:            platform.NewID(),
		AccountID:     account.ID,
		Plan:          req.Plan,
		BillingCycle:  req.BillingCycle,
		PaymentStatus: paymentStatus,
		IsActive:      true,
		StartDate:     now,
		EndDate:       core.PeriodEnd(now, req.BillingCycle),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.svc.CreateOrRenew(r.Context(), sub); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Subscription) Current(w http.ResponseWriter, r *http.Request) {
	account := mw.GetAccount(r.Context())

	sub, err := h.svc.Current(r.Context(), account.ID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sub == nil {
		response.WriteError(w, http.StatusNotFound, "no active subscription")
		return
	}

	response.WriteJSON(w, http.StatusOK, sub)
}
