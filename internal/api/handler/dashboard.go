package handler

import (
	"net/http"

	mw "github.com/edvin/mailhost/internal/api/middleware"
	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/core"
)

type Dashboard struct {
	svc *core.DashboardService
}

func NewDashboard(svc *core.DashboardService) *Dashboard {
	return &Dashboard{svc: svc}
}

func (h *Dashboard) Stats(w http.ResponseWriter, r *http.Request) {
	account := mw.GetAccount(r.Context())

	stats, err := h.svc.Stats(r.Context(), account.ID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, stats)
}
