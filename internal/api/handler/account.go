package handler

import (
	"net/http"

	mw "github.com/edvin/mailhost/internal/api/middleware"
	"github.com/edvin/mailhost/internal/api/request"
	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/core"
	"github.com/go-chi/chi/v5"
)

type Account struct {
	svc *core.AccountService
}

func NewAccount(svc *core.AccountService) *Account {
	return &Account{svc: svc}
}

// Signup registers a new account. The raw API key is returned exactly
// once; only its hash is stored.
func (h *Account) Signup(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAccount
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, rawKey, err := h.svc.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"account": account,
		"api_key": rawKey,
	})
}

func (h *Account) Get(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, mw.GetAccount(r.Context()))
}

func (h *Account) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	account := mw.GetAccount(r.Context())

	rawKey, err := h.svc.CreateAPIKey(r.Context(), account.ID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]string{"api_key": rawKey})
}

func (h *Account) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "keyID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account := mw.GetAccount(r.Context())
	if err := h.svc.RevokeAPIKey(r.Context(), account.ID, id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
