package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/mailhost/internal/api/middleware"
	"github.com/edvin/mailhost/internal/api/request"
	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/platform"
)

type Mailbox struct {
	svc       *core.MailboxService
	domains   *core.DomainService
	admission *core.AdmissionService
}

func NewMailbox(svc *core.MailboxService, domains *core.DomainService, admission *core.AdmissionService) *Mailbox {
	return &Mailbox{svc: svc, domains: domains, admission: admission}
}

func (h *Mailbox) Create(w http.ResponseWriter, r *http.Request) {
	account := mw.GetAccount(r.Context())

	domainID, err := request.RequireID(chi.URLParam(r, "domainID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := requireDomain(w, r, h.domains, domainID)
	if d == nil {
		return
	}

	var req request.CreateMailbox
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := h.admission.AllowCreateMailbox(r.Context(), account.ID)
	if !writeDecision(w, decision, err) {
		return
	}

	now := time.Now()
	m := &model.Mailbox{
		ID:          platform.NewID(),
		DomainID:    d.ID,
		AccountID:   account.ID,
		Address:     strings.ToLower(req.LocalPart) + "@" + d.Name,
		DisplayName: req.DisplayName,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.svc.Create(r.Context(), m, req.Password); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, m)
}

func (h *Mailbox) ListByDomain(w http.ResponseWriter, r *http.Request) {
	domainID, err := request.RequireID(chi.URLParam(r, "domainID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := requireDomain(w, r, h.domains, domainID)
	if d == nil {
		return
	}

	pg := request.ParsePagination(r)
	mailboxes, hasMore, err := h.svc.ListByDomain(r.Context(), d.ID, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(mailboxes) > 0 {
		nextCursor = mailboxes[len(mailboxes)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, mailboxes, nextCursor, hasMore)
}

func (h *Mailbox) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "mailboxID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := requireMailbox(w, r, h.svc, id)
	if m == nil {
		return
	}
	response.WriteJSON(w, http.StatusOK, m)
}

func (h *Mailbox) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "mailboxID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := requireMailbox(w, r, h.svc, id)
	if m == nil {
		return
	}

	if err := h.svc.Delete(r.Context(), m.ID); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
