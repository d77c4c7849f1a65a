package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	mw "github.com/edvin/mailhost/internal/api/middleware"
	"github.com/edvin/mailhost/internal/api/request"
	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/platform"
	"github.com/edvin/mailhost/internal/relay"
)

type Domain struct {
	svc       *core.DomainService
	admission *core.AdmissionService
	relay     Relay
	mxHost    string
}

func NewDomain(svc *core.DomainService, admission *core.AdmissionService, rly Relay, mxHost string) *Domain {
	return &Domain{svc: svc, admission: admission, relay: rly, mxHost: mxHost}
}

// Create registers a PENDING domain and returns the DNS records the
// owner must publish. When a relay is configured the domain is also
// registered there so its sender authentication records are included.
func (h *Domain) Create(w http.ResponseWriter, r *http.Request) {
	account := mw.GetAccount(r.Context())

	var req request.CreateDomain
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := h.admission.AllowCreateDomain(r.Context(), account.ID)
	if !writeDecision(w, decision, err) {
		return
	}

	var relayDomainID *string
	var relayRecords []model.DNSRecord
	if h.relay != nil {
		auth, err := h.relay.CreateDomain(r.Context(), req.Name)
		if err != nil {
			response.WriteError(w, http.StatusBadGateway, "register domain with relay: "+err.Error())
			return
		}
		id := strconv.FormatInt(auth.ID, 10)
		relayDomainID = &id
		for _, rec := range relay.DNSRecordsFor(auth) {
			relayRecords = append(relayRecords, model.DNSRecord{
				RecordType: "CNAME",
				Name:       rec.Host,
				Content:    rec.Data,
			})
		}
	}

	now := time.Now()
	d := &model.Domain{
		ID:            platform.NewID(),
		AccountID:     account.ID,
		Name:          req.Name,
		Status:        model.DomainStatusPending,
		RelayDomainID: relayDomainID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	records := core.RequiredDNSRecords(d.Name, h.mxHost, relayRecords)

	if err := h.svc.Create(r.Context(), d, records); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"domain":      d,
		"dns_records": records,
	})
}

func (h *Domain) List(w http.ResponseWriter, r *http.Request) {
	account := mw.GetAccount(r.Context())
	pg := request.ParsePagination(r)

	domains, hasMore, err := h.svc.ListByAccount(r.Context(), account.ID, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(domains) > 0 {
		nextCursor = domains[len(domains)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, domains, nextCursor, hasMore)
}

func (h *Domain) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "domainID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := requireDomain(w, r, h.svc, id)
	if d == nil {
		return
	}
	response.WriteJSON(w, http.StatusOK, d)
}

func (h *Domain) ListDNSRecords(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "domainID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := requireDomain(w, r, h.svc, id)
	if d == nil {
		return
	}

	records, err := h.svc.ListDNSRecords(r.Context(), d.ID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, records)
}

// Verify re-checks the domain's required DNS records and flips it to
// VERIFIED when all of them resolve.
func (h *Domain) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "domainID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := requireDomain(w, r, h.svc, id)
	if d == nil {
		return
	}

	verified, err := h.svc.Verify(r.Context(), d.ID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if verified.Status == model.DomainStatusVerified && verified.RelayDomainID != nil && h.relay != nil {
		if _, err := h.relay.ValidateDomain(r.Context(), *verified.RelayDomainID); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).
				Str("domain", verified.Name).
				Msg("relay domain validation failed")
		}
	}

	response.WriteJSON(w, http.StatusOK, verified)
}

func (h *Domain) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "domainID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := requireDomain(w, r, h.svc, id)
	if d == nil {
		return
	}

	if d.RelayDomainID != nil && h.relay != nil {
		if err := h.relay.DeleteDomain(r.Context(), *d.RelayDomainID); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).
				Str("domain", d.Name).
				Msg("relay domain removal failed")
		}
	}

	if err := h.svc.Delete(r.Context(), d.ID); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
