package handler

import (
	"context"
	"net/http"
	"time"

	mw "github.com/edvin/mailhost/internal/api/middleware"
	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/relay"
)

// ObjectStore is the slice of the object storage client handlers use.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key, contentType string, body []byte) error
	PresignedGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// Relay is the outbound relay surface handlers depend on. A nil Relay
// means no relay is configured; callers degrade accordingly.
type Relay interface {
	Send(ctx context.Context, params relay.SendParams) error
	CreateDomain(ctx context.Context, domain string) (*relay.DomainAuth, error)
	ValidateDomain(ctx context.Context, domainID string) (bool, error)
	DeleteDomain(ctx context.Context, domainID string) error
}

// requireDomain loads a domain and verifies the caller owns it.
// Writes the error response and returns nil when it does not.
func requireDomain(w http.ResponseWriter, r *http.Request, svc *core.DomainService, domainID string) *model.Domain {
	account := mw.GetAccount(r.Context())
	d, err := svc.GetByID(r.Context(), domainID)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, "domain not found")
		return nil
	}
	if account == nil || d.AccountID != account.ID {
		response.WriteError(w, http.StatusNotFound, "domain not found")
		return nil
	}
	return d
}

// requireMailbox loads a mailbox and verifies the caller owns it.
func requireMailbox(w http.ResponseWriter, r *http.Request, svc *core.MailboxService, mailboxID string) *model.Mailbox {
	account := mw.GetAccount(r.Context())
	m, err := svc.GetByID(r.Context(), mailboxID)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, "mailbox not found")
		return nil
	}
	if account == nil || m.AccountID != account.ID {
		response.WriteError(w, http.StatusNotFound, "mailbox not found")
		return nil
	}
	return m
}

// writeDecision maps a denied admission decision to a 403 response.
// Returns true when the request may proceed.
func writeDecision(w http.ResponseWriter, decision core.Decision, err error) bool {
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	if !decision.Allowed {
		response.WriteError(w, http.StatusForbidden, decision.Reason)
		return false
	}
	return true
}
