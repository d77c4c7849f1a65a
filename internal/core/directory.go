package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhost/internal/model"
)

// TenantDirectoryService is the read path mapping addresses to live
// mailboxes and domain names to verification state. It is called on
// every RCPT TO and again during fan-out, so every lookup is a single
// indexed query with no caching in front of it.
type TenantDirectoryService struct {
	db DB
}

func NewTenantDirectoryService(db DB) *TenantDirectoryService {
	return &TenantDirectoryService{db: db}
}

// ResolveMailbox maps an email address to an active mailbox under a
// VERIFIED domain. Returns (nil, nil) when no such mailbox exists;
// a non-nil error indicates an infrastructure failure.
func (s *TenantDirectoryService) ResolveMailbox(ctx context.Context, address string) (*model.MailboxRef, error) {
	address = strings.ToLower(address)

	var ref model.MailboxRef
	err := s.db.QueryRow(ctx,
		`SELECT m.id, m.account_id, m.address
		 FROM mailboxes m
		 JOIN domains d ON m.domain_id = d.id
		 WHERE m.address = $1 AND m.active AND d.status = $2`,
		address, model.DomainStatusVerified,
	).Scan(&ref.MailboxID, &ref.AccountID, &ref.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve mailbox %s: %w", address, err)
	}
	return &ref, nil
}

// ResolveDomain looks up a domain by name regardless of verification
// state. Returns (nil, nil) when the domain does not exist.
func (s *TenantDirectoryService) ResolveDomain(ctx context.Context, name string) (*model.Domain, error) {
	name = strings.ToLower(name)

	var d model.Domain
	err := s.db.QueryRow(ctx,
		`SELECT id, account_id, name, status, relay_domain_id, created_at, updated_at
		 FROM domains WHERE name = $1`, name,
	).Scan(&d.ID, &d.AccountID, &d.Name, &d.Status, &d.RelayDomainID, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve domain %s: %w", name, err)
	}
	return &d, nil
}
