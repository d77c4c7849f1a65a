package core

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/platform"
)

// Resolver is the DNS lookup surface domain verification needs.
// Satisfied by *net.Resolver.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

type DomainService struct {
	db       DB
	resolver Resolver
}

func NewDomainService(db DB, resolver Resolver) *DomainService {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DomainService{db: db, resolver: resolver}
}

// Create registers a domain in PENDING state together with the DNS
// records the owner must publish before verification can pass.
func (s *DomainService) Create(ctx context.Context, d *model.Domain, records []model.DNSRecord) error {
	d.Name = strings.ToLower(d.Name)

	_, err := s.db.Exec(ctx,
		`INSERT INTO domains (id, account_id, name, status, relay_domain_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.AccountID, d.Name, d.Status, d.RelayDomainID, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert domain: %w", err)
	}

	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = platform.NewID()
		}
		r.DomainID = d.ID
		_, err := s.db.Exec(ctx,
			`INSERT INTO dns_records (id, domain_id, record_type, name, content, priority)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.DomainID, r.RecordType, r.Name, r.Content, r.Priority,
		)
		if err != nil {
			return fmt.Errorf("insert dns record for domain %s: %w", d.Name, err)
		}
	}
	return nil
}

func (s *DomainService) GetByID(ctx context.Context, id string) (*model.Domain, error) {
	var d model.Domain
	err := s.db.QueryRow(ctx,
		`SELECT id, account_id, name, status, relay_domain_id, created_at, updated_at
		 FROM domains WHERE id = $1`, id,
	).Scan(&d.ID, &d.AccountID, &d.Name, &d.Status, &d.RelayDomainID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get domain %s: %w", id, err)
	}
	return &d, nil
}

func (s *DomainService) ListByAccount(ctx context.Context, accountID string, limit int, cursor string) ([]model.Domain, bool, error) {
	query := `SELECT id, account_id, name, status, relay_domain_id, created_at, updated_at FROM domains WHERE account_id = $1`
	args := []any{accountID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list domains for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var domains []model.Domain
	for rows.Next() {
		var d model.Domain
		if err := rows.Scan(&d.ID, &d.AccountID, &d.Name, &d.Status, &d.RelayDomainID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate domains: %w", err)
	}

	hasMore := len(domains) > limit
	if hasMore {
		domains = domains[:limit]
	}
	return domains, hasMore, nil
}

// ListDNSRecords returns the records the owner must publish for a
// domain.
func (s *DomainService) ListDNSRecords(ctx context.Context, domainID string) ([]model.DNSRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, domain_id, record_type, name, content, priority
		 FROM dns_records WHERE domain_id = $1 ORDER BY id`, domainID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dns records for domain %s: %w", domainID, err)
	}
	defer rows.Close()

	var records []model.DNSRecord
	for rows.Next() {
		var r model.DNSRecord
		if err := rows.Scan(&r.ID, &r.DomainID, &r.RecordType, &r.Name, &r.Content, &r.Priority); err != nil {
			return nil, fmt.Errorf("scan dns record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dns records: %w", err)
	}
	return records, nil
}

// Verify checks every required DNS record for the domain against live
// DNS and flips the domain to VERIFIED when all are present. A failed
// lookup leaves the domain PENDING; verification is continuous and can
// be retried at any time.
func (s *DomainService) Verify(ctx context.Context, domainID string) (*model.Domain, error) {
	d, err := s.GetByID(ctx, domainID)
	if err != nil {
		return nil, err
	}

	records, err := s.ListDNSRecords(ctx, domainID)
	if err != nil {
		return nil, err
	}

	allValid := true
	for _, r := range records {
		ok, err := s.recordPublished(ctx, d.Name, r)
		if err != nil || !ok {
			allValid = false
			break
		}
	}

	status := model.DomainStatusPending
	if allValid {
		status = model.DomainStatusVerified
	}

	_, err = s.db.Exec(ctx,
		`UPDATE domains SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), domainID,
	)
	if err != nil {
		return nil, fmt.Errorf("update domain %s status: %w", domainID, err)
	}
	d.Status = status
	return d, nil
}

// Delete removes the domain and its DNS records. Mailboxes under the
// domain are removed by the schema's cascade.
func (s *DomainService) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM dns_records WHERE domain_id = $1`, id); err != nil {
		return fmt.Errorf("delete dns records for domain %s: %w", id, err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM domains WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete domain %s: %w", id, err)
	}
	return nil
}

func (s *DomainService) recordPublished(ctx context.Context, domainName string, r model.DNSRecord) (bool, error) {
	lookupName := r.Name
	if lookupName == "@" || lookupName == "" {
		lookupName = domainName
	}

	switch r.RecordType {
	case "MX":
		mxs, err := s.resolver.LookupMX(ctx, lookupName)
		if err != nil {
			return false, err
		}
		for _, mx := range mxs {
			if strings.EqualFold(strings.TrimSuffix(mx.Host, "."), r.Content) {
				return true, nil
			}
		}
		return false, nil
	case "TXT":
		txts, err := s.resolver.LookupTXT(ctx, lookupName)
		if err != nil {
			return false, err
		}
		for _, txt := range txts {
			if txt == r.Content {
				return true, nil
			}
		}
		return false, nil
	case "CNAME":
		cname, err := s.resolver.LookupCNAME(ctx, lookupName)
		if err != nil {
			return false, err
		}
		return strings.EqualFold(strings.TrimSuffix(cname, "."), r.Content), nil
	default:
		return false, fmt.Errorf("unsupported record type %s", r.RecordType)
	}
}

// RequiredDNSRecords builds the record set a new domain must publish:
// an MX record pointing at the ingest host and the relay's sender
// authentication records.
func RequiredDNSRecords(domainName, mxHost string, relayRecords []model.DNSRecord) []model.DNSRecord {
	prio := 10
	records := []model.DNSRecord{{
		RecordType: "MX",
		Name:       "@",
		Content:    mxHost,
		Priority:   &prio,
	}}
	return append(records, relayRecords...)
}
