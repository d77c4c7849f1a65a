package core

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/edvin/mailhost/internal/model"
)

type MailboxService struct {
	db DB
}

func NewMailboxService(db DB) *MailboxService {
	return &MailboxService{db: db}
}

// Create provisions a mailbox under a domain. The address is lowercased
// and the password stored as a bcrypt hash.
func (s *MailboxService) Create(ctx context.Context, m *model.Mailbox, password string) error {
	m.Address = strings.ToLower(m.Address)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash mailbox password: %w", err)
	}
	m.PasswordHash = string(hash)

	_, err = s.db.Exec(ctx,
		`INSERT INTO mailboxes (id, domain_id, account_id, address, display_name, password_hash, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.DomainID, m.AccountID, m.Address, m.DisplayName, m.PasswordHash, m.Active, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mailbox: %w", err)
	}
	return nil
}

func (s *MailboxService) GetByID(ctx context.Context, id string) (*model.Mailbox, error) {
	var m model.Mailbox
	err := s.db.QueryRow(ctx,
		`SELECT id, domain_id, account_id, address, display_name, password_hash, active, created_at, updated_at
		 FROM mailboxes WHERE id = $1`, id,
	).Scan(&m.ID, &m.DomainID, &m.AccountID, &m.Address, &m.DisplayName, &m.PasswordHash, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get mailbox %s: %w", id, err)
	}
	return &m, nil
}

func (s *MailboxService) ListByDomain(ctx context.Context, domainID string, limit int, cursor string) ([]model.Mailbox, bool, error) {
	query := `SELECT id, domain_id, account_id, address, display_name, password_hash, active, created_at, updated_at
		 FROM mailboxes WHERE domain_id = $1`
	args := []any{domainID}
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
		return nil, false, fmt.Errorf("list mailboxes for domain %s: %w", domainID, err)
	}
	defer rows.Close()

	var mailboxes []model.Mailbox
	for rows.Next() {
		var m model.Mailbox
		if err := rows.Scan(&m.ID, &m.DomainID, &m.AccountID, &m.Address, &m.DisplayName, &m.PasswordHash, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan mailbox: %w", err)
		}
		mailboxes = append(mailboxes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate mailboxes: %w", err)
	}

	hasMore := len(mailboxes) > limit
	if hasMore {
		mailboxes = mailboxes[:limit]
	}
	return mailboxes, hasMore, nil
}

// Authenticate verifies a mailbox address/password pair and returns the
// mailbox on success.
func (s *MailboxService) Authenticate(ctx context.Context, address, password string) (*model.Mailbox, error) {
	address = strings.ToLower(address)

	var m model.Mailbox
	err := s.db.QueryRow(ctx,
		`SELECT id, domain_id, account_id, address, display_name, password_hash, active, created_at, updated_at
		 FROM mailboxes WHERE address = $1 AND active`, address,
	).Scan(&m.ID, &m.DomainID, &m.AccountID, &m.Address, &m.DisplayName, &m.PasswordHash, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("authenticate mailbox %s: %w", address, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("authenticate mailbox %s: invalid credentials", address)
	}
	return &m, nil
}

func (s *MailboxService) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM mailboxes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete mailbox %s: %w", id, err)
	}
	return nil
}
