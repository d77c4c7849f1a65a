package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SearchResult represents a single search result across resource types.
type SearchResult struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Label     string `json:"label"`
	MailboxID string `json:"mailbox_id,omitempty"`
	Status    string `json:"status"`
}

// SearchService provides cross-resource search within one account.
type SearchService struct {
	db DB
}

// NewSearchService creates a new SearchService.
func NewSearchService(db DB) *SearchService {
	return &SearchService{db: db}
}

// Search runs parallel queries across resource tables and returns
// matching results, all scoped to the account.
func (s *SearchService) Search(ctx context.Context, accountID, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + query + "%"

	type queryDef struct {
		sql  string
		args []any
	}

	queries := []queryDef{
		{
			sql: `SELECT 'domain', id, name, '', status FROM domains
				WHERE account_id = $1 AND name ILIKE $2
				LIMIT $3`,
			args: []any{accountID, pattern, limit},
		},
		{
			sql: `SELECT 'mailbox', id, address, id, CASE WHEN active THEN 'active' ELSE 'inactive' END
				FROM mailboxes
				WHERE account_id = $1 AND (address ILIKE $2 OR display_name ILIKE $2)
				LIMIT $3`,
			args: []any{accountID, pattern, limit},
		},
		{
			sql: `SELECT 'received_email', id, subject, mailbox_id, CASE WHEN is_read THEN 'read' ELSE 'unread' END
				FROM received_emails
				WHERE account_id = $1 AND NOT deleted AND (subject ILIKE $2 OR from_email ILIKE $2)
				ORDER BY received_at DESC
				LIMIT $3`,
			args: []any{accountID, pattern, limit},
		},
		{
			sql: `SELECT 'sent_email', id, subject, mailbox_id, status FROM sent_emails
				WHERE account_id = $1 AND NOT deleted AND (subject ILIKE $2 OR to_email ILIKE $2)
				ORDER BY sent_at DESC
				LIMIT $3`,
			args: []any{accountID, pattern, limit},
		},
		{
			sql: `SELECT 'attachment', id, file_name, mailbox_id, mime_type FROM attachments
				WHERE account_id = $1 AND file_name ILIKE $2
				LIMIT $3`,
			args: []any{accountID, pattern, limit},
		},
	}

	results := make([][]SearchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)

	for i, q := range queries {
		g.Go(func() error {
			rows, err := s.db.Query(ctx, q.sql, q.args...)
			if err != nil {
				return fmt.Errorf("search query %d: %w", i, err)
			}
			defer rows.Close()

			for rows.Next() {
				var r SearchResult
				if err := rows.Scan(&r.Type, &r.ID, &r.Label, &r.MailboxID, &r.Status); err != nil {
					return fmt.Errorf("scan search result: %w", err)
				}
				results[i] = append(results[i], r)
			}
			return rows.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var all []SearchResult
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all, nil
}
