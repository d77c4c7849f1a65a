package core

import (
	"context"
	"fmt"
)

// DashboardStats holds aggregate counts for one account.
type DashboardStats struct {
	Domains         int `json:"domains"`
	DomainsVerified int `json:"domains_verified"`
	Mailboxes       int `json:"mailboxes"`
	EmailsReceived  int `json:"emails_received"`
	EmailsSent      int `json:"emails_sent"`
	EmailsUnread    int `json:"emails_unread"`
	Attachments     int `json:"attachments"`

	MessagesPerMailbox []MailboxMessageCount `json:"messages_per_mailbox"`
	SentByStatus       []StatusCount         `json:"sent_by_status"`
}

// MailboxMessageCount holds received message count per mailbox.
type MailboxMessageCount struct {
	MailboxID string `json:"mailbox_id"`
	Address   string `json:"address"`
	Count     int    `json:"count"`
}

// StatusCount holds a count grouped by status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DashboardService queries aggregate stats for an account.
type DashboardService struct {
	db DB
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(db DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats returns aggregate counts for one account using a single query
// with CTEs for efficiency.
func (s *DashboardService) Stats(ctx context.Context, accountID string) (*DashboardStats, error) {
	const countsQuery = `
		WITH domain_count AS (
			SELECT count(*) AS c FROM domains WHERE account_id = $1
		), domain_verified AS (
			SELECT count(*) AS c FROM domains WHERE account_id = $1 AND status = 'VERIFIED'
		), mailbox_count AS (
			SELECT count(*) AS c FROM mailboxes WHERE account_id = $1
		), received_count AS (
			SELECT count(*) AS c FROM received_emails WHERE account_id = $1
		), sent_count AS (
			SELECT count(*) AS c FROM sent_emails WHERE account_id = $1
		), unread_count AS (
			SELECT count(*) AS c FROM received_emails WHERE account_id = $1 AND NOT is_read AND NOT deleted
		), attachment_count AS (
			SELECT count(*) AS c FROM attachments WHERE account_id = $1
		)
		SELECT
			(SELECT c FROM domain_count),
			(SELECT c FROM domain_verified),
			(SELECT c FROM mailbox_count),
			(SELECT c FROM received_count),
			(SELECT c FROM sent_count),
			(SELECT c FROM unread_count),
			(SELECT c FROM attachment_count)`

	stats := &DashboardStats{}
	err := s.db.QueryRow(ctx, countsQuery, accountID).Scan(
		&stats.Domains,
		&stats.DomainsVerified,
		&stats.Mailboxes,
		&stats.EmailsReceived,
		&stats.EmailsSent,
		&stats.EmailsUnread,
		&stats.Attachments,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	// Messages per mailbox
	mpmRows, err := s.db.Query(ctx,
		`SELECT m.id, m.address, count(r.id)
		 FROM mailboxes m LEFT JOIN received_emails r ON r.mailbox_id = m.id
		 WHERE m.account_id = $1
		 GROUP BY m.id, m.address
		 ORDER BY count(r.id) DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("dashboard messages per mailbox: %w", err)
	}
	defer mpmRows.Close()

	for mpmRows.Next() {
		var mc MailboxMessageCount
		if err := mpmRows.Scan(&mc.MailboxID, &mc.Address, &mc.Count); err != nil {
			return nil, fmt.Errorf("scan mailbox message count: %w", err)
		}
		stats.MessagesPerMailbox = append(stats.MessagesPerMailbox, mc)
	}
	if err := mpmRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mailbox message counts: %w", err)
	}

	// Sent by status
	sbsRows, err := s.db.Query(ctx,
		`SELECT status, count(*) FROM sent_emails WHERE account_id = $1 GROUP BY status ORDER BY count(*) DESC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("dashboard sent by status: %w", err)
	}
	defer sbsRows.Close()

	for sbsRows.Next() {
		var sc StatusCount
		if err := sbsRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.SentByStatus = append(stats.SentByStatus, sc)
	}
	if err := sbsRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	return stats, nil
}
