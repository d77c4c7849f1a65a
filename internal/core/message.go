package core

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/platform"
)

// Mailbox folders served by ListMessages.
const (
	FolderInbox   = "inbox"
	FolderSent    = "sent"
	FolderStarred = "starred"
	FolderArchive = "archive"
	FolderTrash   = "trash"
)

// ReceivedEmailParams carries everything needed to insert one received
// message row. The body must already be durably stored; BodyKey
// references it.
type ReceivedEmailParams struct {
	MailboxID string
	AccountID string
	FromEmail string
	Subject   string
	BodyKey   string
	MessageID *string
}

// AttachmentParams carries one attachment row. Exactly one of
// ReceivedEmailID / SentEmailID is set.
type AttachmentParams struct {
	ReceivedEmailID *string
	SentEmailID     *string
	MailboxID       string
	AccountID       string
	FileName        string
	FileSize        int64
	MimeType        string
	ObjectKey       string
	Bucket          string
}

// MessageService owns the received/sent message rows and their
// lifecycle flags. Rows are created by the SMTP ingestion engine and
// the outbound send path; flags are mutated by the mailbox UI surface.
type MessageService struct {
	db  DB
	now func() time.Time
}

func NewMessageService(db DB) *MessageService {
	return &MessageService{db: db, now: time.Now}
}

// InsertReceivedEmail creates the metadata row for one delivered
// recipient. New messages start unread.
func (s *MessageService) InsertReceivedEmail(ctx context.Context, p ReceivedEmailParams) (string, error) {
	id := platform.NewID()
	_, err := s.db.Exec(ctx,
		`INSERT INTO received_emails (id, mailbox_id, account_id, from_email, subject, body_key, message_id, is_read, starred, archived, deleted, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, false, false, false, false, $8)`,
		id, p.MailboxID, p.AccountID, p.FromEmail, p.Subject, p.BodyKey, p.MessageID, s.now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert received email for mailbox %s: %w", p.MailboxID, err)
	}
	return id, nil
}

// InsertSentEmail records one outbound message with its relay outcome.
func (s *MessageService) InsertSentEmail(ctx context.Context, m *model.SentEmail) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO sent_emails (id, mailbox_id, account_id, to_email, subject, body_key, status, starred, archived, deleted, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, false, false, false, $8)`,
		m.ID, m.MailboxID, m.AccountID, m.ToEmail, m.Subject, m.BodyKey, m.Status, m.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert sent email for mailbox %s: %w", m.MailboxID, err)
	}
	return nil
}

// InsertAttachment creates one attachment row under its parent message.
func (s *MessageService) InsertAttachment(ctx context.Context, p AttachmentParams) (string, error) {
	id := platform.NewID()
	_, err := s.db.Exec(ctx,
		`INSERT INTO attachments (id, received_email_id, sent_email_id, mailbox_id, account_id, file_name, file_size, mime_type, object_key, bucket, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, p.ReceivedEmailID, p.SentEmailID, p.MailboxID, p.AccountID,
		p.FileName, p.FileSize, p.MimeType, p.ObjectKey, p.Bucket, s.now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert attachment %s: %w", p.FileName, err)
	}
	return id, nil
}

// ListReceived returns received messages for a folder view, newest
// first.
func (s *MessageService) ListReceived(ctx context.Context, mailboxID, folder string, limit int) ([]model.ReceivedEmail, error) {
	query := `SELECT id, mailbox_id, account_id, from_email, subject, body_key, message_id, is_read, starred, archived, deleted, received_at
		 FROM received_emails WHERE mailbox_id = $1`
	switch folder {
	case FolderInbox:
		query += ` AND NOT deleted AND NOT archived`
	case FolderStarred:
		query += ` AND starred AND NOT deleted`
	case FolderArchive:
		query += ` AND archived AND NOT deleted`
	case FolderTrash:
		query += ` AND deleted`
	default:
		return nil, fmt.Errorf("unknown folder %q", folder)
	}
	query += ` ORDER BY received_at DESC LIMIT $2`

	rows, err := s.db.Query(ctx, query, mailboxID, limit)
	if err != nil {
		return nil, fmt.Errorf("list received emails for mailbox %s: %w", mailboxID, err)
	}
	defer rows.Close()

	var emails []model.ReceivedEmail
	for rows.Next() {
		var m model.ReceivedEmail
		if err := rows.Scan(&m.ID, &m.MailboxID, &m.AccountID, &m.FromEmail, &m.Subject, &m.BodyKey,
			&m.MessageID, &m.IsRead, &m.Starred, &m.Archived, &m.Deleted, &m.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan received email: %w", err)
		}
		emails = append(emails, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate received emails: %w", err)
	}
	return emails, nil
}

// ListSent returns sent messages for a folder view, newest first.
func (s *MessageService) ListSent(ctx context.Context, mailboxID, folder string, limit int) ([]model.SentEmail, error) {
	query := `SELECT id, mailbox_id, account_id, to_email, subject, body_key, status, starred, archived, deleted, sent_at
		 FROM sent_emails WHERE mailbox_id = $1`
	switch folder {
	case FolderSent:
		query += ` AND NOT deleted AND NOT archived`
	case FolderStarred:
		query += ` AND starred AND NOT deleted`
	case FolderArchive:
		query += ` AND archived AND NOT deleted`
	case FolderTrash:
		query += ` AND deleted`
	default:
		return nil, fmt.Errorf("unknown folder %q", folder)
	}
	query += ` ORDER BY sent_at DESC LIMIT $2`

	rows, err := s.db.Query(ctx, query, mailboxID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sent emails for mailbox %s: %w", mailboxID, err)
	}
	defer rows.Close()

	var emails []model.SentEmail
	for rows.Next() {
		var m model.SentEmail
		if err := rows.Scan(&m.ID, &m.MailboxID, &m.AccountID, &m.ToEmail, &m.Subject, &m.BodyKey,
			&m.Status, &m.Starred, &m.Archived, &m.Deleted, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scan sent email: %w", err)
		}
		emails = append(emails, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sent emails: %w", err)
	}
	return emails, nil
}

// GetReceived fetches one received message scoped to its mailbox and
// marks it read.
func (s *MessageService) GetReceived(ctx context.Context, mailboxID, id string) (*model.ReceivedEmail, error) {
	var m model.ReceivedEmail
	err := s.db.QueryRow(ctx,
		`UPDATE received_emails SET is_read = true
		 WHERE id = $1 AND mailbox_id = $2
		 RETURNING id, mailbox_id, account_id, from_email, subject, body_key, message_id, is_read, starred, archived, deleted, received_at`,
		id, mailboxID,
	).Scan(&m.ID, &m.MailboxID, &m.AccountID, &m.FromEmail, &m.Subject, &m.BodyKey,
		&m.MessageID, &m.IsRead, &m.Starred, &m.Archived, &m.Deleted, &m.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("get received email %s: %w", id, err)
	}
	return &m, nil
}

// GetSent fetches one sent message scoped to its mailbox.
func (s *MessageService) GetSent(ctx context.Context, mailboxID, id string) (*model.SentEmail, error) {
	var m model.SentEmail
	err := s.db.QueryRow(ctx,
		`SELECT id, mailbox_id, account_id, to_email, subject, body_key, status, starred, archived, deleted, sent_at
		 FROM sent_emails WHERE id = $1 AND mailbox_id = $2`, id, mailboxID,
	).Scan(&m.ID, &m.MailboxID, &m.AccountID, &m.ToEmail, &m.Subject, &m.BodyKey,
		&m.Status, &m.Starred, &m.Archived, &m.Deleted, &m.SentAt)
	if err != nil {
		return nil, fmt.Errorf("get sent email %s: %w", id, err)
	}
	return &m, nil
}

// SetStarred flips the starred flag on the given message ids in both
// tables, scoped to the mailbox. Returns the number of rows touched.
func (s *MessageService) SetStarred(ctx context.Context, mailboxID string, ids []string, starred bool) (int64, error) {
	return s.setFlag(ctx, mailboxID, ids, "starred", starred)
}

// SetArchived flips the archived flag.
func (s *MessageService) SetArchived(ctx context.Context, mailboxID string, ids []string, archived bool) (int64, error) {
	return s.setFlag(ctx, mailboxID, ids, "archived", archived)
}

// SetTrashed moves messages to or out of the trash.
func (s *MessageService) SetTrashed(ctx context.Context, mailboxID string, ids []string, trashed bool) (int64, error) {
	return s.setFlag(ctx, mailboxID, ids, "deleted", trashed)
}

func (s *MessageService) setFlag(ctx context.Context, mailboxID string, ids []string, column string, value bool) (int64, error) {
	var total int64
	for _, table := range []string{"received_emails", "sent_emails"} {
		query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE mailbox_id = $2 AND id = ANY($3)`, table, column)
		tag, err := s.db.Exec(ctx, query, value, mailboxID, ids)
		if err != nil {
			return total, fmt.Errorf("set %s on %s: %w", column, table, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

// HardDelete permanently removes a message and its attachment rows.
// The blobs in object storage are not removed; orphaned blobs are an
// accepted gap.
func (s *MessageService) HardDelete(ctx context.Context, mailboxID, id string) (int64, error) {
	_, err := s.db.Exec(ctx,
		`DELETE FROM attachments WHERE (received_email_id = $1 OR sent_email_id = $1) AND mailbox_id = $2`,
		id, mailboxID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete attachments for message %s: %w", id, err)
	}

	var total int64
	for _, table := range []string{"received_emails", "sent_emails"} {
		tag, err := s.db.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND mailbox_id = $2`, table), id, mailboxID)
		if err != nil {
			return total, fmt.Errorf("delete message %s from %s: %w", id, table, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

// ListAttachments returns attachment rows for one message.
func (s *MessageService) ListAttachments(ctx context.Context, messageID string) ([]model.Attachment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, received_email_id, sent_email_id, mailbox_id, account_id, file_name, file_size, mime_type, object_key, bucket, created_at
		 FROM attachments WHERE received_email_id = $1 OR sent_email_id = $1 ORDER BY id`, messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments for message %s: %w", messageID, err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.ReceivedEmailID, &a.SentEmailID, &a.MailboxID, &a.AccountID,
			&a.FileName, &a.FileSize, &a.MimeType, &a.ObjectKey, &a.Bucket, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return attachments, nil
}

// UnreadCount returns the number of unread received messages in a
// mailbox.
func (s *MessageService) UnreadCount(ctx context.Context, mailboxID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM received_emails WHERE mailbox_id = $1 AND NOT is_read AND NOT deleted`,
		mailboxID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread for mailbox %s: %w", mailboxID, err)
	}
	return count, nil
}
