package model

import "time"

// Attachment belongs to exactly one message, received or sent. Mailbox
// and account ids are duplicated from the parent message so storage
// usage can be aggregated without joins.
type Attachment struct {
	ID              string    `json:"id" db:"id"`
	ReceivedEmailID *string   `json:"received_email_id,omitempty" db:"received_email_id"`
	SentEmailID     *string   `json:"sent_email_id,omitempty" db:"sent_email_id"`
	MailboxID       string    `json:"mailbox_id" db:"mailbox_id"`
	AccountID       string    `json:"account_id" db:"account_id"`
	FileName        string    `json:"file_name" db:"file_name"`
	FileSize        int64     `json:"file_size" db:"file_size"`
	MimeType        string    `json:"mime_type" db:"mime_type"`
	ObjectKey       string    `json:"object_key" db:"object_key"`
	Bucket          string    `json:"bucket" db:"bucket"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
