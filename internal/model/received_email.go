package model

import "time"

// ReceivedEmail is an inbound message delivered to one mailbox. The
// body lives in object storage; BodyKey references it. A new message
// starts unread.
type ReceivedEmail struct {
	ID         string    `json:"id" db:"id"`
	MailboxID  string    `json:"mailbox_id" db:"mailbox_id"`
	AccountID  string    `json:"account_id" db:"account_id"`
	FromEmail  string    `json:"from_email" db:"from_email"`
	Subject    string    `json:"subject" db:"subject"`
	BodyKey    string    `json:"body_key" db:"body_key"`
	MessageID  *string   `json:"message_id,omitempty" db:"message_id"`
	IsRead     bool      `json:"is_read" db:"is_read"`
	Starred    bool      `json:"starred" db:"starred"`
	Archived   bool      `json:"archived" db:"archived"`
	Deleted    bool      `json:"deleted" db:"deleted"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}
