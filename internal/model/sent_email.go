package model

import "time"

type SentEmail struct {
	ID        string    `json:"id" db:"id"`
	MailboxID string    `json:"mailbox_id" db:"mailbox_id"`
	AccountID string    `json:"account_id" db:"account_id"`
	ToEmail   string    `json:"to_email" db:"to_email"`
	Subject   string    `json:"subject" db:"subject"`
	BodyKey   string    `json:"body_key" db:"body_key"`
	Status    string    `json:"status" db:"status"`
	Starred   bool      `json:"starred" db:"starred"`
	Archived  bool      `json:"archived" db:"archived"`
	Deleted   bool      `json:"deleted" db:"deleted"`
	SentAt    time.Time `json:"sent_at" db:"sent_at"`
}
