package model

import "time"

type Mailbox struct {
	ID           string    `json:"id" db:"id"`
	DomainID     string    `json:"domain_id" db:"domain_id"`
	AccountID    string    `json:"account_id" db:"account_id"`
	Address      string    `json:"address" db:"address"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// MailboxRef is the resolution result the ingestion path works with: a
// mailbox under a currently verified domain and its owning account.
type MailboxRef struct {
	MailboxID string `json:"mailbox_id"`
	AccountID string `json:"account_id"`
	Address   string `json:"address"`
}
