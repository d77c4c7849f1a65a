package model

import "time"

type Domain struct {
	ID            string    `json:"id" db:"id"`
	AccountID     string    `json:"account_id" db:"account_id"`
	Name          string    `json:"name" db:"name"`
	Status        string    `json:"status" db:"status"`
	RelayDomainID *string   `json:"relay_domain_id,omitempty" db:"relay_domain_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// DNSRecord is a record a domain owner must publish before the domain
// can be verified.
type DNSRecord struct {
	ID         string `json:"id" db:"id"`
	DomainID   string `json:"domain_id" db:"domain_id"`
	RecordType string `json:"record_type" db:"record_type"`
	Name       string `json:"name" db:"name"`
	Content    string `json:"content" db:"content"`
	Priority   *int   `json:"priority,omitempty" db:"priority"`
}
