package model

import "time"

// APIKey authenticates an account against the platform API.
type APIKey struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	KeyHash   string     `json:"-"`
	KeyPrefix string     `json:"key_prefix,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
