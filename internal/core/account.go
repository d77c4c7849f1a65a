package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/platform"
)

// AccountService manages tenant accounts and their API keys.
type AccountService struct {
	db DB
}

// NewAccountService creates a new AccountService.
func NewAccountService(db DB) *AccountService {
	return &AccountService{db: db}
}

// Create inserts a new account and issues its first API key. The raw
// key is returned exactly once and never stored.
func (s *AccountService) Create(ctx context.Context, name, email string) (*model.Account, string, error) {
	id := platform.NewID()
	_, err := s.db.Exec(ctx,
		`INSERT INTO accounts (id, name, email, created_at, updated_at) VALUES ($1, $2, $3, now(), now())`,
		id, name, email,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert account: %w", err)
	}

	rawKey, err := s.CreateAPIKey(ctx, id)
	if err != nil {
		return nil, "", err
	}

	account, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return account, rawKey, nil
}

// GetByID retrieves an account by its ID.
func (s *AccountService) GetByID(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, created_at, updated_at FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return &a, nil
}

// CreateAPIKey generates a new API key for an account, stores the
// hash, and returns the raw key. The raw key must be shown to the user
// exactly once.
func (s *AccountService) CreateAPIKey(ctx context.Context, accountID string) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "mh_" + hex.EncodeToString(rawBytes) // 67 chars total

	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])
	keyPrefix := rawKey[:11] // "mh_" + first 8 hex chars

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, account_id, key_hash, key_prefix, created_at) VALUES ($1, $2, $3, $4, now())`,
		platform.NewID(), accountID, keyHash, keyPrefix,
	)
	if err != nil {
		return "", fmt.Errorf("insert api key: %w", err)
	}
	return rawKey, nil
}

// Authenticate resolves a raw API key to its account. Returns
// (nil, nil) when the key is unknown or revoked.
func (s *AccountService) Authenticate(ctx context.Context, rawKey string) (*model.Account, error) {
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])

	var a model.Account
	err := s.db.QueryRow(ctx,
		`SELECT a.id, a.name, a.email, a.created_at, a.updated_at
		 FROM accounts a JOIN api_keys k ON k.account_id = a.id
		 WHERE k.key_hash = $1 AND k.revoked_at IS NULL`, keyHash,
	).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate api key: %w", err)
	}
	return &a, nil
}

// RevokeAPIKey soft-deletes an API key by setting revoked_at.
func (s *AccountService) RevokeAPIKey(ctx context.Context, accountID, keyID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND account_id = $2 AND revoked_at IS NULL`,
		keyID, accountID,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %s: %w", keyID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key %s not found or already revoked", keyID)
	}
	return nil
}
