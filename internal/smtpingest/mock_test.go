package smtpingest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ResolveMailbox(ctx context.Context, address string) (*model.MailboxRef, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MailboxRef), args.Error(1)
}

type mockAdmission struct {
	mock.Mock
}

func (m *mockAdmission) AllowReceive(ctx context.Context, accountID string) (core.Decision, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(core.Decision), args.Error(1)
}

// mockObjectStore records every stored object so tests can assert on
// keys and payloads.
type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Put(ctx context.Context, bucket, key, contentType string, body []byte) error {
	args := m.Called(ctx, bucket, key, contentType, body)
	return args.Error(0)
}

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) InsertReceivedEmail(ctx context.Context, p core.ReceivedEmailParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockMessageStore) InsertAttachment(ctx context.Context, p core.AttachmentParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}
