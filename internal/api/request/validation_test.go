package request

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeInto(t *testing.T, body string, v any) error {
	t.Helper()
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return Decode(r, v)
}

func TestDecode_InvalidJSON(t *testing.T) {
	var req CreateDomain
	err := decodeInto(t, `{"name": `, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestDecode_CreateDomain(t *testing.T) {
	var req CreateDomain
	err := decodeInto(t, `{"name": "example.com"}`, &req)
	require.NoError(t, err)
	assert.Equal(t, "example.com", req.Name)
}

func TestDecode_CreateDomainRejectsNonFQDN(t *testing.T) {
	var req CreateDomain
	err := decodeInto(t, `{"name": "not a domain"}`, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestDecode_CreateMailboxRejectsAtSign(t *testing.T) {
	var req CreateMailbox
	err := decodeInto(t, `{"local_part": "sales@example.com", "password": "s3cret-pass"}`, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestDecode_CreateMailboxShortPassword(t *testing.T) {
	var req CreateMailbox
	err := decodeInto(t, `{"local_part": "sales", "password": "short"}`, &req)
	require.Error(t, err)
}

func TestDecode_CreateSubscriptionUnknownPlan(t *testing.T) {
	var req CreateSubscription
	err := decodeInto(t, `{"plan": "GOLD", "billing_cycle": "MONTHLY"}`, &req)
	require.Error(t, err)
}

func TestDecode_SendEmailAttachmentMustBeBase64(t *testing.T) {
	var req SendEmail
	err := decodeInto(t, `{
		"to": "bob@example.com",
		"html_body": "<p>hi</p>",
		"attachments": [{"filename": "a.txt", "content": "not base64!!"}]
	}`, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestDecode_FlagMessagesEmptyIDs(t *testing.T) {
	var req FlagMessages
	err := decodeInto(t, `{"ids": []}`, &req)
	require.Error(t, err)
}

func TestRequireID(t *testing.T) {
	id, err := RequireID("mb-1")
	require.NoError(t, err)
	assert.Equal(t, "mb-1", id)

	_, err = RequireID("")
	assert.Error(t, err)
}
