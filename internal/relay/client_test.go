package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Send ----------

func TestClient_Send_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]any
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)

		from := payload["from"].(map[string]any)
		assert.Equal(t, "alice@example.com", from["email"])
		assert.Equal(t, "Alice", from["name"])
		assert.Equal(t, "hello", payload["subject"])

		personalizations := payload["personalizations"].([]any)
		require.Len(t, personalizations, 1)
		to := personalizations[0].(map[string]any)["to"].([]any)
		assert.Equal(t, "bob@elsewhere.test", to[0].(map[string]any)["email"])

		content := payload["content"].([]any)
		require.Len(t, content, 1)
		assert.Equal(t, "text/html", content[0].(map[string]any)["type"])

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	err := client.Send(context.Background(), SendParams{
		FromEmail: "alice@example.com",
		FromName:  "Alice",
		ToEmail:   "bob@elsewhere.test",
		Subject:   "hello",
		HTMLBody:  "<p>hi</p>",
	})
	require.NoError(t, err)
}

func TestClient_Send_WithAttachments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)

		attachments := payload["attachments"].([]any)
		require.Len(t, attachments, 1)
		att := attachments[0].(map[string]any)
		assert.Equal(t, "report.pdf", att["filename"])
		assert.Equal(t, "application/pdf", att["type"])
		assert.Equal(t, "aGVsbG8=", att["content"])

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	err := client.Send(context.Background(), SendParams{
		FromEmail: "alice@example.com",
		ToEmail:   "bob@elsewhere.test",
		Subject:   "report",
		HTMLBody:  "<p>attached</p>",
		Attachments: []SendAttachment{
			{Content: "aGVsbG8=", Filename: "report.pdf", Type: "application/pdf"},
		},
	})
	require.NoError(t, err)
}

func TestClient_Send_RelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong-key")
	err := client.Send(context.Background(), SendParams{
		FromEmail: "alice@example.com",
		ToEmail:   "bob@elsewhere.test",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "bad key")
}

// ---------- CreateDomain ----------

func TestClient_CreateDomain_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/whitelabel/domains", r.URL.Path)

		var payload map[string]any
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)
		assert.Equal(t, "example.com", payload["domain"])
		assert.Equal(t, true, payload["automatic_security"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 12345,
			"domain": "example.com",
			"valid": false,
			"dns": {
				"mail_cname": {"host": "em123.example.com", "data": "u123.wl.sendgrid.net"},
				"dkim1": {"host": "s1._domainkey.example.com", "data": "s1.domainkey.u123.wl.sendgrid.net"},
				"dkim2": {"host": "s2._domainkey.example.com", "data": "s2.domainkey.u123.wl.sendgrid.net"}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	auth, err := client.CreateDomain(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), auth.ID)
	assert.False(t, auth.Valid)
	assert.Equal(t, "em123.example.com", auth.DNS.MailCNAME.Host)

	records := DNSRecordsFor(auth)
	require.Len(t, records, 3)
	assert.Equal(t, "s2._domainkey.example.com", records[2].Host)
}

// ---------- ValidateDomain ----------

func TestClient_ValidateDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/whitelabel/domains/12345/validate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"valid": true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	valid, err := client.ValidateDomain(context.Background(), "12345")
	require.NoError(t, err)
	assert.True(t, valid)
}
