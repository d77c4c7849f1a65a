package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to the outbound mail relay's HTTP API. The relay
// handles actual SMTP delivery to the wider internet and DKIM signing
// for authenticated domains.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// Send submits one message for delivery.
func (c *Client) Send(ctx context.Context, params SendParams) error {
	from := map[string]any{"email": params.FromEmail}
	if params.FromName != "" {
		from["name"] = params.FromName
	}
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": params.ToEmail}}},
		},
		"from":    from,
		"subject": params.Subject,
		"content": []map[string]string{
			{"type": "text/html", "value": params.HTMLBody},
		},
	}
	if len(params.Attachments) > 0 {
		payload["attachments"] = params.Attachments
	}

	if err := c.do(ctx, http.MethodPost, "/mail/send", payload, nil); err != nil {
		return fmt.Errorf("send to %s: %w", params.ToEmail, err)
	}
	return nil
}

// CreateDomain registers a domain for sender authentication and
// returns the CNAME records the owner must publish.
func (c *Client) CreateDomain(ctx context.Context, domain string) (*DomainAuth, error) {
	payload := map[string]any{
		"domain":             domain,
		"automatic_security": true,
	}
	var auth DomainAuth
	if err := c.do(ctx, http.MethodPost, "/whitelabel/domains", payload, &auth); err != nil {
		return nil, fmt.Errorf("create relay domain %s: %w", domain, err)
	}
	return &auth, nil
}

// ValidateDomain asks the relay to re-check a domain's published
// records.
func (c *Client) ValidateDomain(ctx context.Context, domainID string) (bool, error) {
	var result struct {
		Valid bool `json:"valid"`
	}
	path := fmt.Sprintf("/whitelabel/domains/%s/validate", domainID)
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return false, fmt.Errorf("validate relay domain %s: %w", domainID, err)
	}
	return result.Valid, nil
}

// DeleteDomain removes a domain's sender authentication.
func (c *Client) DeleteDomain(ctx context.Context, domainID string) error {
	path := fmt.Sprintf("/whitelabel/domains/%s", domainID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete relay domain %s: %w", domainID, err)
	}
	return nil
}

// DNSRecordsFor flattens a DomainAuth into publishable CNAME records.
func DNSRecordsFor(auth *DomainAuth) []CNAMERecord {
	return []CNAMERecord{auth.DNS.MailCNAME, auth.DNS.DKIM1, auth.DNS.DKIM2}
}
