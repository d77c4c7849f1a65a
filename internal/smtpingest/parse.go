package smtpingest

import (
	"errors"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// ParsedMessage is the result of MIME-decoding one DATA payload.
type ParsedMessage struct {
	From        string
	Subject     string
	MessageID   string
	HTMLBody    string
	TextBody    string
	Attachments []AttachmentPart
}

// AttachmentPart is one decoded attachment from the message.
type AttachmentPart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Body returns the preferred body content and its content type: the
// HTML part when present, the plain text part otherwise.
func (m *ParsedMessage) Body() (string, string) {
	if m.HTMLBody != "" {
		return m.HTMLBody, "text/html"
	}
	return m.TextBody, "text/plain"
}

// ParseMessage decodes a raw RFC 5322 message into its headers, body
// parts and attachments. An empty or structurally unreadable payload is
// an error; a missing sender header is an error because a message with
// no sender cannot be attributed.
func ParseMessage(r io.Reader) (*ParsedMessage, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	msg := &ParsedMessage{}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = strings.ToLower(from[0].Address)
	}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	}
	if id, err := mr.Header.MessageID(); err == nil {
		msg.MessageID = id
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed part does not invalidate what was already
			// decoded.
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, err := h.ContentType()
			if err != nil {
				continue
			}
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch contentType {
			case "text/html":
				msg.HTMLBody = string(body)
			case "text/plain":
				msg.TextBody = string(body)
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			msg.Attachments = append(msg.Attachments, AttachmentPart{
				Filename:    filename,
				ContentType: contentType,
				Data:        data,
			})
		}
	}

	if msg.From == "" {
		return nil, errors.New("message has no sender")
	}
	return msg, nil
}
