package smtpingest

import (
	"context"

	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog"

	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
)

// Directory resolves recipient addresses to live mailboxes. Implemented
// by core.TenantDirectoryService.
type Directory interface {
	ResolveMailbox(ctx context.Context, address string) (*model.MailboxRef, error)
}

// Admission gates message intake against subscription state and plan
// ceilings. Implemented by core.AdmissionService.
type Admission interface {
	AllowReceive(ctx context.Context, accountID string) (core.Decision, error)
}

// ObjectStore persists message bodies and attachments. Implemented by
// objstore.Client.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key, contentType string, body []byte) error
}

// MessageStore persists the relational rows for delivered messages.
// Implemented by core.MessageService.
type MessageStore interface {
	InsertReceivedEmail(ctx context.Context, p core.ReceivedEmailParams) (string, error)
	InsertAttachment(ctx context.Context, p core.AttachmentParams) (string, error)
}

// Backend holds the collaborators and read-only configuration shared by
// all sessions. It carries no mutable state of its own; everything
// per-message lives in the Session.
type Backend struct {
	logger zerolog.Logger

	directory Directory
	admission Admission
	objects   ObjectStore
	store     MessageStore

	bodyBucket        string
	attachmentsBucket string
	maxMessageBytes   int64
}

// NewBackend wires the ingestion backend. attachmentsBucket may be
// empty, which degrades attachment handling to skip-with-warning.
func NewBackend(logger zerolog.Logger, directory Directory, admission Admission, objects ObjectStore, store MessageStore, bodyBucket, attachmentsBucket string, maxMessageBytes int64) *Backend {
	return &Backend{
		logger:            logger.With().Str("component", "smtp-ingest").Logger(),
		directory:         directory,
		admission:         admission,
		objects:           objects,
		store:             store,
		bodyBucket:        bodyBucket,
		attachmentsBucket: attachmentsBucket,
		maxMessageBytes:   maxMessageBytes,
	}
}

// NewSession starts a session for one accepted connection.
func (b *Backend) NewSession(conn *smtp.Conn) (smtp.Session, error) {
	remote := ""
	if conn != nil && conn.Conn() != nil {
		remote = conn.Conn().RemoteAddr().String()
	}
	sessionsTotal.Inc()
	b.logger.Debug().Str("remote", remote).Msg("session opened")
	return &Session{
		backend: b,
		logger:  b.logger.With().Str("remote", remote).Logger(),
	}, nil
}
