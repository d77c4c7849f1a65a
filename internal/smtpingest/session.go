package smtpingest

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog"

	"github.com/edvin/mailhost/internal/model"
)

// Session carries the state of one SMTP dialogue: the envelope sender,
// the recipients that passed RCPT TO validation, and nothing else.
// Everything is discarded on Reset or connection close.
type Session struct {
	backend *Backend
	logger  zerolog.Logger

	from       string
	recipients []model.MailboxRef
}

// Mail records the envelope sender. The sender may be external, so no
// existence check is made; only a syntactically empty address is
// rejected.
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	if strings.TrimSpace(from) == "" {
		return errSMTPFromAddr
	}
	s.from = strings.ToLower(from)
	s.logger.Debug().Str("from", s.from).Msg("mail from")
	return nil
}

// Rcpt validates one recipient independently of any other recipient in
// the session: the address must resolve to an active mailbox under a
// VERIFIED domain and the owning account must be within its receive
// ceiling.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if s.from == "" {
		return errSMTPSeq
	}
	address := strings.ToLower(strings.TrimSpace(to))
	if address == "" {
		recipientsRejected.WithLabelValues("invalid_address").Inc()
		return errSMTPRcptAddr
	}

	ctx, cancel := s.opContext()
	defer cancel()

	ref, err := s.backend.directory.ResolveMailbox(ctx, address)
	if err != nil {
		s.logger.Error().Err(err).Str("to", address).Msg("mailbox lookup failed")
		recipientsRejected.WithLabelValues("lookup_error").Inc()
		return errSMTPDirectory
	}
	if ref == nil {
		recipientsRejected.WithLabelValues("unknown_mailbox").Inc()
		return errSMTPMailbox
	}

	decision, err := s.backend.admission.AllowReceive(ctx, ref.AccountID)
	if err != nil {
		s.logger.Error().Err(err).Str("to", address).Msg("admission check failed")
		recipientsRejected.WithLabelValues("admission_error").Inc()
		return errSMTPDirectory
	}
	if !decision.Allowed {
		s.logger.Info().Str("to", address).Str("reason", decision.Reason).Msg("recipient denied")
		recipientsRejected.WithLabelValues("quota").Inc()
		return errSMTPQuota
	}

	s.recipients = append(s.recipients, *ref)
	recipientsAccepted.Inc()
	s.logger.Debug().Str("to", address).Msg("recipient accepted")
	return nil
}

// Data streams the message body under the configured byte ceiling,
// parses it, and fans it out to every accepted recipient. The
// acknowledgment reflects only that the message was received and
// parsed; per-recipient persistence failures are contained and logged,
// not reported to the peer.
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return errSMTPSeq
	}

	max := s.backend.maxMessageBytes
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, max+1))
	if err != nil {
		s.logger.Warn().Err(err).Msg("data stream aborted")
		messagesTotal.WithLabelValues("stream_error").Inc()
		return err
	}
	if n > max {
		s.logger.Warn().Int64("bytes", n).Int64("max", max).Msg("message exceeds size limit")
		messagesTotal.WithLabelValues("oversized").Inc()
		return errSMTPSize
	}

	msg, err := ParseMessage(&buf)
	if err != nil {
		s.logger.Warn().Err(err).Str("from", s.from).Msg("unparseable message")
		messagesTotal.WithLabelValues("parse_error").Inc()
		return errSMTPParse
	}

	ctx, cancel := s.opContext()
	defer cancel()

	deliveries := s.backend.deliver(ctx, msg, s.recipients)
	for _, d := range deliveries {
		deliveriesTotal.WithLabelValues(string(d.Status)).Inc()
	}
	messagesTotal.WithLabelValues("accepted").Inc()

	s.logger.Info().
		Str("from", msg.From).
		Str("subject", msg.Subject).
		Int64("bytes", n).
		Int("recipients", len(s.recipients)).
		Int("delivered", countStatus(deliveries, StatusDelivered)).
		Int("skipped", countStatus(deliveries, StatusSkipped)).
		Int("failed", countStatus(deliveries, StatusFailed)).
		Msg("message processed")
	return nil
}

// Reset discards all session state, returning to the post-connect
// state.
func (s *Session) Reset() {
	s.from = ""
	s.recipients = nil
}

// Logout is called when the connection closes.
func (s *Session) Logout() error {
	return nil
}

func (s *Session) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func countStatus(deliveries []Delivery, status DeliveryStatus) int {
	n := 0
	for _, d := range deliveries {
		if d.Status == status {
			n++
		}
	}
	return n
}
