package smtpingest

import (
	"context"

	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/platform"
)

// DeliveryStatus is the per-recipient outcome of one fan-out pass.
type DeliveryStatus string

const (
	// StatusDelivered means the body was stored and the metadata row
	// inserted.
	StatusDelivered DeliveryStatus = "delivered"
	// StatusSkipped means the recipient was no longer eligible at
	// fan-out time.
	StatusSkipped DeliveryStatus = "skipped"
	// StatusFailed means a storage operation failed for this recipient.
	StatusFailed DeliveryStatus = "failed"
)

// Delivery records the outcome for one recipient.
type Delivery struct {
	Recipient string
	Status    DeliveryStatus
	Reason    string
}

// deliver fans one parsed message out to every accepted recipient
// sequentially. Each recipient is isolated: a failure or skip never
// affects the others, and every outcome is accumulated for logging.
func (b *Backend) deliver(ctx context.Context, msg *ParsedMessage, recipients []model.MailboxRef) []Delivery {
	deliveries := make([]Delivery, 0, len(recipients))
	for _, rcpt := range recipients {
		deliveries = append(deliveries, b.deliverOne(ctx, msg, rcpt))
	}
	return deliveries
}

// deliverOne runs the full persistence sequence for one recipient:
// defensive re-validation, body upload, metadata insert, attachment
// uploads. Verification state and quota can change between RCPT TO and
// DATA-complete, so both are re-checked here.
func (b *Backend) deliverOne(ctx context.Context, msg *ParsedMessage, rcpt model.MailboxRef) Delivery {
	ref, err := b.directory.ResolveMailbox(ctx, rcpt.Address)
	if err != nil {
		b.logger.Error().Err(err).Str("to", rcpt.Address).Msg("fan-out mailbox lookup failed")
		return Delivery{Recipient: rcpt.Address, Status: StatusSkipped, Reason: "mailbox lookup failed"}
	}
	if ref == nil {
		b.logger.Info().Str("to", rcpt.Address).Msg("mailbox no longer resolves, skipping")
		return Delivery{Recipient: rcpt.Address, Status: StatusSkipped, Reason: "mailbox no longer resolves"}
	}

	decision, err := b.admission.AllowReceive(ctx, ref.AccountID)
	if err != nil {
		b.logger.Error().Err(err).Str("to", rcpt.Address).Msg("fan-out admission check failed")
		return Delivery{Recipient: rcpt.Address, Status: StatusSkipped, Reason: "admission check failed"}
	}
	if !decision.Allowed {
		b.logger.Info().Str("to", rcpt.Address).Str("reason", decision.Reason).Msg("admission denied at fan-out, skipping")
		return Delivery{Recipient: rcpt.Address, Status: StatusSkipped, Reason: decision.Reason}
	}

	body, contentType := msg.Body()
	bodyKey := platform.NewBodyKey("received", ref.Address)
	if err := b.objects.Put(ctx, b.bodyBucket, bodyKey, contentType, []byte(body)); err != nil {
		b.logger.Error().Err(err).Str("to", ref.Address).Str("key", bodyKey).Msg("body upload failed")
		return Delivery{Recipient: rcpt.Address, Status: StatusFailed, Reason: "body upload failed"}
	}

	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	var messageID *string
	if msg.MessageID != "" {
		messageID = &msg.MessageID
	}
	recordID, err := b.store.InsertReceivedEmail(ctx, core.ReceivedEmailParams{
		MailboxID: ref.MailboxID,
		AccountID: ref.AccountID,
		FromEmail: msg.From,
		Subject:   subject,
		BodyKey:   bodyKey,
		MessageID: messageID,
	})
	if err != nil {
		b.logger.Error().Err(err).Str("to", ref.Address).Msg("received email insert failed")
		return Delivery{Recipient: rcpt.Address, Status: StatusFailed, Reason: "metadata insert failed"}
	}

	b.storeAttachments(ctx, msg, ref, recordID)

	b.logger.Info().Str("to", ref.Address).Str("id", recordID).Msg("message delivered")
	return Delivery{Recipient: rcpt.Address, Status: StatusDelivered}
}

// storeAttachments uploads each attachment part independently. A bad
// attachment never drops the message or its siblings. Without a
// configured attachments bucket, parts are skipped with a warning.
func (b *Backend) storeAttachments(ctx context.Context, msg *ParsedMessage, ref *model.MailboxRef, recordID string) {
	if len(msg.Attachments) == 0 {
		return
	}
	if b.attachmentsBucket == "" {
		b.logger.Warn().
			Str("to", ref.Address).
			Int("attachments", len(msg.Attachments)).
			Msg("attachments bucket not configured, skipping attachments")
		return
	}

	for _, att := range msg.Attachments {
		key := platform.NewObjectKey("received", ref.Address, att.Filename)
		if err := b.objects.Put(ctx, b.attachmentsBucket, key, att.ContentType, att.Data); err != nil {
			b.logger.Error().Err(err).Str("to", ref.Address).Str("filename", att.Filename).Msg("attachment upload failed")
			continue
		}
		_, err := b.store.InsertAttachment(ctx, core.AttachmentParams{
			ReceivedEmailID: &recordID,
			MailboxID:       ref.MailboxID,
			AccountID:       ref.AccountID,
			FileName:        platform.SanitizeFilename(att.Filename),
			FileSize:        int64(len(att.Data)),
			MimeType:        att.ContentType,
			ObjectKey:       key,
			Bucket:          b.attachmentsBucket,
		})
		if err != nil {
			b.logger.Error().Err(err).Str("to", ref.Address).Str("filename", att.Filename).Msg("attachment insert failed")
		}
	}
}
