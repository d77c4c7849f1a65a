package handler

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	mw "github.com/edvin/mailhost/internal/api/middleware"
	"github.com/edvin/mailhost/internal/api/request"
	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
	"github.com/edvin/mailhost/internal/platform"
	"github.com/edvin/mailhost/internal/relay"
)

type Send struct {
	messages          *core.MessageService
	mailboxes         *core.MailboxService
	directory         *core.TenantDirectoryService
	admission         *core.AdmissionService
	objects           ObjectStore
	relay             Relay
	bodyBucket        string
	attachmentsBucket string
}

func NewSend(
	messages *core.MessageService,
	mailboxes *core.MailboxService,
	directory *core.TenantDirectoryService,
	admission *core.AdmissionService,
	objects ObjectStore,
	rly Relay,
	bodyBucket, attachmentsBucket string,
) *Send {
	return &Send{
		messages:          messages,
		mailboxes:         mailboxes,
		directory:         directory,
		admission:         admission,
		objects:           objects,
		relay:             rly,
		bodyBucket:        bodyBucket,
		attachmentsBucket: attachmentsBucket,
	}
}

// Handle sends one message from a mailbox. The body is stored first,
// then handed to the relay; the sent_emails row records SENT or FAILED
// either way. When the recipient is a mailbox on this platform the
// message is also delivered locally.
func (h *Send) Handle(w http.ResponseWriter, r *http.Request) {
	account := mw.GetAccount(r.Context())
	logger := zerolog.Ctx(r.Context())

	mailboxID, err := request.RequireID(chi.URLParam(r, "mailboxID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := requireMailbox(w, r, h.mailboxes, mailboxID)
	if m == nil {
		return
	}

	var req request.SendEmail
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := h.admission.AllowSend(r.Context(), account.ID)
	if !writeDecision(w, decision, err) {
		return
	}

	// Decode attachments up front so a bad payload fails before any
	// side effects.
	contents := make([][]byte, len(req.Attachments))
	for i, att := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, "attachment "+att.Filename+": invalid base64 content")
			return
		}
		contents[i] = data
	}

	bodyKey := platform.NewBodyKey("sent", m.Address)
	if err := h.objects.Put(r.Context(), h.bodyBucket, bodyKey, "text/html", []byte(req.HTMLBody)); err != nil {
		response.WriteError(w, http.StatusInternalServerError, "store message body: "+err.Error())
		return
	}

	status := model.MessageStatusSent
	if h.relay == nil {
		status = model.MessageStatusFailed
		logger.Warn().Str("mailbox", m.Address).Msg("no relay configured, message not sent")
	} else if err := h.relay.Send(r.Context(), h.sendParams(m, req)); err != nil {
		status = model.MessageStatusFailed
		logger.Error().Err(err).Str("mailbox", m.Address).Str("to", req.To).Msg("relay send failed")
	}

	sent := &model.SentEmail{
		ID:        platform.NewID(),
		MailboxID: m.ID,
		AccountID: account.ID,
		ToEmail:   req.To,
		Subject:   req.Subject,
		BodyKey:   bodyKey,
		Status:    status,
		SentAt:    time.Now().UTC(),
	}
	if err := h.messages.InsertSentEmail(r.Context(), sent); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	attachments := h.storeAttachments(r, m, sent.ID, req.Attachments, contents)

	h.deliverLocally(r, m, req, bodyKey, attachments)

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":     sent,
		"attachments": attachments,
	})
}

func (h *Send) sendParams(m *model.Mailbox, req request.SendEmail) relay.SendParams {
	params := relay.SendParams{
		FromEmail: m.Address,
		FromName:  m.DisplayName,
		ToEmail:   req.To,
		Subject:   req.Subject,
		HTMLBody:  req.HTMLBody,
	}
	for _, att := range req.Attachments {
		params.Attachments = append(params.Attachments, relay.SendAttachment{
			Content:  att.Content,
			Filename: att.Filename,
			Type:     att.ContentType,
		})
	}
	return params
}

// storeAttachments uploads each attachment and records its row. One
// failing attachment does not abort the others or the send.
func (h *Send) storeAttachments(r *http.Request, m *model.Mailbox, sentID string, atts []request.SendAttachment, contents [][]byte) []model.Attachment {
	logger := zerolog.Ctx(r.Context())
	stored := []model.Attachment{}

	if len(atts) == 0 {
		return stored
	}
	if h.attachmentsBucket == "" {
		logger.Warn().Msg("attachments bucket not configured, skipping attachments")
		return stored
	}

	for i, att := range atts {
		key := platform.NewObjectKey("sent", m.Address, att.Filename)
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		if err := h.objects.Put(r.Context(), h.attachmentsBucket, key, contentType, contents[i]); err != nil {
			logger.Error().Err(err).Str("filename", att.Filename).Msg("attachment upload failed")
			continue
		}

		id, err := h.messages.InsertAttachment(r.Context(), core.AttachmentParams{
			SentEmailID: &sentID,
			MailboxID:   m.ID,
			AccountID:   m.AccountID,
			FileName:    platform.SanitizeFilename(att.Filename),
			FileSize:    int64(len(contents[i])),
			MimeType:    contentType,
			ObjectKey:   key,
			Bucket:      h.attachmentsBucket,
		})
		if err != nil {
			logger.Error().Err(err).Str("filename", att.Filename).Msg("attachment insert failed")
			continue
		}

		stored = append(stored, model.Attachment{
			ID:          id,
			SentEmailID: &sentID,
			MailboxID:   m.ID,
			AccountID:   m.AccountID,
			FileName:    platform.SanitizeFilename(att.Filename),
			FileSize:    int64(len(contents[i])),
			MimeType:    contentType,
			ObjectKey:   key,
			Bucket:      h.attachmentsBucket,
		})
	}
	return stored
}

// deliverLocally short-circuits mail between mailboxes on this
// platform: when the recipient resolves here and its account is under
// quota, a received_emails row is written directly. Best effort; local
// delivery problems never fail the send.
func (h *Send) deliverLocally(r *http.Request, m *model.Mailbox, req request.SendEmail, bodyKey string, attachments []model.Attachment) {
	logger := zerolog.Ctx(r.Context())
	ctx := r.Context()

	ref, err := h.directory.ResolveMailbox(ctx, req.To)
	if err != nil {
		logger.Warn().Err(err).Str("to", req.To).Msg("local recipient lookup failed")
		return
	}
	if ref == nil {
		return
	}

	decision, err := h.admission.AllowReceive(ctx, ref.AccountID)
	if err != nil || !decision.Allowed {
		logger.Info().Str("to", req.To).Msg("local delivery skipped, recipient over quota")
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	recordID, err := h.messages.InsertReceivedEmail(ctx, core.ReceivedEmailParams{
		MailboxID: ref.MailboxID,
		AccountID: ref.AccountID,
		FromEmail: m.Address,
		Subject:   subject,
		BodyKey:   bodyKey,
	})
	if err != nil {
		logger.Error().Err(err).Str("to", req.To).Msg("local delivery insert failed")
		return
	}

	// Attachment blobs are shared with the sent copy; only the rows
	// are duplicated for the recipient.
	for _, a := range attachments {
		_, err := h.messages.InsertAttachment(ctx, core.AttachmentParams{
			ReceivedEmailID: &recordID,
			MailboxID:       ref.MailboxID,
			AccountID:       ref.AccountID,
			FileName:        a.FileName,
			FileSize:        a.FileSize,
			MimeType:        a.MimeType,
			ObjectKey:       a.ObjectKey,
			Bucket:          a.Bucket,
		})
		if err != nil {
			logger.Error().Err(err).Str("filename", a.FileName).Msg("local attachment insert failed")
		}
	}

	logger.Info().Str("from", m.Address).Str("to", ref.Address).Msg("delivered locally")
}
