package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailhost/internal/api/request"
	"github.com/edvin/mailhost/internal/api/response"
	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
)

// presignTTL bounds how long a message body or attachment link stays
// usable after it is handed out.
const presignTTL = 5 * time.Minute

type Message struct {
	svc        *core.MessageService
	mailboxes  *core.MailboxService
	objects    ObjectStore
	bodyBucket string
}

func NewMessage(svc *core.MessageService, mailboxes *core.MailboxService, objects ObjectStore, bodyBucket string) *Message {
	return &Message{svc: svc, mailboxes: mailboxes, objects: objects, bodyBucket: bodyBucket}
}

// FolderView holds one folder's worth of messages. The inbox carries
// received mail only and the sent folder outbound mail only; flag
// folders span both.
type FolderView struct {
	Folder   string                `json:"folder"`
	Received []model.ReceivedEmail `json:"received"`
	Sent     []model.SentEmail     `json:"sent"`
}

func (h *Message) List(w http.ResponseWriter, r *http.Request) {
	mailboxID, err := request.RequireID(chi.URLParam(r, "mailboxID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := requireMailbox(w, r, h.mailboxes, mailboxID)
	if m == nil {
		return
	}

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = core.FolderInbox
	}
	pg := request.ParsePagination(r)

	view := FolderView{
		Folder:   folder,
		Received: []model.ReceivedEmail{},
		Sent:     []model.SentEmail{},
	}

	if folder != core.FolderSent {
		received, err := h.svc.ListReceived(r.Context(), m.ID, folder, pg.Limit)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		view.Received = received
	}
	if folder != core.FolderInbox {
		sent, err := h.svc.ListSent(r.Context(), m.ID, folder, pg.Limit)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		view.Sent = sent
	}

	response.WriteJSON(w, http.StatusOK, view)
}

// Get returns one message. Fetching a received message marks it read.
func (h *Message) Get(w http.ResponseWriter, r *http.Request) {
	mailboxID, messageID, m := h.requireMessageScope(w, r)
	if m == nil {
		return
	}

	if received, err := h.svc.GetReceived(r.Context(), mailboxID, messageID); err == nil {
		response.WriteJSON(w, http.StatusOK, received)
		return
	}

	sent, err := h.svc.GetSent(r.Context(), mailboxID, messageID)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, "message not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, sent)
}

// BodyLinks is the presigned view of one message's stored content.
type BodyLinks struct {
	BodyURL     string           `json:"body_url"`
	ExpiresIn   int64            `json:"expires_in_seconds"`
	Attachments []AttachmentLink `json:"attachments"`
}

type AttachmentLink struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// Body hands out short-lived presigned URLs for the message body and
// its attachments instead of proxying bytes through the API.
func (h *Message) Body(w http.ResponseWriter, r *http.Request) {
	mailboxID, messageID, m := h.requireMessageScope(w, r)
	if m == nil {
		return
	}

	bodyKey, err := h.messageBodyKey(r, mailboxID, messageID)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, "message not found")
		return
	}

	bodyURL, err := h.objects.PresignedGet(r.Context(), h.bodyBucket, bodyKey, presignTTL)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	attachments, err := h.svc.ListAttachments(r.Context(), messageID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	links := BodyLinks{
		BodyURL:     bodyURL,
		ExpiresIn:   int64(presignTTL.Seconds()),
		Attachments: []AttachmentLink{},
	}
	for _, a := range attachments {
		url, err := h.objects.PresignedGet(r.Context(), a.Bucket, a.ObjectKey, presignTTL)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		links.Attachments = append(links.Attachments, AttachmentLink{
			ID:       a.ID,
			FileName: a.FileName,
			FileSize: a.FileSize,
			MimeType: a.MimeType,
			URL:      url,
		})
	}

	response.WriteJSON(w, http.StatusOK, links)
}

func (h *Message) Star(w http.ResponseWriter, r *http.Request)      { h.flag(w, r, "starred", true) }
func (h *Message) Unstar(w http.ResponseWriter, r *http.Request)    { h.flag(w, r, "starred", false) }
func (h *Message) Archive(w http.ResponseWriter, r *http.Request)   { h.flag(w, r, "archived", true) }
func (h *Message) Unarchive(w http.ResponseWriter, r *http.Request) { h.flag(w, r, "archived", false) }
func (h *Message) Trash(w http.ResponseWriter, r *http.Request)     { h.flag(w, r, "deleted", true) }
func (h *Message) Restore(w http.ResponseWriter, r *http.Request)   { h.flag(w, r, "deleted", false) }

func (h *Message) flag(w http.ResponseWriter, r *http.Request, column string, value bool) {
	mailboxID, err := request.RequireID(chi.URLParam(r, "mailboxID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := requireMailbox(w, r, h.mailboxes, mailboxID)
	if m == nil {
		return
	}

	var req request.FlagMessages
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var updated int64
	switch column {
	case "starred":
		updated, err = h.svc.SetStarred(r.Context(), m.ID, req.IDs, value)
	case "archived":
		updated, err = h.svc.SetArchived(r.Context(), m.ID, req.IDs, value)
	case "deleted":
		updated, err = h.svc.SetTrashed(r.Context(), m.ID, req.IDs, value)
	}
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// Delete removes a message and its attachment rows permanently. The
// stored blobs are left for lifecycle cleanup.
func (h *Message) Delete(w http.ResponseWriter, r *http.Request) {
	mailboxID, messageID, m := h.requireMessageScope(w, r)
	if m == nil {
		return
	}

	deleted, err := h.svc.HardDelete(r.Context(), mailboxID, messageID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if deleted == 0 {
		response.WriteError(w, http.StatusNotFound, "message not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Message) UnreadCount(w http.ResponseWriter, r *http.Request) {
	mailboxID, err := request.RequireID(chi.URLParam(r, "mailboxID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := requireMailbox(w, r, h.mailboxes, mailboxID)
	if m == nil {
		return
	}

	count, err := h.svc.UnreadCount(r.Context(), m.ID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// requireMessageScope parses the mailbox and message IDs and checks
// mailbox ownership. Returns a nil mailbox after writing the error
// response when any check fails.
func (h *Message) requireMessageScope(w http.ResponseWriter, r *http.Request) (string, string, *model.Mailbox) {
	mailboxID, err := request.RequireID(chi.URLParam(r, "mailboxID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return "", "", nil
	}
	messageID, err := request.RequireID(chi.URLParam(r, "messageID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return "", "", nil
	}

	m := requireMailbox(w, r, h.mailboxes, mailboxID)
	if m == nil {
		return "", "", nil
	}
	return mailboxID, messageID, m
}

func (h *Message) messageBodyKey(r *http.Request, mailboxID, messageID string) (string, error) {
	if received, err := h.svc.GetReceived(r.Context(), mailboxID, messageID); err == nil {
		return received.BodyKey, nil
	}
	sent, err := h.svc.GetSent(r.Context(), mailboxID, messageID)
	if err != nil {
		return "", err
	}
	return sent.BodyKey, nil
}
