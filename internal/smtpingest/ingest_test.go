package smtpingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/model"
)

func allowAll() *mockAdmission {
	admission := &mockAdmission{}
	admission.On("AllowReceive", mock.Anything, mock.Anything).Return(core.Decision{Allowed: true}, nil)
	return admission
}

func resolveSales() *mockDirectory {
	directory := &mockDirectory{}
	directory.On("ResolveMailbox", mock.Anything, "sales@verified-domain.test").Return(salesRef(), nil)
	return directory
}

func TestDeliverOne_PrefersHTMLBody(t *testing.T) {
	objects := &mockObjectStore{}
	objects.On("Put", mock.Anything, "email-bodies", mock.Anything, "text/html", []byte("<p>rich</p>")).Return(nil)
	store := &mockMessageStore{}
	store.On("InsertReceivedEmail", mock.Anything, mock.Anything).Return("test-received-1", nil)

	b := newTestBackend(resolveSales(), allowAll(), objects, store)
	msg := &ParsedMessage{From: "ext@external.test", Subject: "hi", HTMLBody: "<p>rich</p>", TextBody: "plain"}

	d := b.deliverOne(context.Background(), msg, *salesRef())
	assert.Equal(t, StatusDelivered, d.Status)
	objects.AssertExpectations(t)
}

func TestDeliverOne_EmptySubjectPlaceholder(t *testing.T) {
	objects := &mockObjectStore{}
	objects.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store := &mockMessageStore{}
	store.On("InsertReceivedEmail", mock.Anything, mock.MatchedBy(func(p core.ReceivedEmailParams) bool {
		return p.Subject == "(no subject)"
	})).Return("test-received-1", nil)

	b := newTestBackend(resolveSales(), allowAll(), objects, store)
	msg := &ParsedMessage{From: "ext@external.test", TextBody: "plain"}

	d := b.deliverOne(context.Background(), msg, *salesRef())
	assert.Equal(t, StatusDelivered, d.Status)
	store.AssertExpectations(t)
}

func TestDeliverOne_AdmissionDeniedAtFanoutSkips(t *testing.T) {
	admission := &mockAdmission{}
	admission.On("AllowReceive", mock.Anything, "test-account-1").
		Return(core.Decision{Allowed: false, Reason: "subscription expired"}, nil)
	objects := &mockObjectStore{}
	store := &mockMessageStore{}

	b := newTestBackend(resolveSales(), admission, objects, store)
	msg := &ParsedMessage{From: "ext@external.test", TextBody: "plain"}

	d := b.deliverOne(context.Background(), msg, *salesRef())
	assert.Equal(t, StatusSkipped, d.Status)
	assert.Equal(t, "subscription expired", d.Reason)
	objects.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliverOne_InsertFailureReported(t *testing.T) {
	objects := &mockObjectStore{}
	objects.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store := &mockMessageStore{}
	store.On("InsertReceivedEmail", mock.Anything, mock.Anything).Return("", errors.New("insert failed"))

	b := newTestBackend(resolveSales(), allowAll(), objects, store)
	msg := &ParsedMessage{From: "ext@external.test", TextBody: "plain"}

	d := b.deliverOne(context.Background(), msg, *salesRef())
	assert.Equal(t, StatusFailed, d.Status)
	assert.Equal(t, "metadata insert failed", d.Reason)
}

// With no attachments bucket configured the message row is still
// created, zero attachment rows are created, and a warning is logged.
func TestDeliverOne_AttachmentsBucketUnsetSkipsWithWarning(t *testing.T) {
	objects := &mockObjectStore{}
	objects.On("Put", mock.Anything, "email-bodies", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store := &mockMessageStore{}
	store.On("InsertReceivedEmail", mock.Anything, mock.Anything).Return("test-received-1", nil)

	var logBuf strings.Builder
	logger := zerolog.New(&logBuf)
	b := NewBackend(logger, resolveSales(), allowAll(), objects, store, "email-bodies", "", testMaxBytes)

	msg := &ParsedMessage{
		From:     "ext@external.test",
		TextBody: "plain",
		Attachments: []AttachmentPart{
			{Filename: "report.pdf", ContentType: "application/pdf", Data: []byte("pdf-bytes")},
		},
	}

	d := b.deliverOne(context.Background(), msg, *salesRef())
	assert.Equal(t, StatusDelivered, d.Status)
	store.AssertNotCalled(t, "InsertAttachment", mock.Anything, mock.Anything)
	objects.AssertNumberOfCalls(t, "Put", 1)
	assert.Contains(t, logBuf.String(), "attachments bucket not configured")
}

// One bad attachment never drops the message or its siblings.
func TestDeliverOne_AttachmentFailureIsolated(t *testing.T) {
	objects := &mockObjectStore{}
	objects.On("Put", mock.Anything, "email-bodies", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	objects.On("Put", mock.Anything, "attachments", mock.Anything, "application/pdf", mock.Anything).
		Return(errors.New("s3 unavailable")).Once()
	objects.On("Put", mock.Anything, "attachments", mock.Anything, "image/png", mock.Anything).Return(nil).Once()

	store := &mockMessageStore{}
	store.On("InsertReceivedEmail", mock.Anything, mock.Anything).Return("test-received-1", nil)
	store.On("InsertAttachment", mock.Anything, mock.MatchedBy(func(p core.AttachmentParams) bool {
		return p.FileName == "photo.png" && p.MimeType == "image/png" &&
			p.ReceivedEmailID != nil && *p.ReceivedEmailID == "test-received-1"
	})).Return("test-attachment-1", nil)

	b := newTestBackend(resolveSales(), allowAll(), objects, store)
	msg := &ParsedMessage{
		From:     "ext@external.test",
		TextBody: "plain",
		Attachments: []AttachmentPart{
			{Filename: "report.pdf", ContentType: "application/pdf", Data: []byte("pdf-bytes")},
			{Filename: "photo.png", ContentType: "image/png", Data: []byte("png-bytes")},
		},
	}

	d := b.deliverOne(context.Background(), msg, *salesRef())
	assert.Equal(t, StatusDelivered, d.Status)
	store.AssertNumberOfCalls(t, "InsertAttachment", 1)
	objects.AssertExpectations(t)
}

func TestDeliver_AccumulatesOutcomes(t *testing.T) {
	directory := &mockDirectory{}
	directory.On("ResolveMailbox", mock.Anything, "sales@verified-domain.test").Return(salesRef(), nil)
	directory.On("ResolveMailbox", mock.Anything, "gone@verified-domain.test").Return(nil, nil)
	objects := &mockObjectStore{}
	objects.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store := &mockMessageStore{}
	store.On("InsertReceivedEmail", mock.Anything, mock.Anything).Return("test-received-1", nil)

	b := newTestBackend(directory, allowAll(), objects, store)
	msg := &ParsedMessage{From: "ext@external.test", TextBody: "plain"}

	deliveries := b.deliver(context.Background(), msg, []model.MailboxRef{
		*salesRef(),
		{MailboxID: "test-mailbox-9", AccountID: "test-account-1", Address: "gone@verified-domain.test"},
	})
	require.Len(t, deliveries, 2)
	assert.Equal(t, StatusDelivered, deliveries[0].Status)
	assert.Equal(t, StatusSkipped, deliveries[1].Status)
	assert.Equal(t, "mailbox no longer resolves", deliveries[1].Reason)
}
