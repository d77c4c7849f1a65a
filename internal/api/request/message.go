package request

// SendEmail is one outbound message. Attachment content is
// base64-encoded, matching what the relay expects on the wire.
type SendEmail struct {
	To          string           `json:"to" validate:"required,email"`
	Subject     string           `json:"subject" validate:"max=998"`
	HTMLBody    string           `json:"html_body" validate:"required"`
	Attachments []SendAttachment `json:"attachments" validate:"omitempty,dive"`
}

type SendAttachment struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type"`
	Content     string `json:"content" validate:"required,base64"`
}

// FlagMessages names the messages a star/archive/trash operation
// applies to. A single-message operation sends one ID.
type FlagMessages struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}
