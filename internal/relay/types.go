package relay

// SendParams describes one outbound message handed to the relay.
type SendParams struct {
	FromEmail   string
	FromName    string
	ToEmail     string
	Subject     string
	HTMLBody    string
	Attachments []SendAttachment
}

// SendAttachment is one file attached to an outbound message. Content
// is base64-encoded.
type SendAttachment struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// DomainAuth is the relay's sender-authentication record set for one
// domain. The owner must publish the CNAME records before the relay
// will sign mail for the domain.
type DomainAuth struct {
	ID     int64     `json:"id"`
	Domain string    `json:"domain"`
	Valid  bool      `json:"valid"`
	DNS    DomainDNS `json:"dns"`
}

// DomainDNS holds the CNAME records the relay requires.
type DomainDNS struct {
	MailCNAME CNAMERecord `json:"mail_cname"`
	DKIM1     CNAMERecord `json:"dkim1"`
	DKIM2     CNAMERecord `json:"dkim2"`
}

// CNAMERecord is one host/data pair to publish.
type CNAMERecord struct {
	Host string `json:"host"`
	Data string `json:"data"`
}
