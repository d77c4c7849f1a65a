package smtpingest

import (
	"time"

	"github.com/emersion/go-smtp"

	"github.com/edvin/mailhost/internal/config"
)

// NewServer builds the listening SMTP server around a Backend.
// Plaintext and opportunistic TLS are both accepted so relaying MTAs
// can always complete delivery; the per-message byte ceiling is
// enforced both by the protocol library and incrementally in Data.
func NewServer(backend *Backend, cfg *config.Config) *smtp.Server {
	srv := smtp.NewServer(backend)
	srv.Addr = cfg.SMTPListenAddr
	srv.Domain = cfg.SMTPHostname
	srv.ReadTimeout = 60 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.MaxMessageBytes = cfg.MaxEmailSize
	srv.MaxRecipients = 50
	srv.AllowInsecureAuth = true
	return srv
}
