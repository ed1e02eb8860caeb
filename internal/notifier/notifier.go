package notifier

import (
	"fmt"

	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/notifier/providers"
	"github.com/tokpromo/tokpromo/internal/report"
)

// Notifier handles sending run reports
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a new notifier that mails reports to toAddr
func New(sender Sender, toAddr string) *Notifier {
	return &Notifier{sender: sender, to: toAddr}
}

// NewFromConfig creates a notifier based on configuration
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("email is not configured: smtp_host and to_address are required")
	}

	var sender Sender

	switch cfg.Provider {
	case "smtp", "":
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.ToAddr), nil
}

// SendReport sends a run report email
func (n *Notifier) SendReport(r *report.Report) error {
	return n.sender.Send(n.to, r.Subject, r.HTMLBody, r.PlainBody)
}
