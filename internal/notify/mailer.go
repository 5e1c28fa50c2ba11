// Package notify sends transactional email through SendGrid.
package notify

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Mailer struct {
	client *sendgrid.Client
	from   string
	to     string
}

// NewMailer returns a mailer, or a disabled one when apiKey is empty
// so dev setups work without SendGrid credentials.
func NewMailer(apiKey, from, to string) *Mailer {
	m := &Mailer{from: from, to: to}
	if apiKey != "" {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

func (m *Mailer) Enabled() bool { return m.client != nil && m.to != "" }

// ContactReceived forwards a contact-form message to the site inbox.
func (m *Mailer) ContactReceived(name, email, subject, message string) error {
	if !m.Enabled() {
		log.Printf("notify: sendgrid disabled, dropping contact mail from %s", email)
		return nil
	}
	if subject == "" {
		subject = "New contact message"
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s", name, email, message)
	msg := mail.NewSingleEmail(
		mail.NewEmail("PharmaPrepa", m.from),
		"[Contact] "+subject,
		mail.NewEmail("", m.to),
		body, "")
	resp, err := m.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d", resp.StatusCode)
	}
	return nil
}
