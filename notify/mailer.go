package notify

import (
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/supply"
	templates "github.com/linesmerrill/dose-reminder-api/templates/html"
)

type sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer sends reminders and supply digests through SendGrid.
type Mailer struct {
	client sender
	from   *mail.Email
	to     *mail.Email
}

// NewMailer returns a Mailer delivering to the given address.
func NewMailer(apiKey, to string) *Mailer {
	return &Mailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Dose Reminder", "no-reply@dose-reminder.app"),
		to:     mail.NewEmail("", to),
	}
}

// Send delivers one message.
func (m *Mailer) Send(subject, plainText, htmlContent string) error {
	message := mail.NewSingleEmail(m.from, subject, m.to, plainText, htmlContent)
	response, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("while sending %q: %w", subject, err)
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

// SendReport mails a supply report. Empty reports are not sent.
func (m *Mailer) SendReport(r *supply.Report) error {
	if r.Empty() {
		return nil
	}
	subject := fmt.Sprintf("%d medications need attention", r.Count())
	return m.Send(subject, r.Summary(), templates.RenderSupplyDigestEmail(r))
}

// Post implements Sink.
func (m *Mailer) Post(id int, title, body string, count int) error {
	return m.Send(title, body, templates.RenderReminderEmail(title, body))
}

// Cancel implements Sink. Sent mail stays sent.
func (m *Mailer) Cancel(id int) error {
	return nil
}
