package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendFunc func(ctx context.Context, m *sgmail.SGMailV3) (*rest.Response, error)

type sendGridMailer struct {
	from     string
	fromName string
	send     sendFunc
}

// NewSendGridMailer sends through the SendGrid v3 API.
func NewSendGridMailer(apiKey, from, fromName string) (Mailer, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is empty")
	}
	if from == "" {
		return nil, errors.New("sendgrid from address is empty")
	}
	client := sendgrid.NewSendClient(apiKey)
	return &sendGridMailer{from: from, fromName: fromName, send: client.SendWithContext}, nil
}

func (m *sendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return errors.New("to address is empty")
	}
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail("", to))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(sgmail.NewEmail(m.fromName, m.from))
	msg.Subject = headerSafe(subject)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/plain", body))

	resp, err := m.send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
