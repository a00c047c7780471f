package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type mailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid sends notifications as plain-text email.
type SendGrid struct {
	client   mailSender
	from     string
	fromName string
}

func NewSendGrid(apiKey, fromEmail, fromName string) *SendGrid {
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		from:     fromEmail,
		fromName: fromName,
	}
}

func (s *SendGrid) Notify(_ context.Context, n Notification) error {
	if n.Email == "" {
		return ErrNoRecipient
	}

	subject := n.Subject
	if subject == "" {
		subject = s.fromName
	}

	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(n.Name, n.Email)
	msg := mail.NewSingleEmailPlainText(from, subject, to, n.Text)

	resp, err := s.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", n.Email, err)
	}
	if resp != nil && resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", n.Email, resp.StatusCode, resp.Body)
	}
	return nil
}
