package service

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr    string // host:port
	From    string
	Auth    smtp.Auth
	BaseURL string // public base URL used to build verification links
}

var _ Mailer = (*SMTPMailer)(nil)

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, username, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/v1/auth/verify-email/%s", m.BaseURL, token)

	e := email.NewEmail()
	e.From = m.From
	e.To = []string{to}
	e.Subject = "Verify your Bookstack account"
	e.Text = []byte(fmt.Sprintf(
		"Hi %s,\n\nWelcome to Bookstack. Confirm your email address by visiting:\n\n%s\n\nThe link expires in 24 hours. If you didn't sign up, ignore this mail.\n",
		username, link))

	if err := e.Send(m.Addr, m.Auth); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}
