package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender delivers transactional mail. The user service only ever needs the
// password-reset message.
type Sender interface {
	SendPasswordReset(to, resetLink string) error
}

// SMTPSender sends mail through a plain SMTP account (the same shape as a
// Gmail app-password setup).
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	if from == "" {
		from = username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) SendPasswordReset(to, resetLink string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Password Reset Request")
	m.SetBody("text/plain", "Click the following link to reset your password: "+resetLink)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)
