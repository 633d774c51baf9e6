// Package notify delivers mails: DS hand over requests and run summaries.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/go-mail/mail"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/log"
)

// ErrNoRecipients is returned if a mail has nobody to go to
var ErrNoRecipients = errors.New("no recipients")

// Sender delivers a plain text mail
type Sender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SMTPSender delivers mails through an SMTP relay
type SMTPSender struct {
	cfg config.Mail
	// dial is replaced in tests
	dial func(d *mail.Dialer, m ...*mail.Message) error
}

// NewSender returns a SMTPSender if a relay is configured, a sender which only logs otherwise
func NewSender(cfg config.Mail) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}

	return NewSMTPSender(cfg)
}

// NewSMTPSender creates a sender using the relay of the configuration
func NewSMTPSender(cfg config.Mail) *SMTPSender {
	return &SMTPSender{
		cfg: cfg,
		dial: func(d *mail.Dialer, m ...*mail.Message) error {
			return d.DialAndSend(m...)
		},
	}
}

// Send implements `Sender`.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("can't send '%s': %w", subject, ErrNoRecipients)
	}

	logger := log.FromCtx(ctx).WithField("prefix", "mail")

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.Sender)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}

	if err := s.dial(d, m); err != nil {
		return fmt.Errorf("smtp send to %v: %w", to, err)
	}

	logger.Debugf("mail '%s' sent to %v", subject, to)

	return nil
}

// LogSender logs mails instead of sending them, it's used without relay
type LogSender struct{}

// Send implements `Sender`.
func (LogSender) Send(ctx context.Context, to []string, subject, body string) error {
	logger := log.FromCtx(ctx).WithField("prefix", "mail")

	logger.Warnf("no mail relay configured, mail to %v not sent: %s", to, subject)
	logger.Debug(body)

	return nil
}
