// Package notify renders and sends transactional email.
package notify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"quizroom/internal/config"
)

// Email represents an email message.
type Email struct {
	To       []string
	ReplyTo  string
	Subject  string
	Body     string
	HTMLBody string
}

// Mailer sends a single email.
type Mailer interface {
	Send(email Email) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	return m.dialer.DialAndSend(m.message(email))
}

func (m *SMTPMailer) message(email Email) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	if email.ReplyTo != "" {
		msg.SetHeader("Reply-To", email.ReplyTo)
	}
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
	return msg
}

// LogMailer writes emails to the log instead of sending them. Used when no
// SMTP host is configured.
type LogMailer struct {
	log *zerolog.Logger
}

func NewLogMailer(log *zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	m.log.Info().
		Str("to", strings.Join(email.To, ",")).
		Str("subject", email.Subject).
		Str("body", email.Body).
		Msg("email not sent: smtp disabled")
	return nil
}

// NewMailer picks the SMTP mailer when a host is configured.
func NewMailer(cfg config.SMTPConfig, log *zerolog.Logger) Mailer {
	if cfg.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, emails will be logged only")
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg)
}
