// Package mail sends transactional email.  SMTPMailer relays through an SMTP
// server with gomail; LogMailer only logs and is used when no relay is
// configured.
package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// dialer is the part of *gomail.Dialer we use.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer dialer
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{from: from, dialer: gomail.NewDialer(host, port, user, password)}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		gm.SetBody("text/plain", msg.Text)
		if msg.HTML != "" {
			gm.AddAlternative("text/html", msg.HTML)
		}
	} else {
		gm.SetBody("text/html", msg.HTML)
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.  Bodies
// carry reset links, so they are logged only when showBody is set
// (development).
type LogMailer struct {
	log      *zap.Logger
	showBody bool
}

func NewLogMailer(log *zap.Logger, showBody bool) *LogMailer {
	return &LogMailer{log: log, showBody: showBody}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	fields := []zap.Field{
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	}
	if m.showBody {
		fields = append(fields, zap.String("body", msg.Text))
	}
	m.log.Info("mail not sent (no SMTP relay configured)", fields...)
	return nil
}
