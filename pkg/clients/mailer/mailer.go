package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/mamadbah2/pettycash/internal/config"
)

// ErrDisabled is returned when no SMTP host is configured.
var ErrDisabled = errors.New("mail delivery is not configured")

// Attachment is a file sent along with a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a plain text email.
type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Client sends transactional email.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPClient delivers messages through gomail.
type SMTPClient struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewSMTPClient builds an SMTP client from configuration.
func NewSMTPClient(cfg config.MailConfig, logger *zap.Logger) *SMTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	var dialer *gomail.Dialer
	if cfg.Host != "" {
		dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return &SMTPClient{dialer: dialer, from: cfg.From, logger: logger}
}

// Send dials the server and delivers msg. gomail has no context support, so
// ctx is only checked before dialing.
func (c *SMTPClient) Send(ctx context.Context, msg Message) error {
	if c.dialer == nil {
		return ErrDisabled
	}
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}

	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail %q: %w", msg.Subject, err)
	}

	c.logger.Info("mail sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
