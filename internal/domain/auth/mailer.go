package auth

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	SendMagicLink(ctx context.Context, email, link string) error
}

// DevConsoleMailer logs links instead of sending them.
type DevConsoleMailer struct {
	log *zap.Logger
}

func NewDevConsoleMailer(log *zap.Logger) *DevConsoleMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &DevConsoleMailer{log: log.Named("mail")}
}

func (m *DevConsoleMailer) SendMagicLink(_ context.Context, email, link string) error {
	m.log.Info("[DEV-EMAIL] magic link", zap.String("email", email), zap.String("link", link))
	return nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers magic links over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) SendMagicLink(ctx context.Context, email, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Sign in to Buyer Leads")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Use the link below to sign in. It expires shortly and works once.\n\n%s\n\nIf you did not request this, ignore this email.\n", link))
	msg.AddAlternative("text/html", fmt.Sprintf(
		`<p>Use the link below to sign in. It expires shortly and works once.</p><p><a href="%s">Sign in</a></p><p>If you did not request this, ignore this email.</p>`, html.EscapeString(link)))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}
	return nil
}
