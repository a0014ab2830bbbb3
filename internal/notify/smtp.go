package notify

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"nursehub-api/internal/config"
)

type SMTPMailer struct {
	cfg config.SMTP
	log *zap.Logger
}

func NewSMTPMailer(cfg config.SMTP, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log.Named("smtp")}
}

func (m *SMTPMailer) SendMail(ctx context.Context, to, subject, html string) error {
	if m.cfg.Host == "" {
		m.log.Info("smtp not configured, email not sent", zap.String("to", to), zap.String("subject", subject))
		return ErrNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, "NurseHub")
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Pass)
	return bounded(ctx, func() error { return d.DialAndSend(msg) })
}
