package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"BloodLink/pkg/errors"
)

type MailConfig struct {
	Host     string
	Port     int64
	Username string
	Password string
	From     string
}

func (c MailConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpMailer struct {
	cfg MailConfig
}

func NewSMTPMailer(cfg MailConfig) MailSender {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.cfg.Configured() {
		return errors.WithCode(errors.CodeNotConfigured, "mail credentials missing")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.cfg.From, to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return errors.Wrap(err, "send mail")
	}
	return nil
}
