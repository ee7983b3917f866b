package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"hrms-backend/internal/config"
)

// SMTPMailer sends plain-text mail over SMTP. Each Send opens its own
// connection; the service's mail volume (one code per register, login
// resend or password reset request) does not justify pooling.
type SMTPMailer struct {
	cfg  *config.SMTPConfig
	auth smtp.Auth
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{cfg: cfg, auth: auth}
}

// Validate reports whether the mailer is usable with the given config.
func (m *SMTPMailer) Validate() error {
	if m.cfg.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if m.cfg.Port <= 0 || m.cfg.Port > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", m.cfg.Port)
	}
	if m.cfg.From == "" {
		return fmt.Errorf("SMTP from address is required")
	}
	return nil
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	msg := m.buildMessage(to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	if m.cfg.UseTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
		if err != nil {
			return fmt.Errorf("failed to dial TLS: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, m.cfg.Host)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Close()

		return m.sendWithClient(client, to, msg)
	}

	return smtp.SendMail(addr, m.auth, m.cfg.From, []string{to}, msg)
}

func (m *SMTPMailer) sendWithClient(client *smtp.Client, to string, msg []byte) error {
	if m.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(m.auth); err != nil {
				return fmt.Errorf("SMTP auth failed: %w", err)
			}
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (m *SMTPMailer) buildMessage(to, subject, body string) []byte {
	builder := &strings.Builder{}
	builder.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.From))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", to))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(body)
	return []byte(builder.String())
}
