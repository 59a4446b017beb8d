package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/Masterminds/sprig/v3"

	"github.com/lumina-platform/auth-service/config"
)

// Mailer delivers transactional email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendRegistrationCode(ctx context.Context, to, name, code string) error
	SendPasswordResetCode(ctx context.Context, to, name, code string) error
}

const registrationTemplate = `
<html>
  <body style="font-family: sans-serif;">
    <h2>Welcome{{ if .Name }}, {{ .Name | title }}{{ end }}!</h2>
    <p>Your verification code is:</p>
    <p style="font-size: 28px; letter-spacing: 6px;"><strong>{{ .Code }}</strong></p>
    <p>This code expires in {{ .ExpiryMinutes }} minutes. If you did not request it, you can ignore this email.</p>
  </body>
</html>`

const passwordResetTemplate = `
<html>
  <body style="font-family: sans-serif;">
    <h2>Password reset{{ if .Name }} for {{ .Name | title }}{{ end }}</h2>
    <p>Use this code to reset your password:</p>
    <p style="font-size: 28px; letter-spacing: 6px;"><strong>{{ .Code }}</strong></p>
    <p>This code expires in {{ .ExpiryMinutes }} minutes. If you did not request it, your account is still safe.</p>
  </body>
</html>`

type templateData struct {
	Name          string
	Code          string
	ExpiryMinutes int
}

// SMTPMailer sends email over plain SMTP with AUTH when credentials are
// configured.
type SMTPMailer struct {
	cfg           config.SMTPConfig
	expiryMinutes int
	registration  *template.Template
	passwordReset *template.Template
}

func NewSMTPMailer(cfg config.SMTPConfig, otpExpiryMinutes int) (*SMTPMailer, error) {
	reg, err := template.New("registration").Funcs(sprig.FuncMap()).Parse(registrationTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse registration template: %w", err)
	}
	reset, err := template.New("password_reset").Funcs(sprig.FuncMap()).Parse(passwordResetTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse password reset template: %w", err)
	}

	return &SMTPMailer{
		cfg:           cfg,
		expiryMinutes: otpExpiryMinutes,
		registration:  reg,
		passwordReset: reset,
	}, nil
}

func (m *SMTPMailer) SendRegistrationCode(ctx context.Context, to, name, code string) error {
	return m.send(ctx, to, "Verify your email", m.registration, templateData{
		Name:          name,
		Code:          code,
		ExpiryMinutes: m.expiryMinutes,
	})
}

func (m *SMTPMailer) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	return m.send(ctx, to, "Reset your password", m.passwordReset, templateData{
		Name:          name,
		Code:          code,
		ExpiryMinutes: m.expiryMinutes,
	})
}

func (m *SMTPMailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data templateData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	from := m.cfg.From
	fromHeader := from
	if m.cfg.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", m.cfg.FromName, from)
	}

	var msg strings.Builder
	msg.WriteString("From: " + fromHeader + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
