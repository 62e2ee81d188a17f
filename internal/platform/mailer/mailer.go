// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer delivers transactional email for account flows.

Core Responsibilities:

  - Delivery: Sends messages over SMTP with PLAIN authentication.
  - Templating: Renders message bodies from embedded templates.
  - Abstraction: Exposes a Mailer interface so services stay testable.

Delivery failures are returned to the caller; the auth service decides how to
compensate (for example, clearing an unusable reset token).
*/
package mailer

import (
	"bytes"
	stdctx "context"
	"fmt"
	"net/smtp"
	"text/template"
)

// Mailer sends account-lifecycle email.
type Mailer interface {
	// SendWelcome greets a new account and carries the email verification link.
	SendWelcome(context stdctx.Context, recipient string, displayName string, verifyURL string) error

	// SendPasswordReset carries the single-use password reset link.
	SendPasswordReset(context stdctx.Context, recipient string, resetURL string) error
}

// SMTPMailer is the production Mailer backed by net/smtp.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer constructs a Mailer for the given SMTP relay.
//
// # Parameters
//   - host: SMTP relay hostname.
//   - port: SMTP relay port ("587" for STARTTLS submission).
//   - username: SMTP auth username (empty disables auth, for local relays).
//   - password: SMTP auth password.
//   - from: The From address for all outgoing mail.
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// welcomeTemplate greets the new account and carries the verification link.
// The link expires together with the verification token.
var welcomeTemplate = template.Must(template.New("welcome").Parse(
	`Hi {{.DisplayName}},

Welcome to Aegis! Please confirm your email address by opening the link below:

{{.VerifyURL}}

The link is valid for 10 minutes. If you didn't create an account, you can
safely ignore this email.

- The Aegis Team
`))

// resetTemplate carries the single-use password reset link.
var resetTemplate = template.Must(template.New("reset").Parse(
	`Forgot your password? Open the link below to choose a new one:

{{.ResetURL}}

The link is valid for 10 minutes and can be used once. If you didn't request
a password reset, please ignore this email and your password will remain
unchanged.

- The Aegis Team
`))

// SendWelcome implements Mailer.
func (m *SMTPMailer) SendWelcome(context stdctx.Context, recipient string, displayName string, verifyURL string) error {
	body, err := render(welcomeTemplate, struct {
		DisplayName string
		VerifyURL   string
	}{DisplayName: displayName, VerifyURL: verifyURL})
	if err != nil {
		return err
	}

	return m.send(context, recipient, "Welcome to Aegis - verify your email", body)
}

// SendPasswordReset implements Mailer.
func (m *SMTPMailer) SendPasswordReset(context stdctx.Context, recipient string, resetURL string) error {
	body, err := render(resetTemplate, struct {
		ResetURL string
	}{ResetURL: resetURL})
	if err != nil {
		return err
	}

	return m.send(context, recipient, "Your password reset link (valid for 10 minutes)", body)
}

// send assembles RFC 5322 headers and hands the message to the relay.
func (m *SMTPMailer) send(context stdctx.Context, recipient string, subject string, body string) error {
	if err := context.Err(); err != nil {
		return err
	}

	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		m.from, recipient, subject, body,
	))

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	address := fmt.Sprintf("%s:%s", m.host, m.port)
	if err := smtp.SendMail(address, auth, m.from, []string{recipient}, message); err != nil {
		return fmt.Errorf("mailer: send to %s failed: %w", recipient, err)
	}

	return nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, data); err != nil {
		return "", fmt.Errorf("mailer: render %s failed: %w", tmpl.Name(), err)
	}
	return buffer.String(), nil
}
