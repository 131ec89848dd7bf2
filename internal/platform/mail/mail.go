// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

/*
Package mail provides outbound email delivery for transactional messages.

The only transactional message today is the password-reset link, but the
[Sender] contract is message-agnostic so future notifications reuse it.

Delivery Modes:

  - SMTPSender: Real delivery via an authenticated SMTP relay.
  - LogSender: Development mode; messages are logged, never sent.

Outbound traffic is paced with a token-bucket limiter so a burst of reset
requests cannot trip the relay's abuse thresholds.
*/
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"
)

// Sender delivers a single email message.
type Sender interface {

	/*
		Send delivers one message to a single recipient.

		Parameters:
		  - context: context.Context
		  - to: string (Recipient address)
		  - subject: string
		  - body: string (Plain-text body)

		Returns:
		  - error: Delivery failures
	*/
	Send(context context.Context, to, subject, body string) error
}

// # SMTP Delivery

// Pacing defaults for the outbound relay.
const (
	// defaultSendRate is sustained messages per second.
	defaultSendRate = 1.0
	// defaultSendBurst absorbs short spikes without delaying them.
	defaultSendBurst = 5
)

// SMTPSender delivers messages through an authenticated SMTP relay.
type SMTPSender struct {
	host    string
	port    string
	from    string
	auth    smtp.Auth
	limiter *rate.Limiter
}

// NewSMTPSender constructs a relay-backed sender with outbound pacing.
func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:    host,
		port:    port,
		from:    from,
		auth:    smtp.PlainAuth("", username, password, host),
		limiter: rate.NewLimiter(rate.Limit(defaultSendRate), defaultSendBurst),
	}
}

// Send delivers the message, blocking until the pacing limiter permits it
// or the context is cancelled.
func (sender *SMTPSender) Send(context context.Context, to, subject, body string) error {

	// Respect outbound pacing before touching the relay
	if err := sender.limiter.Wait(context); err != nil {
		return fmt.Errorf("mail: send cancelled while pacing: %w", err)
	}

	message := buildMessage(sender.from, to, subject, body)
	addr := sender.host + ":" + sender.port

	if err := smtp.SendMail(addr, sender.auth, sender.from, []string{to}, message); err != nil {
		return fmt.Errorf("mail: smtp delivery failed: %w", err)
	}

	return nil
}

// buildMessage assembles a minimal RFC 5322 plain-text message.
func buildMessage(from, to, subject, body string) []byte {
	var builder strings.Builder
	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	builder.WriteString("Subject: " + subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(body)
	return []byte(builder.String())
}

// # Development Delivery

// LogSender writes messages to the structured log instead of sending them.
//
// Used in development and tests where no SMTP relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message and reports success.
func (sender *LogSender) Send(context context.Context, to, subject, body string) error {
	sender.logger.InfoContext(context, "mail_logged_not_sent",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
