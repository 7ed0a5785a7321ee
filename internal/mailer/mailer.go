// Package mailer relays validated contact messages to the recipient
// mailbox over authenticated SMTP submission.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/textbridge/contact-backend/internal/config"
)

// timeLayout matches the audit record timestamp format
const timeLayout = "2006-01-02 15:04:05"

// subjectPrefix tags relayed mail so the mailbox can filter form traffic
const subjectPrefix = "[TextBridge Contact] "

// Message is a validated, sanitized submission ready for delivery.
// Immutable once built; the pipeline hands it to Send exactly once.
type Message struct {
	Name           string
	Email          string
	Subject        string
	Body           string
	AttachmentPath string
	ClientIP       string
	SubmittedAt    time.Time
}

// SMTPMailer delivers messages through an SMTP submission endpoint
type SMTPMailer struct {
	client *gomail.Client
	cfg    config.MailConfig
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer from the mail configuration. Credentials
// are optional; without them the client connects unauthenticated, which
// suits a local relay.
func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{client: client, cfg: cfg, logger: logger}, nil
}

// Send relays the message to the configured recipient with Reply-To set
// to the submitter's address. Blocking; the client library owns timeouts.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	mail := gomail.NewMsg()
	if err := mail.FromFormat(m.cfg.FromName, m.cfg.FromAddress); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := mail.To(m.cfg.Recipient); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	if err := mail.ReplyTo(msg.Email); err != nil {
		return fmt.Errorf("invalid reply-to address: %w", err)
	}

	mail.Subject(subjectPrefix + msg.Subject)
	mail.SetBodyString(gomail.TypeTextPlain, RenderBody(msg))

	if msg.AttachmentPath != "" {
		mail.AttachFile(msg.AttachmentPath)
	}

	if err := m.client.DialAndSendWithContext(ctx, mail); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}

	m.logger.Info("contact message delivered", "recipient", m.cfg.Recipient)
	return nil
}

// RenderBody lays out the plain-text mail body
func RenderBody(msg *Message) string {
	var b strings.Builder
	b.WriteString("New contact form submission from TextBridge website\n\n")
	b.WriteString("Name: " + msg.Name + "\n")
	b.WriteString("Email: " + msg.Email + "\n")
	b.WriteString("Subject: " + msg.Subject + "\n\n")
	b.WriteString("Message:\n" + msg.Body + "\n\n")

	if msg.AttachmentPath != "" {
		b.WriteString("Logo attachment: Yes (attached to this email)\n")
	}

	b.WriteString("---\n")
	b.WriteString("Submitted: " + msg.SubmittedAt.Format(timeLayout) + "\n")
	b.WriteString("IP Address: " + msg.ClientIP + "\n")
	return b.String()
}
