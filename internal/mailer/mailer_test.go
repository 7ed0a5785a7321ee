package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textbridge/contact-backend/internal/config"
)

func testMessage() *Message {
	return &Message{
		Name:        "Anna Meyer",
		Email:       "anna@example.com",
		Subject:     "Quote request",
		Body:        "Please send me a quote for ten licenses.",
		ClientIP:    "192.0.2.7",
		SubmittedAt: time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestRenderBody(t *testing.T) {
	body := RenderBody(testMessage())

	assert.True(t, strings.HasPrefix(body, "New contact form submission from TextBridge website\n\n"))
	assert.Contains(t, body, "Name: Anna Meyer\n")
	assert.Contains(t, body, "Email: anna@example.com\n")
	assert.Contains(t, body, "Subject: Quote request\n")
	assert.Contains(t, body, "Message:\nPlease send me a quote for ten licenses.\n")
	assert.Contains(t, body, "Submitted: 2025-03-14 09:26:53\n")
	assert.True(t, strings.HasSuffix(body, "IP Address: 192.0.2.7\n"))

	// No attachment, no attachment line
	assert.NotContains(t, body, "Logo attachment")
}

func TestRenderBodyMentionsAttachment(t *testing.T) {
	msg := testMessage()
	msg.AttachmentPath = "/srv/uploads/logo_x.png"

	body := RenderBody(msg)
	assert.Contains(t, body, "Logo attachment: Yes (attached to this email)\n")

	// The storage path itself must not leak into the mail
	assert.NotContains(t, body, msg.AttachmentPath)
}

func TestNewSMTPMailerWithoutCredentials(t *testing.T) {
	m, err := NewSMTPMailer(config.MailConfig{
		SMTPHost:    "mail.example.com",
		SMTPPort:    587,
		FromName:    "TextBridge Website",
		FromAddress: "noreply@example.com",
		Recipient:   "team@example.com",
	}, nil)

	require.NoError(t, err)
	assert.NotNil(t, m.client)
}
