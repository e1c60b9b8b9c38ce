package mailer

import (
	"context"
	"encoding/base64"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/uok-ict/portal-api/pkg/config"
)

// Attachment is an optional file shipped with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single outbound notification.
type Message struct {
	ToName      string
	ToAddress   string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer delivers messages on a best-effort basis. Send reports whether the
// message was handed off; callers must never treat a false return as an
// error worth rolling back for.
type Mailer interface {
	Send(ctx context.Context, msg Message) bool
}

// New picks the delivery backend from config. Without a Sendgrid key the
// console backend is used, which only logs the message.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Enabled && cfg.SendgridKey != "" {
		return &sendgridMailer{cfg: cfg, logger: logger}
	}
	return &consoleMailer{logger: logger}
}

type sendgridMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

func (m *sendgridMailer) Send(ctx context.Context, msg Message) bool {
	if msg.ToAddress == "" {
		return false
	}

	from := sgmail.NewEmail(m.cfg.FromName, m.cfg.FromAddress)
	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	for _, att := range msg.Attachments {
		attachment := sgmail.NewAttachment()
		attachment.SetFilename(att.Filename)
		attachment.SetType(att.ContentType)
		attachment.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	client := sendgrid.NewSendClient(m.cfg.SendgridKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		m.logger.Warn("mail delivery failed", zap.String("to", msg.ToAddress), zap.Error(err))
		return false
	}
	if resp.StatusCode >= 400 {
		m.logger.Warn("mail delivery rejected", zap.String("to", msg.ToAddress), zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

type consoleMailer struct {
	logger *zap.Logger
}

func (m *consoleMailer) Send(ctx context.Context, msg Message) bool {
	if msg.ToAddress == "" {
		return false
	}
	m.logger.Sugar().Infow("mail (console backend)",
		"to", msg.ToAddress,
		"subject", msg.Subject,
		"body", msg.Body,
		"attachments", len(msg.Attachments),
	)
	return true
}
