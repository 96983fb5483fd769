package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/partsdesk/partsdesk/config"
	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/metrics"
)

// PurchaseOrderSubject is the subject line of purchase-order mails
const PurchaseOrderSubject = "Purchase Order"

// Mailer errors
var (
	ErrNoRecipient = errors.New("no recipient given and no default receiver configured")
	ErrNoSender    = errors.New("sender email is not configured")
)

// SendMailFunc delivers one message. smtp.SendMail satisfies it.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer relays purchase-order mails over SMTP
type Mailer struct {
	cfg  config.MailConfig
	send SendMailFunc
}

// NewMailer creates a mailer that sends through the configured SMTP server
func NewMailer(cfg config.MailConfig) *Mailer {
	return NewMailerWithSender(cfg, smtp.SendMail)
}

// NewMailerWithSender creates a mailer that hands messages to send
func NewMailerWithSender(cfg config.MailConfig, send SendMailFunc) *Mailer {
	return &Mailer{cfg: cfg, send: send}
}

// SendPurchaseOrder mails the purchase order to to, or to the default
// receiver when to is empty, and returns the message id
func (m *Mailer) SendPurchaseOrder(ctx context.Context, to string) (messageID string, err error) {
	defer func() {
		metrics.PurchaseOrdersTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.cfg.Sender == "" {
		return "", ErrNoSender
	}
	recipient := strings.TrimSpace(to)
	if recipient == "" {
		recipient = m.cfg.DefaultReceiver
	}
	if recipient == "" {
		return "", ErrNoRecipient
	}
	if strings.ContainsAny(recipient, "\r\n") {
		return "", fmt.Errorf("invalid recipient %q", recipient)
	}

	messageID = fmt.Sprintf("<%s@%s>", uuid.NewString(), senderDomain(m.cfg.Sender))
	msg := strings.Join([]string{
		"From: " + m.cfg.Sender,
		"To: " + recipient,
		"Subject: " + PurchaseOrderSubject,
		"Message-ID: " + messageID,
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		m.cfg.Body,
	}, "\r\n")

	auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.Host)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.Sender, []string{recipient}, []byte(msg)); err != nil {
		logger.ErrorWithFields("Failed to send purchase order", map[string]interface{}{
			"to":    recipient,
			"error": err.Error(),
		})
		return "", fmt.Errorf("failed to send purchase order: %w", err)
	}

	logger.InfoWithFields("Purchase order sent", map[string]interface{}{
		"to":         recipient,
		"message_id": messageID,
	})
	return messageID, nil
}

func senderDomain(sender string) string {
	if i := strings.LastIndex(sender, "@"); i >= 0 && i < len(sender)-1 {
		return sender[i+1:]
	}
	return "localhost"
}
