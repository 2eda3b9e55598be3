// Package notify delivers administrator notifications about flagged users.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/foxzi/fittrack/internal/email"
	"github.com/foxzi/fittrack/internal/metrics"
	"github.com/foxzi/fittrack/internal/models"
)

// MessageSigner signs a complete RFC 5322 message
type MessageSigner interface {
	Sign(message []byte) ([]byte, error)
}

// EmailConfig contains relay settings
type EmailConfig struct {
	Addr     string // host:port
	Username string // empty disables AUTH
	Password string
	From     string
	To       []string
	Timeout  time.Duration
	Signer   MessageSigner // optional DKIM signer
}

// EmailNotifier sends a message to the administrators through an SMTP relay
type EmailNotifier struct {
	cfg    EmailConfig
	logger *slog.Logger

	// sendMail is replaced in tests
	sendMail func(addr string, a sasl.Client, from string, to []string, data []byte) error
}

// NewEmailNotifier creates a new e-mail notifier
func NewEmailNotifier(cfg EmailConfig, logger *slog.Logger) *EmailNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger.With("component", "notify"),
		sendMail: func(addr string, a sasl.Client, from string, to []string, data []byte) error {
			return smtp.SendMail(addr, a, from, to, bytes.NewReader(data))
		},
	}
}

// UserFlagged implements monitor.Notifier
func (n *EmailNotifier) UserFlagged(ctx context.Context, m *models.MonitoredUser) error {
	data := n.buildMessage(m)
	if n.cfg.Signer != nil {
		signed, err := n.cfg.Signer.Sign(data)
		if err != nil {
			metrics.IncNotifications("failed")
			return fmt.Errorf("failed to sign notification: %w", err)
		}
		data = signed
	}

	var auth sasl.Client
	if n.cfg.Username != "" {
		auth = sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.sendMail(n.cfg.Addr, auth, n.cfg.From, n.cfg.To, data)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			metrics.IncNotifications("failed")
			return fmt.Errorf("failed to send notification: %w", err)
		}
	case <-ctx.Done():
		metrics.IncNotifications("failed")
		return fmt.Errorf("failed to send notification: %w", ctx.Err())
	}

	metrics.IncNotifications("sent")
	n.logger.Info("admin notified", "user_id", m.UserID, "recipients", len(n.cfg.To))
	return nil
}

func (n *EmailNotifier) buildMessage(m *models.MonitoredUser) []byte {
	domain := email.DomainOr(n.cfg.From, "localhost")

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: [FitTrack] User flagged: %s\r\n", sanitizeHeader(m.Username))
	fmt.Fprintf(&b, "Date: %s\r\n", m.DetectedAt.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.New().String(), domain)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "User %s (%s) was added to the monitored list.\r\n\r\n", m.Username, m.UserID)
	fmt.Fprintf(&b, "Reason: %s\r\n", m.Reason)
	fmt.Fprintf(&b, "Detected at: %s\r\n", m.DetectedAt.UTC().Format(time.RFC3339))
	return []byte(b.String())
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
