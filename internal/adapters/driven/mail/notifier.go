package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.Notifier = (*SMTPNotifier)(nil)
	_ driven.Notifier = (*NopNotifier)(nil)
)

// Config holds SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier delivers notifications as plain-text email over SMTP
type SMTPNotifier struct {
	config Config
	logger *slog.Logger
}

// NewSMTPNotifier creates a new SMTP-backed Notifier
func NewSMTPNotifier(config Config, logger *slog.Logger) *SMTPNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPNotifier{config: config, logger: logger}
}

// NotifyPRDCreated sends the "document created" email
func (n *SMTPNotifier) NotifyPRDCreated(ctx context.Context, msg driven.PRDCreatedNotification) error {
	subject := fmt.Sprintf("New PRD in %s: %s", msg.ProjectName, msg.PRDTitle)
	body := fmt.Sprintf(
		"Hi %s,\n\nA new PRD %q was created in project %s.\n\nPRD ID: %s\n",
		msg.RecipientName, msg.PRDTitle, msg.ProjectName, msg.PRDID,
	)
	return n.send(ctx, msg.RecipientEmail, subject, body)
}

// NotifyPRDDecided sends the approval/rejection email
func (n *SMTPNotifier) NotifyPRDDecided(ctx context.Context, msg driven.PRDDecidedNotification) error {
	subject := fmt.Sprintf("PRD %s: %s", msg.Status, msg.PRDTitle)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour PRD %q in project %s was %s by %s.\n\nPRD ID: %s\n",
		msg.RecipientName, msg.PRDTitle, msg.ProjectName, msg.Status, msg.DecidedBy, msg.PRDID,
	)
	return n.send(ctx, msg.RecipientEmail, subject, body)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMsg()
	if err := m.From(n.config.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(n.config.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if n.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(n.config.Username),
			gomail.WithPassword(n.config.Password),
		)
	}

	client, err := gomail.NewClient(n.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	n.logger.Debug("notification email sent", "to", to, "subject", subject)
	return nil
}

// NopNotifier discards notifications. Used when SMTP is not configured,
// so the worker can still ack notification jobs.
type NopNotifier struct {
	logger *slog.Logger
}

// NewNopNotifier creates a Notifier that logs and drops every message
func NewNopNotifier(logger *slog.Logger) *NopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NopNotifier{logger: logger}
}

func (n *NopNotifier) NotifyPRDCreated(ctx context.Context, msg driven.PRDCreatedNotification) error {
	n.logger.Info("notification dropped (no smtp configured)",
		"event", "prd_created", "prd_id", msg.PRDID, "recipient", msg.RecipientEmail)
	return nil
}

func (n *NopNotifier) NotifyPRDDecided(ctx context.Context, msg driven.PRDDecidedNotification) error {
	n.logger.Info("notification dropped (no smtp configured)",
		"event", "prd_decided", "prd_id", msg.PRDID, "recipient", msg.RecipientEmail, "status", msg.Status)
	return nil
}
