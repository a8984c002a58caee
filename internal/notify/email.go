// Package notify delivers run summaries out of band. The only implementation
// is an SMTP email notifier; the scheduler itself never depends on it beyond
// the domain.Notifier interface.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"stream-scheduler/internal/domain"
	"stream-scheduler/internal/logger"
	"stream-scheduler/internal/service"
)

// EmailConfig holds SMTP relay settings and addressing
type EmailConfig struct {
	Host       string
	Port       int
	Sender     string
	Password   string
	Recipients []string
}

// EmailNotifier implements domain.Notifier over an SMTP relay
type EmailNotifier struct {
	cfg      EmailConfig
	location *time.Location
	anchor   time.Weekday
	logger   *logger.Logger
	now      func() time.Time
}

// NewEmailNotifier creates a new EmailNotifier instance
func NewEmailNotifier(cfg EmailConfig, location *time.Location, anchor time.Weekday, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:      cfg,
		location: location,
		anchor:   anchor,
		logger:   log,
		now:      time.Now,
	}
}

// SetNow overrides the clock, used by tests
func (n *EmailNotifier) SetNow(now func() time.Time) {
	n.now = now
}

// Notify sends the run summary email. The caller decides whether a send
// failure matters; after a completed run it is logged and swallowed.
func (n *EmailNotifier) Notify(ctx context.Context, summary *domain.RunSummary, logTail []string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.Sender); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(n.cfg.Recipients...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(n.Subject())
	msg.SetBodyString(mail.TypeTextPlain, BuildBody(summary, logTail))

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Sender),
		mail.WithPassword(n.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}

	n.logger.Info("summary email sent", map[string]interface{}{
		"recipients": strings.Join(n.cfg.Recipients, ", "),
	})
	return nil
}

// Subject names the upcoming anchor day the run scheduled for
func (n *EmailNotifier) Subject() string {
	next := service.NextOccurrence(n.now(), n.anchor, 0, 0, n.location)
	return fmt.Sprintf("YouTube Livestream Scheduling Summary For This Sunday (%s)",
		service.FormatOccurrenceDate(next))
}

// BuildBody renders the plain-text summary: successes with viewer links,
// failures with their error messages, and the captured log tail
func BuildBody(summary *domain.RunSummary, logTail []string) string {
	var b strings.Builder
	b.WriteString("Here are the results for the scheduled YouTube livestreams for this Sunday:\n\n")

	successes := summary.Successes()
	if len(successes) > 0 {
		b.WriteString("Successes:\n")
		for i, s := range successes {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- %s\n  %s\n", s.Title, s.Link)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Successes: None\n\n")
	}

	failures := summary.Failures()
	if len(failures) > 0 {
		b.WriteString("Failures:\n")
		for i, f := range failures {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- %s\n  Error: %s\n", f.Title, f.Err)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Failures: None\n\n")
	}

	if len(logTail) > 0 {
		b.WriteString("Error Logs:\n")
		for _, line := range logTail {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	return b.String()
}
