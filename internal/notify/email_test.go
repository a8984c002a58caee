package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"stream-scheduler/internal/domain"
	"stream-scheduler/internal/logger"
)

func TestEmailNotifier_Subject(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{}, time.UTC, time.Sunday, logger.Nop())
	// Wednesday 2024-01-10: the upcoming Sunday is 1/14/24
	n.SetNow(func() time.Time {
		return time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	})

	want := "YouTube Livestream Scheduling Summary For This Sunday (1/14/24)"
	if got := n.Subject(); got != want {
		t.Errorf("expected subject %q, got %q", want, got)
	}
}

func TestEmailNotifier_SubjectOnAnchorDay(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{}, time.UTC, time.Sunday, logger.Nop())
	// A run starting on Sunday reports the following Sunday
	n.SetNow(func() time.Time {
		return time.Date(2024, 1, 14, 7, 0, 0, 0, time.UTC)
	})

	if got := n.Subject(); !strings.Contains(got, "(1/21/24)") {
		t.Errorf("expected the following Sunday in the subject, got %q", got)
	}
}

func TestBuildBody_MixedResults(t *testing.T) {
	summary := &domain.RunSummary{
		Results: []domain.TransactionResult{
			{Title: "1/14/24 English Sunday Worship", Success: true, Link: "https://www.youtube.com/watch?v=abc"},
			{Title: "Mandarin Sunday Worship 國語主日崇拜", Err: "failed to bind stream: youtube api returned status 403: forbidden"},
			{Title: "1/14/24 Cantonese Sunday Worship 粵語主日崇拜", Success: true, Link: "https://www.youtube.com/watch?v=def"},
		},
	}
	logTail := []string{
		"ERROR: failed to schedule error=forbidden title=Mandarin Sunday Worship 國語主日崇拜",
	}

	body := BuildBody(summary, logTail)

	if !strings.HasPrefix(body, "Here are the results for the scheduled YouTube livestreams for this Sunday:") {
		t.Errorf("unexpected opening:\n%s", body)
	}
	if !strings.Contains(body, "Successes:\n- 1/14/24 English Sunday Worship\n  https://www.youtube.com/watch?v=abc") {
		t.Errorf("expected the success with its link:\n%s", body)
	}
	if !strings.Contains(body, "Failures:\n- Mandarin Sunday Worship 國語主日崇拜\n  Error: failed to bind stream") {
		t.Errorf("expected the failure with its error:\n%s", body)
	}
	if !strings.Contains(body, "Error Logs:\n- ERROR: failed to schedule") {
		t.Errorf("expected the log tail:\n%s", body)
	}
}

func TestBuildBody_AllSucceeded(t *testing.T) {
	summary := &domain.RunSummary{
		Results: []domain.TransactionResult{
			{Title: "1/14/24 English Sunday Worship", Success: true, Link: "https://www.youtube.com/watch?v=abc"},
		},
	}

	body := BuildBody(summary, nil)

	if !strings.Contains(body, "Failures: None") {
		t.Errorf("expected explicit empty failures section:\n%s", body)
	}
	if strings.Contains(body, "Error Logs:") {
		t.Errorf("expected no log section without captured lines:\n%s", body)
	}
}

func TestBuildBody_AllFailed(t *testing.T) {
	summary := &domain.RunSummary{
		Results: []domain.TransactionResult{
			{Title: "Top-level error", Err: "aborting: unauthorized channel"},
		},
	}

	body := BuildBody(summary, nil)

	if !strings.Contains(body, "Successes: None") {
		t.Errorf("expected explicit empty successes section:\n%s", body)
	}
	if !strings.Contains(body, "Error: aborting: unauthorized channel") {
		t.Errorf("expected the failure reason:\n%s", body)
	}
}

func TestEmailNotifier_InvalidSender(t *testing.T) {
	var n domain.Notifier = NewEmailNotifier(EmailConfig{
		Host:       "localhost",
		Port:       2525,
		Sender:     "not an address",
		Recipients: []string{"a@example.org"},
	}, time.UTC, time.Sunday, logger.Nop())

	err := n.Notify(context.Background(), &domain.RunSummary{}, nil)
	if err == nil || !strings.Contains(err.Error(), "invalid sender address") {
		t.Fatalf("expected invalid sender error, got %v", err)
	}
}
