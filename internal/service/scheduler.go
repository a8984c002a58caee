package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stream-scheduler/internal/domain"
	"stream-scheduler/internal/logger"
)

// SchedulerConfig carries the deployment policy applied to every broadcast
type SchedulerConfig struct {
	ExpectedChannelID   string
	Location            *time.Location
	Anchor              time.Weekday
	CategoryID          string
	PrimaryLabelKeyword string
	DescriptionBlurb    string
}

// Scheduler implements domain.SchedulerService: the identity gate plus the
// create-update-bind transaction with a compensating delete.
type Scheduler struct {
	api       domain.BroadcastAPI
	conflicts domain.ConflictDetector
	cfg       SchedulerConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewScheduler creates a new Scheduler instance
func NewScheduler(api domain.BroadcastAPI, conflicts domain.ConflictDetector, cfg SchedulerConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		api:       api,
		conflicts: conflicts,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

// SetNow overrides the clock, used by tests
func (s *Scheduler) SetNow(now func() time.Time) {
	s.now = now
}

// VerifyChannel confirms the acting account matches the expected channel.
// A mismatch reports both identifiers and aborts the whole run: no request
// may be processed after a failed verification.
func (s *Scheduler) VerifyChannel(ctx context.Context) (*domain.Channel, error) {
	channel, err := s.api.ListMyChannel(ctx)
	if err != nil {
		return nil, err
	}

	if channel.ID != s.cfg.ExpectedChannelID {
		s.logger.Error("aborting: unauthorized channel", map[string]interface{}{
			"authenticated_channel": channel.Title,
			"authenticated_id":      channel.ID,
			"expected_id":           s.cfg.ExpectedChannelID,
		})
		return nil, fmt.Errorf("%w: authenticated channel %q (%s), expected %s",
			domain.ErrChannelMismatch, channel.Title, channel.ID, s.cfg.ExpectedChannelID)
	}

	s.logger.Info("verified channel", map[string]interface{}{
		"channel": channel.Title,
		"id":      channel.ID,
	})
	return channel, nil
}

// Plan builds the occurrence and broadcast plan for a request without
// touching upstream. Exposed so a dry run can show what would be created.
func (s *Scheduler) Plan(req domain.ScheduleRequest) (time.Time, *domain.BroadcastPlan) {
	start := NextOccurrence(s.now(), s.cfg.Anchor, req.Hour, req.Minute, s.cfg.Location)

	title := fmt.Sprintf("%s %s", FormatOccurrenceDate(start), req.Label)
	description := title
	if s.cfg.DescriptionBlurb != "" && strings.Contains(req.Label, s.cfg.PrimaryLabelKeyword) {
		description = s.cfg.DescriptionBlurb
	}

	return start, &domain.BroadcastPlan{
		Title:          title,
		Description:    description,
		ScheduledStart: start,
		PrivacyStatus:  "public",
		Settings:       domain.DefaultContentSettings(),
	}
}

// Schedule processes one request: validate, compute the occurrence, check
// for conflicts, then create, update, and bind. Any step failing fails the
// whole request once; there are no retries.
func (s *Scheduler) Schedule(ctx context.Context, req domain.ScheduleRequest) domain.TransactionResult {
	if req.StreamID == "" {
		return s.failure(req.Label, domain.ErrMissingStreamID)
	}

	start, plan := s.Plan(req)

	conflict, err := s.conflicts.HasConflict(ctx, req.StreamID, start)
	if err != nil {
		return s.failure(req.Label, err)
	}
	if conflict != nil {
		return s.failure(req.Label, fmt.Errorf(
			"conflicting scheduled livestream %q (%s) using the same stream ID", conflict.Title, conflict.ID))
	}

	broadcastID, err := s.api.InsertBroadcast(ctx, plan)
	if err != nil {
		return s.failure(req.Label, fmt.Errorf("failed to create broadcast: %w", err))
	}

	if err := s.api.UpdateVideoMetadata(ctx, broadcastID, plan.Title, plan.Description, s.cfg.CategoryID); err != nil {
		s.rollback(ctx, broadcastID)
		return s.failure(req.Label, fmt.Errorf("failed to update video metadata: %w", err))
	}

	bind, err := s.api.BindBroadcast(ctx, broadcastID, req.StreamID)
	if err != nil {
		s.rollback(ctx, broadcastID)
		return s.failure(req.Label, fmt.Errorf("failed to bind stream: %w", err))
	}
	if bind.BoundStreamID == "" {
		s.rollback(ctx, broadcastID)
		return s.failure(req.Label, fmt.Errorf("bind response missing bound stream confirmation for: %s", req.Label))
	}

	link := fmt.Sprintf("https://www.youtube.com/watch?v=%s", broadcastID)
	s.logger.Info("scheduled livestream", map[string]interface{}{
		"title":           plan.Title,
		"broadcast_id":    broadcastID,
		"scheduled_time":  start.Format("2006-01-02 15:04"),
		"bound_stream_id": bind.BoundStreamID,
		"link":            link,
	})

	return domain.TransactionResult{Title: plan.Title, Success: true, Link: link}
}

// ScheduleAll fans the requests out concurrently, filling one summary slot
// per request. Upstream steps inside a single request remain sequential;
// a failing request never aborts its siblings.
func (s *Scheduler) ScheduleAll(ctx context.Context, reqs []domain.ScheduleRequest) *domain.RunSummary {
	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Results:   make([]domain.TransactionResult, len(reqs)),
	}

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(slot int, req domain.ScheduleRequest) {
			defer wg.Done()
			summary.Results[slot] = s.Schedule(ctx, req)
		}(i, req)
	}
	wg.Wait()

	summary.FinishedAt = s.now()
	s.logger.Info("run completed", map[string]interface{}{
		"run_id":    summary.RunID,
		"successes": len(summary.Successes()),
		"failures":  len(summary.Failures()),
	})
	return summary
}

// rollback deletes a created broadcast after a failed bind so no broadcast
// is left existing without a bound stream. Best effort: a delete failure is
// logged, not escalated.
func (s *Scheduler) rollback(ctx context.Context, broadcastID string) {
	if err := s.api.DeleteBroadcast(ctx, broadcastID); err != nil {
		s.logger.Error("failed to delete orphaned broadcast", map[string]interface{}{
			"broadcast_id": broadcastID,
			"error":        err.Error(),
		})
		return
	}
	s.logger.Warn("deleted orphaned broadcast after failed bind", map[string]interface{}{
		"broadcast_id": broadcastID,
	})
}

// failure records and returns a per-request failure
func (s *Scheduler) failure(label string, err error) domain.TransactionResult {
	s.logger.Error("failed to schedule", map[string]interface{}{
		"title": label,
		"error": err.Error(),
	})
	return domain.TransactionResult{Title: label, Err: err.Error()}
}
