package domain

import (
	"context"
	"time"
)

// BroadcastAPI abstracts the YouTube Live API calls used by the scheduler.
// Each call performs exactly one upstream request and never retries.
type BroadcastAPI interface {
	// ListMyChannel fetches the authenticated account's own channel record
	ListMyChannel(ctx context.Context) (*Channel, error)

	// ListUpcomingBroadcasts lists broadcasts in "upcoming" status on the
	// given channel, up to pageSize records
	ListUpcomingBroadcasts(ctx context.Context, channelID string, pageSize int) ([]*ExistingBroadcast, error)

	// InsertBroadcast creates a new broadcast resource and returns its ID
	InsertBroadcast(ctx context.Context, plan *BroadcastPlan) (string, error)

	// UpdateVideoMetadata updates the public metadata of a created broadcast
	UpdateVideoMetadata(ctx context.Context, id, title, description, categoryID string) error

	// BindBroadcast binds a broadcast to a persistent ingestion stream
	BindBroadcast(ctx context.Context, id, streamID string) (*BindResult, error)

	// DeleteBroadcast removes a broadcast resource
	DeleteBroadcast(ctx context.Context, id string) error
}

// ConflictDetector tests a candidate occurrence against already-scheduled
// broadcasts bound to the same ingestion stream.
type ConflictDetector interface {
	// HasConflict returns the first conflicting broadcast, or nil when the
	// candidate window is clear. A query failure is returned as an error,
	// never as "no conflict".
	HasConflict(ctx context.Context, streamID string, newStart time.Time) (*ExistingBroadcast, error)
}

// SchedulerService runs the identity gate and the scheduling transaction
type SchedulerService interface {
	// VerifyChannel confirms the acting account matches the expected channel.
	// It must succeed before any ScheduleRequest is processed.
	VerifyChannel(ctx context.Context) (*Channel, error)

	// Plan builds the occurrence and broadcast plan for a request without
	// touching upstream
	Plan(req ScheduleRequest) (time.Time, *BroadcastPlan)

	// Schedule processes a single request end to end
	Schedule(ctx context.Context, req ScheduleRequest) TransactionResult

	// ScheduleAll processes all requests and aggregates one result each
	ScheduleAll(ctx context.Context, reqs []ScheduleRequest) *RunSummary
}

// Notifier delivers a run summary through an out-of-band channel
type Notifier interface {
	Notify(ctx context.Context, summary *RunSummary, logTail []string) error
}
