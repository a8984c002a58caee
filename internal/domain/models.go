package domain

import "time"

// ScheduleRequest describes one weekly service to schedule.
// Requests are built once from configuration and never mutated during a run.
type ScheduleRequest struct {
	Label    string // service name, becomes part of the broadcast title
	Hour     int    // 0-23, civil time in the configured zone
	Minute   int    // 0-59
	StreamID string // persistent ingestion stream the broadcast binds to
}

// Channel represents the authenticated account's YouTube channel
type Channel struct {
	ID    string
	Title string
}

// ExistingBroadcast is a read-only snapshot of an upcoming broadcast
// fetched from YouTube. Snapshots are taken per run and never cached.
type ExistingBroadcast struct {
	ID             string
	Title          string
	BoundStreamID  string     // empty when upstream reports no bound stream
	ScheduledStart *time.Time // nil when upstream reports no start time
}

// ContentSettings holds the fixed content-configuration profile applied
// to every broadcast this tool creates.
type ContentSettings struct {
	EnableMonitorStream     bool
	EnableAutoStart         bool
	EnableAutoStop          bool
	EnableDVR               bool
	RecordFromStart         bool
	StartWithSlate          bool
	EnableClosedCaptions    bool
	EnableContentEncryption bool
	EnableEmbed             bool
	EnableLowLatency        bool
	LiveChatEnabled         bool
}

// DefaultContentSettings returns the deployment-policy profile:
// DVR and recording from the start, embedding allowed, everything else off.
func DefaultContentSettings() ContentSettings {
	return ContentSettings{
		EnableDVR:       true,
		RecordFromStart: true,
		EnableEmbed:     true,
	}
}

// BroadcastPlan is everything needed to create one broadcast resource
type BroadcastPlan struct {
	Title          string
	Description    string
	ScheduledStart time.Time
	PrivacyStatus  string
	Settings       ContentSettings
}

// BindResult is the confirmation returned by a bind call
type BindResult struct {
	BoundStreamID string
}

// TransactionResult is the outcome of scheduling a single request.
// Exactly one of Link (success) or Err (failure) is set.
type TransactionResult struct {
	Title   string
	Success bool
	Link    string
	Err     string
}

// RunSummary aggregates one TransactionResult per requested stream
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TransactionResult
}

// Successes returns the successful results in request order
func (s *RunSummary) Successes() []TransactionResult {
	var out []TransactionResult
	for _, r := range s.Results {
		if r.Success {
			out = append(out, r)
		}
	}
	return out
}

// Failures returns the failed results in request order
func (s *RunSummary) Failures() []TransactionResult {
	var out []TransactionResult
	for _, r := range s.Results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
