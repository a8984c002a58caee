package service

import (
	"context"
	"fmt"
	"time"

	"stream-scheduler/internal/domain"
	"stream-scheduler/internal/logger"
)

// ConflictDetector finds upcoming broadcasts whose conflict window overlaps
// a candidate occurrence on the same ingestion stream
type ConflictDetector struct {
	api       domain.BroadcastAPI
	channelID string
	window    time.Duration
	pageSize  int
	logger    *logger.Logger
}

// NewConflictDetector creates a new ConflictDetector instance
func NewConflictDetector(api domain.BroadcastAPI, channelID string, windowMinutes, pageSize int, log *logger.Logger) *ConflictDetector {
	return &ConflictDetector{
		api:       api,
		channelID: channelID,
		window:    time.Duration(windowMinutes) * time.Minute,
		pageSize:  pageSize,
		logger:    log,
	}
}

// HasConflict lists the channel's upcoming broadcasts and returns the first
// one bound to streamID whose window overlaps the candidate's. Broadcasts on
// other streams never conflict, and records missing a bound stream or start
// time cannot be compared and are skipped. A list failure propagates: an
// uncertain answer is never reported as "no conflict".
func (d *ConflictDetector) HasConflict(ctx context.Context, streamID string, newStart time.Time) (*domain.ExistingBroadcast, error) {
	broadcasts, err := d.api.ListUpcomingBroadcasts(ctx, d.channelID, d.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming broadcasts: %w", err)
	}

	for _, b := range broadcasts {
		if b.BoundStreamID == "" || b.ScheduledStart == nil {
			continue
		}
		if b.BoundStreamID != streamID {
			continue
		}

		if WindowsOverlap(*b.ScheduledStart, newStart, d.window) {
			d.logger.Error("conflict with existing livestream", map[string]interface{}{
				"title":           b.Title,
				"broadcast_id":    b.ID,
				"scheduled_time":  b.ScheduledStart.Format("2006-01-02 15:04"),
				"bound_stream_id": b.BoundStreamID,
			})
			return b, nil
		}
	}

	return nil, nil
}

// WindowsOverlap reports whether two half-open windows of the given duration,
// starting at a and b, overlap: a < b+window && b < a+window
func WindowsOverlap(a, b time.Time, window time.Duration) bool {
	return a.Before(b.Add(window)) && b.Before(a.Add(window))
}
