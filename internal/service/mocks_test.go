package service

import (
	"context"
	"sync"
	"time"

	"stream-scheduler/internal/domain"
)

// mockBroadcastAPI is a mock implementation for testing. It records every
// call so tests can assert on call order and absence of upstream mutations.
type mockBroadcastAPI struct {
	mu    sync.Mutex
	calls []string

	listMyChannelFunc          func(ctx context.Context) (*domain.Channel, error)
	listUpcomingBroadcastsFunc func(ctx context.Context, channelID string, pageSize int) ([]*domain.ExistingBroadcast, error)
	insertBroadcastFunc        func(ctx context.Context, plan *domain.BroadcastPlan) (string, error)
	updateVideoMetadataFunc    func(ctx context.Context, id, title, description, categoryID string) error
	bindBroadcastFunc          func(ctx context.Context, id, streamID string) (*domain.BindResult, error)
	deleteBroadcastFunc        func(ctx context.Context, id string) error
}

func (m *mockBroadcastAPI) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockBroadcastAPI) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *mockBroadcastAPI) ListMyChannel(ctx context.Context) (*domain.Channel, error) {
	m.record("ListMyChannel")
	if m.listMyChannelFunc != nil {
		return m.listMyChannelFunc(ctx)
	}
	return &domain.Channel{ID: "channel-1", Title: "Test Channel"}, nil
}

func (m *mockBroadcastAPI) ListUpcomingBroadcasts(ctx context.Context, channelID string, pageSize int) ([]*domain.ExistingBroadcast, error) {
	m.record("ListUpcomingBroadcasts")
	if m.listUpcomingBroadcastsFunc != nil {
		return m.listUpcomingBroadcastsFunc(ctx, channelID, pageSize)
	}
	return nil, nil
}

func (m *mockBroadcastAPI) InsertBroadcast(ctx context.Context, plan *domain.BroadcastPlan) (string, error) {
	m.record("InsertBroadcast")
	if m.insertBroadcastFunc != nil {
		return m.insertBroadcastFunc(ctx, plan)
	}
	return "broadcast-1", nil
}

func (m *mockBroadcastAPI) UpdateVideoMetadata(ctx context.Context, id, title, description, categoryID string) error {
	m.record("UpdateVideoMetadata")
	if m.updateVideoMetadataFunc != nil {
		return m.updateVideoMetadataFunc(ctx, id, title, description, categoryID)
	}
	return nil
}

func (m *mockBroadcastAPI) BindBroadcast(ctx context.Context, id, streamID string) (*domain.BindResult, error) {
	m.record("BindBroadcast")
	if m.bindBroadcastFunc != nil {
		return m.bindBroadcastFunc(ctx, id, streamID)
	}
	return &domain.BindResult{BoundStreamID: streamID}, nil
}

func (m *mockBroadcastAPI) DeleteBroadcast(ctx context.Context, id string) error {
	m.record("DeleteBroadcast")
	if m.deleteBroadcastFunc != nil {
		return m.deleteBroadcastFunc(ctx, id)
	}
	return nil
}

// mockConflictDetector is a mock implementation for testing
type mockConflictDetector struct {
	hasConflictFunc func(ctx context.Context, streamID string, newStart time.Time) (*domain.ExistingBroadcast, error)
}

func (m *mockConflictDetector) HasConflict(ctx context.Context, streamID string, newStart time.Time) (*domain.ExistingBroadcast, error) {
	if m.hasConflictFunc != nil {
		return m.hasConflictFunc(ctx, streamID, newStart)
	}
	return nil, nil
}
