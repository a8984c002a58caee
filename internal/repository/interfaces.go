package repository

import (
	"context"

	"stream-scheduler/internal/domain"
)

// RunRepository persists run summaries for the local history view
type RunRepository interface {
	RecordRun(ctx context.Context, summary *domain.RunSummary) error
	ListRecent(ctx context.Context, limit int) ([]*domain.RunSummary, error)
}
