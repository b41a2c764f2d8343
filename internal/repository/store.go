package repository

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// Store defines the interface for run trace persistence.
type Store interface {
	// Run operations
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error
	UpdateRunLabel(ctx context.Context, runID string, label domain.Label) error
	UpdateRunCompleted(ctx context.Context, runID string, result RunResult) error
	ListRuns(ctx context.Context, sessionID string, limit int) ([]domain.Run, error)
	ListStaleRuns(ctx context.Context, startedBefore time.Time, limit int) ([]domain.Run, error)
	FailRunIfActive(ctx context.Context, runID string, result RunResult) (bool, error)

	// Event operations
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error)

	Close() error
}

// RunResult is the terminal outcome written when a run finishes.
type RunResult struct {
	Status       domain.RunStatus
	ResponseType domain.ResponseType
	ErrorKind    domain.ErrorKind
	ErrorMessage string
}
