package pipeline

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// Stage names reported to observers.
const (
	StepClassify = "classify"
	StepRoute    = "route"
	StepGenerate = "generate"
)

// StageEvent describes the outcome of one pipeline step.
type StageEvent struct {
	RunID        string
	SessionID    string
	Step         string
	Label        domain.Label
	Stage        domain.Stage
	ResponseType domain.ResponseType
	Duration     time.Duration
	Err          error
}

// StageObserver is notified after each pipeline step.
type StageObserver interface {
	ObserveStage(ctx context.Context, ev StageEvent)
}

// StageObserverFunc adapts a function to StageObserver.
type StageObserverFunc func(ctx context.Context, ev StageEvent)

func (f StageObserverFunc) ObserveStage(ctx context.Context, ev StageEvent) { f(ctx, ev) }

type nopObserver struct{}

func (nopObserver) ObserveStage(context.Context, StageEvent) {}
