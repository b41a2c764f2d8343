package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/metrics"
	"github.com/xiaot623/gogo/datachat/internal/pipeline"
	"github.com/xiaot623/gogo/datachat/internal/repository"
)

// traceContext detaches trace writes from request cancellation so a
// cancelled query still ends up with a terminal run record.
func traceContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (s *Service) recordEvent(ctx context.Context, runID string, eventType domain.EventType, payload interface{}) {
	if err := createEvent(traceContext(ctx), s.store, runID, eventType, payload); err != nil {
		log.Printf("WARN: failed to record %s event: %v", eventType, err)
	}
}

func createEvent(ctx context.Context, store repository.Store, runID string, eventType domain.EventType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &domain.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		RunID:   runID,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: payloadBytes,
	}
	return store.CreateEvent(ctx, event)
}

// TraceObserver records pipeline steps as run events and stage metrics.
// Failed steps only feed metrics; the run_failed event is written once the
// run ends.
type TraceObserver struct {
	store   repository.Store
	metrics *metrics.Metrics
}

var _ pipeline.StageObserver = (*TraceObserver)(nil)

func NewTraceObserver(store repository.Store, m *metrics.Metrics) *TraceObserver {
	return &TraceObserver{store: store, metrics: m}
}

// ObserveStage implements pipeline.StageObserver.
func (o *TraceObserver) ObserveStage(ctx context.Context, ev pipeline.StageEvent) {
	stage := ev.Step
	if ev.Step == pipeline.StepGenerate && ev.Stage != "" {
		stage = string(ev.Stage)
	}
	o.metrics.ObserveStage(stage, ev.Duration)

	if ev.Err != nil || ev.RunID == "" {
		return
	}
	ctx = traceContext(ctx)

	var eventType domain.EventType
	payload := map[string]interface{}{"duration_ms": ev.Duration.Milliseconds()}
	switch ev.Step {
	case pipeline.StepClassify:
		eventType = domain.EventTypeClassified
		payload["label"] = ev.Label
		if err := o.store.UpdateRunLabel(ctx, ev.RunID, ev.Label); err != nil {
			log.Printf("WARN: failed to update run label: %v", err)
		}
	case pipeline.StepRoute:
		eventType = domain.EventTypeRouted
		payload["label"] = ev.Label
		payload["stage"] = ev.Stage
	case pipeline.StepGenerate:
		eventType = domain.EventTypeGenerated
		payload["stage"] = ev.Stage
		payload["response_type"] = ev.ResponseType
	default:
		return
	}

	if err := createEvent(ctx, o.store, ev.RunID, eventType, payload); err != nil {
		log.Printf("WARN: failed to record %s event: %v", eventType, err)
	}
}
