package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/datachat/internal/dataset"
	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/repository"
)

// Query answers a natural-language question about a dataset.
//
// A registered session_id keeps its dataset. Otherwise the request's
// dataset_source (or the configured default) is loaded and the session is
// registered once the load succeeds. Every invocation starts from a fresh
// conversation state holding only the dataset profile and this question.
func (s *Service) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "query is required", nil)
	}

	sessionID := strings.TrimSpace(req.SessionID)
	var source string
	registered := false
	if sessionID != "" {
		source, registered = s.registry.Source(sessionID)
	}
	if !registered {
		source = strings.TrimSpace(req.DatasetSource)
		if source == "" {
			source = s.config.DefaultDatasetSource
		}
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
	}
	if source == "" {
		return nil, domain.NewError(domain.KindInvalidSource, "dataset_source is required", nil)
	}

	runID := "run_" + uuid.New().String()[:8]
	s.startRun(ctx, runID, sessionID, source)

	profile, err := s.loadProfile(ctx, source)
	if err != nil {
		s.finishRun(ctx, runID, "", nil, err)
		return nil, err
	}
	s.recordEvent(ctx, runID, domain.EventTypeDatasetLoaded, map[string]interface{}{
		"origin":  dataset.Origin(source),
		"columns": len(profile.Columns),
	})

	if !registered {
		if _, err := s.registry.Create(source, sessionID); err != nil {
			err = domain.NewError(domain.KindInternal, "failed to register session", err)
			s.finishRun(ctx, runID, "", nil, err)
			return nil, err
		}
		s.metrics.SetSessions(s.registry.Len())
	}

	state := domain.NewConversationState(sessionID, source, profile)
	state.RunID = runID
	if err := s.store.UpdateRunStatus(traceContext(ctx), runID, domain.RunStatusRunning); err != nil {
		log.Printf("WARN: failed to update run status: %v", err)
	}

	msg, err := s.pipeline.Run(ctx, state, req.Query)
	if err != nil {
		s.finishRun(ctx, runID, state.RoutingLabel, nil, err)
		return nil, err
	}

	payload, err := encodeResponse(msg)
	if err != nil {
		s.finishRun(ctx, runID, state.RoutingLabel, nil, err)
		return nil, err
	}
	s.finishRun(ctx, runID, state.RoutingLabel, &msg, nil)

	return &domain.QueryResponse{
		Response:  payload,
		Type:      msg.ResponseType,
		SessionID: sessionID,
		RunID:     runID,
	}, nil
}

// encodeResponse renders TEXT content as a JSON string and passes structured
// payloads through as JSON objects.
func encodeResponse(msg domain.Message) (json.RawMessage, error) {
	if msg.ResponseType == domain.ResponseTypeText {
		b, err := json.Marshal(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to encode response: %w", err)
		}
		return b, nil
	}
	if !json.Valid([]byte(msg.Content)) {
		return nil, domain.NewError(domain.KindGenerationFailed,
			fmt.Sprintf("%s response is not valid JSON", msg.ResponseType), nil)
	}
	return json.RawMessage(msg.Content), nil
}

func (s *Service) startRun(ctx context.Context, runID, sessionID, source string) {
	ctx = traceContext(ctx)
	run := &domain.Run{
		RunID:     runID,
		SessionID: sessionID,
		Status:    domain.RunStatusCreated,
		StartedAt: time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		log.Printf("WARN: failed to create run %s: %v", runID, err)
		return
	}
	s.recordEvent(ctx, runID, domain.EventTypeRunStarted, map[string]interface{}{
		"session_id": sessionID,
		"origin":     dataset.Origin(source),
	})
}

func (s *Service) finishRun(ctx context.Context, runID string, label domain.Label, msg *domain.Message, runErr error) {
	ctx = traceContext(ctx)
	s.metrics.ObserveRun(string(label), runErr)

	if runErr != nil {
		kind := domain.KindOf(runErr)
		if err := s.store.UpdateRunCompleted(ctx, runID, repository.RunResult{
			Status:       domain.RunStatusFailed,
			ErrorKind:    kind,
			ErrorMessage: runErr.Error(),
		}); err != nil {
			log.Printf("WARN: failed to complete run %s: %v", runID, err)
		}
		s.recordEvent(ctx, runID, domain.EventTypeRunFailed, map[string]interface{}{
			"code":  kind,
			"error": runErr.Error(),
		})
		return
	}

	if err := s.store.UpdateRunCompleted(ctx, runID, repository.RunResult{
		Status:       domain.RunStatusDone,
		ResponseType: msg.ResponseType,
	}); err != nil {
		log.Printf("WARN: failed to complete run %s: %v", runID, err)
	}
	s.recordEvent(ctx, runID, domain.EventTypeRunDone, map[string]interface{}{
		"label":         label,
		"response_type": msg.ResponseType,
	})
}
