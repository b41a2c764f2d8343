package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

func (s *Service) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, domain.NewError(domain.KindNotFound, fmt.Sprintf("run %s not found", runID), nil)
	}
	return run, nil
}

func (s *Service) GetRunEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	events, err := s.store.GetEvents(ctx, runID, afterTs, types, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get run events: %w", err)
	}
	return events, nil
}

func (s *Service) ListSessionRuns(ctx context.Context, sessionID string, limit int) ([]domain.Run, error) {
	runs, err := s.store.ListRuns(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
