package service

import (
	"context"
	"log"
	"time"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/repository"
)

const staleRunMessage = "run abandoned before completion"

// RunStaleRunMonitor periodically fails runs left CREATED or RUNNING for
// longer than the configured window, e.g. after a crash mid-query.
func (s *Service) RunStaleRunMonitor(ctx context.Context, interval time.Duration) {
	if s.config.RunStaleAfter <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweepStaleRuns(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepStaleRuns(ctx)
		}
	}
}

func (s *Service) sweepStaleRuns(ctx context.Context) int {
	sweepCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	stale, err := s.store.ListStaleRuns(sweepCtx, time.Now().Add(-s.config.RunStaleAfter), 100)
	if err != nil {
		log.Printf("WARN: stale run sweep failed: %v", err)
		return 0
	}

	failed := 0
	for _, run := range stale {
		updated, err := s.store.FailRunIfActive(sweepCtx, run.RunID, repository.RunResult{
			ErrorKind:    domain.KindInternal,
			ErrorMessage: staleRunMessage,
		})
		if err != nil {
			log.Printf("WARN: failed to mark run %s abandoned: %v", run.RunID, err)
			continue
		}
		if !updated {
			continue
		}
		failed++

		s.metrics.ObserveRun(string(run.RoutingLabel), domain.NewError(domain.KindInternal, staleRunMessage, nil))
		s.recordEvent(sweepCtx, run.RunID, domain.EventTypeRunFailed, map[string]interface{}{
			"code":  domain.KindInternal,
			"error": staleRunMessage,
		})
	}
	return failed
}
