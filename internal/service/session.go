package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/xiaot623/gogo/datachat/internal/dataset"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// CreateSession registers a dataset source under a new or caller supplied
// session id. The dataset itself is loaded lazily by the first query.
func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.CreateSessionResponse, error) {
	source := strings.TrimSpace(req.DatasetSource)
	if source == "" {
		return nil, domain.NewError(domain.KindInvalidSource, "dataset_source is required", nil)
	}
	if err := s.checkSource(ctx, source); err != nil {
		return nil, err
	}

	sessionID, err := s.registry.Create(source, strings.TrimSpace(req.SessionID))
	if err != nil {
		return nil, domain.NewError(domain.KindInvalidRequest, "failed to create session", err)
	}
	s.metrics.SetSessions(s.registry.Len())
	return &domain.CreateSessionResponse{SessionID: sessionID}, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	rec, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, sessionNotFound(sessionID)
	}
	return &rec, nil
}

func (s *Service) DeleteSession(ctx context.Context, sessionID string) (*domain.DeleteSessionResponse, error) {
	if !s.registry.Delete(sessionID) {
		return nil, sessionNotFound(sessionID)
	}
	s.metrics.SetSessions(s.registry.Len())
	return &domain.DeleteSessionResponse{Deleted: true}, nil
}

// ListSessions returns up to limit sessions in creation order. A
// non-positive limit uses the configured default.
func (s *Service) ListSessions(ctx context.Context, limit int) *domain.ListSessionsResponse {
	if limit <= 0 {
		limit = s.config.SessionListLimit
	}
	records := s.registry.List(limit)
	items := make([]domain.SessionListItem, 0, len(records))
	for _, r := range records {
		items = append(items, domain.SessionListItem{SessionID: r.SessionID, DatasetSource: r.DatasetSource})
	}
	return &domain.ListSessionsResponse{Sessions: items}
}

// SessionProfile loads the profile of the session's dataset.
func (s *Service) SessionProfile(ctx context.Context, sessionID string) (*domain.DatasetProfile, error) {
	source, ok := s.registry.Source(sessionID)
	if !ok {
		return nil, sessionNotFound(sessionID)
	}
	return s.loadProfile(ctx, source)
}

func (s *Service) checkSource(ctx context.Context, source string) error {
	if s.policy == nil {
		return nil
	}
	if err := s.policy.CheckSource(ctx, source); err != nil {
		if _, ok := domain.AsError(err); ok {
			return err
		}
		return fmt.Errorf("failed to evaluate source policy: %w", err)
	}
	return nil
}

// loadProfile applies the source policy and loads the dataset profile.
func (s *Service) loadProfile(ctx context.Context, source string) (*domain.DatasetProfile, error) {
	if err := s.checkSource(ctx, source); err != nil {
		log.Printf("WARN: dataset source %s rejected: %v", source, err)
		return nil, err
	}
	profile, err := s.loader.Load(ctx, source)
	s.metrics.ObserveDatasetLoad(dataset.Origin(source), err)
	if err != nil {
		log.Printf("ERROR: failed to load dataset %s: %v", source, err)
		return nil, err
	}
	return profile, nil
}

func sessionNotFound(sessionID string) error {
	return domain.NewError(domain.KindSessionNotFound, fmt.Sprintf("session %s not found", sessionID), nil)
}
