package service

import (
	"context"

	"github.com/xiaot623/gogo/datachat/internal/config"
	"github.com/xiaot623/gogo/datachat/internal/dataset"
	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/metrics"
	"github.com/xiaot623/gogo/datachat/internal/registry"
	"github.com/xiaot623/gogo/datachat/internal/repository"
)

// Pipeline answers one question against a conversation state.
type Pipeline interface {
	Run(ctx context.Context, state *domain.ConversationState, question string) (domain.Message, error)
}

// SourcePolicy decides whether a dataset source may be loaded.
type SourcePolicy interface {
	CheckSource(ctx context.Context, source string) error
}

type Service struct {
	registry *registry.Registry
	loader   dataset.Loader
	pipeline Pipeline
	store    repository.Store
	policy   SourcePolicy
	metrics  *metrics.Metrics
	config   *config.Config
}

func New(reg *registry.Registry, loader dataset.Loader, p Pipeline, store repository.Store, policy SourcePolicy, m *metrics.Metrics, cfg *config.Config) *Service {
	return &Service{
		registry: reg,
		loader:   loader,
		pipeline: p,
		store:    store,
		policy:   policy,
		metrics:  m,
		config:   cfg,
	}
}

// Shutdown drops every registered session.
func (s *Service) Shutdown() {
	s.registry.Clear()
	s.metrics.SetSessions(0)
}
