package service

import (
	"context"

	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/fetcher"
	"github.com/ossih/casemirror/internal/logger"
)

// SyncService refreshes individual entities outside bulk jobs. Change
// callbacks and queue drains both funnel through SyncOne so every path
// shares the same endpoint dispatch and status semantics.
type SyncService struct {
	registry Registry
	fetch    Fetcher
	urls     *fetcher.URLBuilder
	logger   *logger.Logger
}

// NewSyncService creates a single-entity sync service.
// Parameters:
//   - registry: endpoint handlers.
//   - fetch: remote fetcher.
//   - urls: URL builder for detail endpoints.
//   - log: logger instance.
// Returns:
//   - *SyncService: initialized service.
func NewSyncService(registry Registry, fetch Fetcher, urls *fetcher.URLBuilder, log *logger.Logger) *SyncService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &SyncService{
		registry: registry,
		fetch:    fetch,
		urls:     urls,
		logger:   log,
	}
}

func (s *SyncService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// SyncOne fetches and applies a single entity by endpoint and remote ID.
// The cache is always bypassed: an on-demand sync exists to pick up a
// change the cache has not seen yet.
//
// An endpoint with no registry entry returns StatusSkipped without any
// network traffic. A registered endpoint with a nil Apply returns
// StatusDisabled. An empty upstream payload returns StatusEmptyUpstream.
func (s *SyncService) SyncOne(ctx context.Context, endpoint, id string) domain.SyncStatus {
	handler, ok := s.registry[endpoint]
	if !ok || handler == nil {
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldEndpoint: endpoint,
			logger.FieldEntityID: id,
		}).Warn("No handler for endpoint, skipping")
		return domain.StatusSkipped
	}
	if handler.Apply == nil {
		return domain.StatusDisabled
	}

	payload, err := s.fetch.Fetch(ctx, s.urls.Detail(endpoint, id, ""), true)
	if err != nil {
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldEndpoint: endpoint,
			logger.FieldEntityID: id,
		}).WithError(err).Error("Failed to fetch entity")
		return domain.StatusFailed
	}
	if len(payload) == 0 {
		return domain.StatusEmptyUpstream
	}

	status, err := handler.Apply(ctx, payload)
	if err != nil {
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldEndpoint: endpoint,
			logger.FieldEntityID: id,
		}).WithError(err).Error("Failed to apply entity")
		return domain.StatusFailed
	}
	return status
}
