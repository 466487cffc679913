package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/fetcher"
	"github.com/ossih/casemirror/internal/logger"
	"github.com/ossih/casemirror/internal/repository"
	"github.com/ossih/casemirror/internal/service"
)

// CallbackHandler receives upstream change notifications and refreshes the
// affected entity immediately.
type CallbackHandler struct {
	sync   *service.SyncService
	cache  *repository.CacheRepository
	queue  *repository.QueueRepository
	urls   *fetcher.URLBuilder
	logger *logger.Logger
}

// NewCallbackHandler creates a new callback handler.
// Parameters:
//   - sync: single-entity sync service.
//   - cache: response cache for invalidation.
//   - queue: durable work queue for deferred retries.
//   - urls: URL builder, used to derive cache key prefixes.
//   - log: logger instance.
// Returns:
//   - *CallbackHandler: initialized handler.
func NewCallbackHandler(sync *service.SyncService, cache *repository.CacheRepository, queue *repository.QueueRepository, urls *fetcher.URLBuilder, log *logger.Logger) *CallbackHandler {
	return &CallbackHandler{sync: sync, cache: cache, queue: queue, urls: urls, logger: log}
}

// CallbackRequest is the upstream change notification body.
type CallbackRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	ID       string `json:"id" binding:"required"`
}

// CallbackResponse reports how the notification was handled.
type CallbackResponse struct {
	Status string `json:"status"`
	Queued bool   `json:"queued,omitempty"`
}

// HandleCallback processes one change notification: the cached responses
// for the endpoint are invalidated first so the refresh cannot read stale
// data, then the entity is synced on the spot. A sync that does not
// complete leaves a queue task behind so the change survives.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	ctx := c.Request.Context()

	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid callback request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.CtxInfo(ctx, "Received change callback: endpoint=%s, id=%s, client_ip=%s",
		req.Endpoint, req.ID, c.ClientIP())

	// Cache keys are normalized URLs, so the endpoint's list URL key is a
	// shared prefix of every cached request variant under it.
	keyPrefix := fetcher.CacheKey(h.urls.List(req.Endpoint, nil))
	if err := h.cache.InvalidatePrefix(ctx, keyPrefix); err != nil {
		logger.CtxError(ctx, "Failed to invalidate cache: endpoint=%s, error=%v", req.Endpoint, err)
	}

	status := h.sync.SyncOne(ctx, req.Endpoint, req.ID)
	switch status {
	case domain.StatusCompleted, domain.StatusEmptyUpstream, domain.StatusSkipped, domain.StatusDisabled:
		c.JSON(http.StatusOK, CallbackResponse{Status: status.String()})
	default:
		_, _, err := h.queue.Enqueue(ctx, req.Endpoint, req.ID, domain.TaskReasonCallback, nil)
		if err != nil {
			logger.CtxError(ctx, "Failed to queue callback retry: endpoint=%s, id=%s, error=%v",
				req.Endpoint, req.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, CallbackResponse{Status: status.String(), Queued: true})
	}
}
