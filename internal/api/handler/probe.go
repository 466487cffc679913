package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ossih/casemirror/internal/fetcher"
	"github.com/ossih/casemirror/internal/logger"
)

// ProbeHandler checks upstream availability without touching the cache.
type ProbeHandler struct {
	client *fetcher.Client
	urls   *fetcher.URLBuilder
}

// NewProbeHandler creates a new probe handler.
func NewProbeHandler(client *fetcher.Client, urls *fetcher.URLBuilder) *ProbeHandler {
	return &ProbeHandler{client: client, urls: urls}
}

// ProbeResponse reports the upstream status of one URL.
type ProbeResponse struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Reachable  bool   `json:"reachable"`
}

// Probe issues a HEAD request against a detail URL built from the endpoint
// and id query parameters, or against an explicit url parameter. A status
// code of 0 means the upstream was unreachable.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ProbeHandler) Probe(c *gin.Context) {
	ctx := c.Request.Context()

	target := strings.TrimSpace(c.Query("url"))
	if target == "" {
		endpoint := c.Query("endpoint")
		id := c.Query("id")
		if endpoint == "" || id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url or endpoint+id required"})
			return
		}
		target = h.urls.Detail(endpoint, id, "")
	}

	status := h.client.ProbeStatus(ctx, target)
	logger.CtxDebug(ctx, "Probe result: url=%s, status=%d", target, status)

	c.JSON(http.StatusOK, ProbeResponse{
		URL:        target,
		StatusCode: status,
		Reachable:  status >= 200 && status < 400,
	})
}
