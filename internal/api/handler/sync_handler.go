package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ossih/casemirror/internal/logger"
	"github.com/ossih/casemirror/internal/service"
)

// SyncHandler handles bulk sync job operations.
type SyncHandler struct {
	bulkService *service.BulkJobService
	logger      *logger.Logger

	// Job state
	mu            sync.RWMutex
	isRunning     bool
	currentJobID  string
	lastRunTime   time.Time
	lastRunStatus string
	lastCounts    *JobCounts
}

// NewSyncHandler creates a new sync handler.
// Parameters:
//   - bulkService: bulk job service instance.
//   - log: logger instance.
// Returns:
//   - *SyncHandler: initialized handler.
func NewSyncHandler(bulkService *service.BulkJobService, log *logger.Logger) *SyncHandler {
	return &SyncHandler{
		bulkService: bulkService,
		logger:      log,
	}
}

// JobRequest represents the bulk job API request.
type JobRequest struct {
	Endpoint    string `json:"endpoint" binding:"required"`
	Dataset     string `json:"dataset"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AppendFile  string `json:"append_file"`
	Limit       int    `json:"limit" binding:"min=0,max=100000"`
	BypassCache bool   `json:"bypass_cache"`
}

// JobCounts reports a finished job's result set sizes.
type JobCounts struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// JobResponse represents the bulk job API response.
type JobResponse struct {
	Message string     `json:"message"`
	JobID   string     `json:"job_id"`
	Counts  *JobCounts `json:"counts,omitempty"`
}

// JobStatusResponse represents the job status.
type JobStatusResponse struct {
	IsRunning     bool       `json:"is_running"`
	CurrentJobID  string     `json:"current_job_id,omitempty"`
	LastRunTime   string     `json:"last_run_time,omitempty"`
	LastRunStatus string     `json:"last_run_status,omitempty"`
	LastCounts    *JobCounts `json:"last_counts,omitempty"`
}

// StartJob handles the bulk job API endpoint. One job runs at a time; a
// second request while one is in flight is rejected with 409.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SyncHandler) StartJob(c *gin.Context) {
	ctx := c.Request.Context()

	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid job request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		logger.CtxWarn(ctx, "Job request rejected: already running, endpoint=%s, client_ip=%s",
			req.Endpoint, c.ClientIP())
		c.JSON(http.StatusConflict, gin.H{"error": "A sync job is already running"})
		return
	}
	h.isRunning = true
	h.currentJobID = ""
	h.mu.Unlock()

	logger.CtxInfo(ctx, "Starting bulk job: endpoint=%s, dataset=%s, start=%s, end=%s, limit=%d",
		req.Endpoint, req.Dataset, req.Start, req.End, req.Limit)

	// The run blocks this request until it finalizes. It gets a context
	// detached from the request so a client disconnect cannot cancel the
	// job mid-step; the checkpoint makes a halt recoverable either way.
	jobCtx := h.logger.WithContext(context.Background())
	startTime := time.Now()
	job, err := h.bulkService.Run(jobCtx, service.BulkJobOptions{
		Endpoint:    req.Endpoint,
		Dataset:     req.Dataset,
		Start:       req.Start,
		End:         req.End,
		AppendFile:  req.AppendFile,
		Limit:       req.Limit,
		BypassCache: req.BypassCache,
	})
	duration := time.Since(startTime)

	var counts *JobCounts
	if job != nil {
		succeeded, failed, skipped := job.Counts()
		counts = &JobCounts{Succeeded: succeeded, Failed: failed, Skipped: skipped}
	}

	h.mu.Lock()
	h.isRunning = false
	if job != nil {
		h.currentJobID = job.ID
	}
	h.lastRunTime = time.Now()
	h.lastCounts = counts
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	} else {
		h.lastRunStatus = "success"
	}
	h.mu.Unlock()

	if err != nil {
		h.logger.WithFields(logger.Fields{
			logger.FieldEndpoint:   req.Endpoint,
			logger.FieldDurationMs: duration.Milliseconds(),
		}).WithError(err).Error("Bulk job failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, JobResponse{
		Message: "Sync job completed",
		JobID:   job.ID,
		Counts:  counts,
	})
}

// GetJobStatus returns the current job status.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SyncHandler) GetJobStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ctx := c.Request.Context()
	logger.CtxDebug(ctx, "Job status requested: client_ip=%s, is_running=%v", c.ClientIP(), h.isRunning)

	resp := JobStatusResponse{
		IsRunning:     h.isRunning,
		CurrentJobID:  h.currentJobID,
		LastRunStatus: h.lastRunStatus,
		LastCounts:    h.lastCounts,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
