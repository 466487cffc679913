package service

import (
	"context"

	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/logger"
	"github.com/ossih/casemirror/internal/repository"
)

// DrainResult summarizes one pass over the work queue.
type DrainResult struct {
	Processed int
	Succeeded int
	Dropped   int
	Remaining int
}

// DrainService re-drives queued tasks through single-entity sync. Tasks
// that sync cleanly (or turn out to be gone upstream) leave the queue;
// tasks hitting permanent configuration problems are dropped with a
// warning; everything else stays for the next pass.
type DrainService struct {
	sync   *SyncService
	queue  *repository.QueueRepository
	logger *logger.Logger
}

// NewDrainService creates a queue drain service.
func NewDrainService(sync *SyncService, queue *repository.QueueRepository, log *logger.Logger) *DrainService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &DrainService{sync: sync, queue: queue, logger: log}
}

func (s *DrainService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Drain processes up to limit pending tasks in enqueue order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum tasks to process; 0 means no cap.
// Returns:
//   - DrainResult: pass summary.
//   - error: non-nil only on storage failure.
func (s *DrainService) Drain(ctx context.Context, limit int) (DrainResult, error) {
	var result DrainResult

	tasks, err := s.queue.Pending(ctx, limit)
	if err != nil {
		return result, err
	}

	for i := range tasks {
		if err := ctx.Err(); err != nil {
			break
		}
		task := &tasks[i]
		result.Processed++

		status := s.sync.SyncOne(ctx, task.Endpoint, task.EntityID)
		switch status {
		case domain.StatusCompleted, domain.StatusEmptyUpstream:
			// Empty upstream means the entity is gone; retrying cannot help.
			if err := s.queue.Delete(ctx, task.ID); err != nil {
				return result, err
			}
			result.Succeeded++
		case domain.StatusSkipped, domain.StatusDisabled:
			s.log(ctx).WithFields(logger.Fields{
				logger.FieldEndpoint: task.Endpoint,
				logger.FieldEntityID: task.EntityID,
				logger.FieldStatus:   status.String(),
			}).Warn("Dropping task for unserviceable endpoint")
			if err := s.queue.Delete(ctx, task.ID); err != nil {
				return result, err
			}
			result.Dropped++
		default:
			if err := s.queue.MarkAttempt(ctx, task.ID); err != nil {
				return result, err
			}
		}
	}

	remaining, err := s.queue.CountPending(ctx)
	if err != nil {
		return result, err
	}
	result.Remaining = int(remaining)

	s.log(ctx).WithFields(logger.Fields{
		"processed": result.Processed,
		"succeeded": result.Succeeded,
		"dropped":   result.Dropped,
		"remaining": result.Remaining,
	}).Info("Queue drain pass complete")

	return result, nil
}
