package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ossih/casemirror/internal/domain"
	"gorm.io/gorm"
)

// QueueRepository is the durable work queue backing retry and aggregation
// tasks. Pending tasks are deduplicated on the (endpoint, entity_id)
// composite key.
type QueueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue appends a task unless one is already pending for the same
// (endpoint, entityID) pair.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - endpoint: upstream endpoint name.
//   - entityID: remote-assigned entity ID.
//   - reason: why the task was created.
//   - payload: optional opaque task data.
// Returns:
//   - string: task ID (existing ID when already queued).
//   - bool: true when a pending task already existed.
//   - error: non-nil on storage failure.
func (r *QueueRepository) Enqueue(ctx context.Context, endpoint, entityID string, reason domain.TaskReason, payload domain.JSONMap) (string, bool, error) {
	var existing domain.QueueTask
	err := r.db.WithContext(ctx).
		First(&existing, "endpoint = ? AND entity_id = ?", endpoint, entityID).Error
	if err == nil {
		return existing.ID, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}

	task := domain.QueueTask{
		ID:       uuid.New().String(),
		Endpoint: endpoint,
		EntityID: entityID,
		Reason:   reason,
		Payload:  payload,
	}
	if err := r.db.WithContext(ctx).Create(&task).Error; err != nil {
		return "", false, err
	}
	return task.ID, false, nil
}

// Pending returns up to limit tasks in creation order.
func (r *QueueRepository) Pending(ctx context.Context, limit int) ([]domain.QueueTask, error) {
	var tasks []domain.QueueTask
	q := r.db.WithContext(ctx).Order("created_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Delete removes a processed task.
func (r *QueueRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.QueueTask{}, "id = ?", id).Error
}

// MarkAttempt increments the attempt counter of a task left in place after
// a failed drain cycle.
func (r *QueueRepository) MarkAttempt(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.QueueTask{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// CountPending returns the number of pending tasks.
func (r *QueueRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QueueTask{}).Count(&count).Error
	return count, err
}
