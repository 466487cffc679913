package repository

import (
	"context"
	"errors"

	"github.com/ossih/casemirror/internal/domain"
	"gorm.io/gorm"
)

// JobRepository persists bulk job checkpoints.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Get retrieves a job checkpoint by ID, or nil when absent.
func (r *JobRepository) Get(ctx context.Context, id string) (*domain.SyncJob, error) {
	var job domain.SyncJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Save persists the full checkpoint state. Called after every job step so
// an externally halted job resumes from the last committed item.
func (r *JobRepository) Save(ctx context.Context, job *domain.SyncJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// FindRunning returns the running job for an endpoint, or nil.
func (r *JobRepository) FindRunning(ctx context.Context, endpoint string) (*domain.SyncJob, error) {
	var job domain.SyncJob
	err := r.db.WithContext(ctx).
		First(&job, "endpoint = ? AND status = ?", endpoint, domain.JobStatusRunning).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Recent returns the latest jobs ordered by creation time, newest first.
func (r *JobRepository) Recent(ctx context.Context, limit int) ([]domain.SyncJob, error) {
	var jobs []domain.SyncJob
	q := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
