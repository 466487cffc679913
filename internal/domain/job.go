package domain

import "time"

// JobStatus represents the status of a bulk sync job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// SyncJob is the durable checkpoint of a resumable bulk job. Every step
// mutates it and persists it before returning control to the driver, so a
// job spanning thousands of items survives restarts and manual pauses.
type SyncJob struct {
	ID       string    `gorm:"type:text;primaryKey" json:"id"`
	Endpoint string    `gorm:"type:text;index" json:"endpoint"`
	Dataset  string    `gorm:"type:text" json:"dataset"`
	ListKey  string    `gorm:"type:text" json:"list_key"`
	Filename string    `gorm:"type:text" json:"filename"`
	Status   JobStatus `gorm:"default:pending" json:"status"`

	// Remaining holds the detail items not yet stepped through, in the
	// order the upstream returned them.
	Remaining JSONMapList `gorm:"type:text" json:"remaining"`

	Succeeded StringArray `gorm:"type:text" json:"succeeded"`
	Failed    StringArray `gorm:"type:text" json:"failed"`
	Skipped   StringArray `gorm:"type:text" json:"skipped"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (SyncJob) TableName() string {
	return "sync_jobs"
}

// SetMetaOnce records job metadata with first-writer-wins semantics, so a
// job resumed after a partial crash never overwrites already-recorded
// values.
func (j *SyncJob) SetMetaOnce(endpoint, dataset, listKey, filename string) {
	if j.Endpoint == "" {
		j.Endpoint = endpoint
	}
	if j.Dataset == "" {
		j.Dataset = dataset
	}
	if j.ListKey == "" {
		j.ListKey = listKey
	}
	if j.Filename == "" {
		j.Filename = filename
	}
	if j.StartedAt == nil {
		now := time.Now()
		j.StartedAt = &now
	}
}

// Counts returns the running totals tracked by the checkpoint.
func (j *SyncJob) Counts() (succeeded, failed, skipped int) {
	return len(j.Succeeded), len(j.Failed), len(j.Skipped)
}

// Done reports whether the job has stepped through all listed items.
func (j *SyncJob) Done() bool {
	return len(j.Remaining) == 0
}
