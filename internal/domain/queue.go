package domain

import "time"

// TaskReason records why a queue task was created.
// Values include TaskReasonRetry, TaskReasonAggregated, and TaskReasonCallback.
type TaskReason string

const (
	TaskReasonRetry      TaskReason = "retry"
	TaskReasonAggregated TaskReason = "aggregated"
	TaskReasonCallback   TaskReason = "callback"
)

// QueueTask represents one pending retry/aggregation task in the durable
// work queue. At most one pending task exists per (endpoint, entity_id).
type QueueTask struct {
	ID        string     `gorm:"type:text;primaryKey" json:"id"`
	Endpoint  string     `gorm:"type:text;not null;uniqueIndex:idx_queue_endpoint_entity" json:"endpoint"`
	EntityID  string     `gorm:"type:text;not null;uniqueIndex:idx_queue_endpoint_entity" json:"entity_id"`
	Reason    TaskReason `gorm:"type:text;not null" json:"reason"`
	Payload   JSONMap    `gorm:"type:text" json:"payload"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (QueueTask) TableName() string {
	return "queue_tasks"
}
