package model

import "time"

// AssignmentQueueItem MySQL model for assignment_queue table.
// One pending request to auto-assign a work order, with retry bookkeeping.
type AssignmentQueueItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	QueueItemID string    `gorm:"column:queue_item_id;type:varchar(255);not null;uniqueIndex:idx_queue_item_id_unique" json:"queue_item_id"`
	WorkOrderID string    `gorm:"column:work_order_id;type:varchar(255);not null;index:idx_queue_work_order" json:"work_order_id"`
	Priority    int       `gorm:"column:priority;type:int;not null;default:0" json:"priority"`
	Status      string    `gorm:"column:status;type:varchar(50);not null;index:idx_queue_status" json:"status"`
	RetryCount  int       `gorm:"column:retry_count;type:int;not null;default:0" json:"retry_count"`
	MaxRetries  int       `gorm:"column:max_retries;type:int;not null;default:3" json:"max_retries"`
	NextRetryAt time.Time `gorm:"column:next_retry_at;type:datetime(3);not null;index:idx_queue_next_retry" json:"next_retry_at"`
	EnqueuedAt  time.Time `gorm:"column:enqueued_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"enqueued_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for AssignmentQueueItem
func (AssignmentQueueItem) TableName() string {
	return "assignment_queue"
}
