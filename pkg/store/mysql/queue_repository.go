package mysql

import (
	"context"
	"fmt"
	"time"

	"fleetassign/pkg/constants"
)

// QueueRepository handles assignment queue persistence in MySQL
type QueueRepository struct {
	ds *Datastore
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(ds *Datastore) *QueueRepository {
	return &QueueRepository{ds: ds}
}

// Enqueue creates a new pending queue item
func (r *QueueRepository) Enqueue(ctx context.Context, item *AssignmentQueueItem) error {
	return r.ds.DB(ctx).Create(item).Error
}

// ListDue retrieves pending queue items whose next_retry_at has passed,
// ordered by priority descending then enqueue time ascending (FIFO within a
// priority tier).
func (r *QueueRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*AssignmentQueueItem, error) {
	if limit <= 0 {
		limit = 50
	}

	var items []*AssignmentQueueItem
	err := r.ds.DB(ctx).
		Where("status = ? AND next_retry_at <= ?", constants.QueueStatusPending.String(), now).
		Order("priority DESC, enqueued_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due queue items: %w", err)
	}
	return items, nil
}

// MarkAssigned transitions a pending queue item to assigned.
// CAS on status so a concurrent run can't double-finish the same item.
func (r *QueueRepository) MarkAssigned(ctx context.Context, queueItemID string) error {
	result := r.ds.DB(ctx).Model(&AssignmentQueueItem{}).
		Where("queue_item_id = ? AND status = ?", queueItemID, constants.QueueStatusPending.String()).
		Updates(map[string]interface{}{
			"status":     constants.QueueStatusAssigned.String(),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark queue item assigned: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("queue item not found or no longer pending: queue_item_id=%s", queueItemID)
	}
	return nil
}

// MarkFailed transitions a queue item to failed after exhausting retries
func (r *QueueRepository) MarkFailed(ctx context.Context, queueItemID string, retryCount int) error {
	result := r.ds.DB(ctx).Model(&AssignmentQueueItem{}).
		Where("queue_item_id = ?", queueItemID).
		Updates(map[string]interface{}{
			"status":      constants.QueueStatusFailed.String(),
			"retry_count": retryCount,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark queue item failed: %w", result.Error)
	}
	return nil
}

// Reschedule re-arms a pending queue item for a later retry
func (r *QueueRepository) Reschedule(ctx context.Context, queueItemID string, retryCount int, nextRetryAt time.Time) error {
	result := r.ds.DB(ctx).Model(&AssignmentQueueItem{}).
		Where("queue_item_id = ?", queueItemID).
		Updates(map[string]interface{}{
			"retry_count":   retryCount,
			"next_retry_at": nextRetryAt,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to reschedule queue item: %w", result.Error)
	}
	return nil
}

// List retrieves queue items with optional filters for the read surface
func (r *QueueRepository) List(ctx context.Context, filters map[string]interface{}, limit, offset int) ([]*AssignmentQueueItem, error) {
	if limit <= 0 {
		limit = 100
	}

	query := r.ds.DB(ctx).Model(&AssignmentQueueItem{})
	for key, value := range filters {
		query = query.Where(key+" = ?", value)
	}

	var items []*AssignmentQueueItem
	err := query.
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	return items, nil
}

// HasPendingForWorkOrder reports whether a pending queue item already exists
// for the work order (enqueue idempotency).
func (r *QueueRepository) HasPendingForWorkOrder(ctx context.Context, workOrderID string) (bool, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&AssignmentQueueItem{}).
		Where("work_order_id = ? AND status = ?", workOrderID, constants.QueueStatusPending.String()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending queue items: %w", err)
	}
	return count > 0, nil
}

// CleanupOldItems removes terminal queue items older than the given time in batches
func (r *QueueRepository) CleanupOldItems(ctx context.Context, before time.Time) (int64, error) {
	const batchSize = 5000
	var total int64
	for {
		result := r.ds.DB(ctx).
			Where("status IN (?, ?) AND updated_at < ?",
				constants.QueueStatusAssigned.String(), constants.QueueStatusFailed.String(), before).
			Limit(batchSize).
			Delete(&AssignmentQueueItem{})
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
		if result.RowsAffected < batchSize {
			break
		}
		time.Sleep(100 * time.Millisecond) // avoid overwhelming DB
	}
	return total, nil
}
