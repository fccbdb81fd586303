package mysql

import (
	"context"
	"fmt"
	"time"
)

// AssignmentLogRepository handles assignment audit log persistence in MySQL.
// Append-only: entries are created and read, never updated.
type AssignmentLogRepository struct {
	ds *Datastore
}

// NewAssignmentLogRepository creates a new assignment log repository
func NewAssignmentLogRepository(ds *Datastore) *AssignmentLogRepository {
	return &AssignmentLogRepository{ds: ds}
}

// Append appends a new audit log entry
func (r *AssignmentLogRepository) Append(ctx context.Context, entry *AssignmentLog) error {
	return r.ds.DB(ctx).Create(entry).Error
}

// ListByWorkOrder retrieves audit entries for a specific work order
func (r *AssignmentLogRepository) ListByWorkOrder(ctx context.Context, workOrderID string, limit int) ([]*AssignmentLog, error) {
	if limit <= 0 {
		limit = 100
	}

	var entries []*AssignmentLog
	err := r.ds.DB(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment logs by work order: %w", err)
	}
	return entries, nil
}

// ListRecent retrieves the most recent audit entries
func (r *AssignmentLogRepository) ListRecent(ctx context.Context, limit int) ([]*AssignmentLog, error) {
	if limit <= 0 {
		limit = 100
	}

	var entries []*AssignmentLog
	err := r.ds.DB(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent assignment logs: %w", err)
	}
	return entries, nil
}

// CleanupOldEntries removes audit entries older than the specified time
func (r *AssignmentLogRepository) CleanupOldEntries(ctx context.Context, before time.Time) (int64, error) {
	result := r.ds.DB(ctx).Where("created_at < ?", before).Delete(&AssignmentLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old assignment logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
