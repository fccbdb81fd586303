package service

import (
	"context"

	"fleetassign/pkg/store/mysql"
)

const defaultQueryLimit = 50

// AuditService is the read side of the assignment engine: audit log entries
// and queue state for operators and the HTTP API.
type AuditService struct {
	logs  AuditLogQuery
	queue QueueQuery
}

// NewAuditService creates a new audit service
func NewAuditService(logs AuditLogQuery, queue QueueQuery) *AuditService {
	return &AuditService{logs: logs, queue: queue}
}

// RecentLogs returns the most recent assignment decisions.
func (s *AuditService) RecentLogs(ctx context.Context, limit int) ([]*mysql.AssignmentLog, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	return s.logs.ListRecent(ctx, limit)
}

// LogsByWorkOrder returns the full decision history of one work order,
// newest first.
func (s *AuditService) LogsByWorkOrder(ctx context.Context, workOrderID string, limit int) ([]*mysql.AssignmentLog, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	return s.logs.ListByWorkOrder(ctx, workOrderID, limit)
}

// QueueItems returns queue items, optionally filtered by status.
func (s *AuditService) QueueItems(ctx context.Context, status string, limit, offset int) ([]*mysql.AssignmentQueueItem, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	filters := map[string]interface{}{}
	if status != "" {
		filters["status"] = status
	}
	return s.queue.List(ctx, filters, limit, offset)
}
