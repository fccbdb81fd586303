package service

import (
	"context"
	"time"

	"fleetassign/pkg/store/mysql"
)

// Store interfaces consumed by the assignment service. The MySQL
// repositories satisfy them; tests substitute in-memory fakes.

// WorkOrderStore reads work orders and performs the conditional assignment write.
type WorkOrderStore interface {
	Get(ctx context.Context, workOrderID string) (*mysql.WorkOrder, error)
	AssignIfUnassigned(ctx context.Context, workOrderID, technicianID string) (bool, error)
	CountActiveByTechnician(ctx context.Context) (map[string]int, error)
}

// TechnicianStore reads technician snapshots and their shift windows.
type TechnicianStore interface {
	ListActive(ctx context.Context) ([]*mysql.Technician, error)
	ListShifts(ctx context.Context, technicianIDs []string) ([]*mysql.Shift, error)
}

// RuleStore reads assignment rules.
type RuleStore interface {
	ListActiveByPriority(ctx context.Context) ([]*mysql.AssignmentRule, error)
}

// QueueStore manages assignment queue items.
type QueueStore interface {
	Enqueue(ctx context.Context, item *mysql.AssignmentQueueItem) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]*mysql.AssignmentQueueItem, error)
	MarkAssigned(ctx context.Context, queueItemID string) error
	MarkFailed(ctx context.Context, queueItemID string, retryCount int) error
	Reschedule(ctx context.Context, queueItemID string, retryCount int, nextRetryAt time.Time) error
	HasPendingForWorkOrder(ctx context.Context, workOrderID string) (bool, error)
}

// AssignmentLogStore appends audit log entries.
type AssignmentLogStore interface {
	Append(ctx context.Context, entry *mysql.AssignmentLog) error
}

// RuleAdminStore is the read/write surface for rule management.
type RuleAdminStore interface {
	List(ctx context.Context, limit int) ([]*mysql.AssignmentRule, error)
	Create(ctx context.Context, rule *mysql.AssignmentRule) error
}

// AuditLogQuery is the read surface over the assignment audit trail.
type AuditLogQuery interface {
	ListRecent(ctx context.Context, limit int) ([]*mysql.AssignmentLog, error)
	ListByWorkOrder(ctx context.Context, workOrderID string, limit int) ([]*mysql.AssignmentLog, error)
}

// QueueQuery is the read surface over the assignment queue.
type QueueQuery interface {
	List(ctx context.Context, filters map[string]interface{}, limit, offset int) ([]*mysql.AssignmentQueueItem, error)
}

// FallbackDispatcher performs the configured remedial action when no
// candidate qualifies. Implemented elsewhere; invoked fire-and-forget.
type FallbackDispatcher interface {
	Dispatch(ctx context.Context, action string, workOrderID string, reason string)
}

// BatchEnqueuer pushes an assignment run onto the async queue (queue-based
// invocation strategy). Nil when the strategy is direct-invoke only.
type BatchEnqueuer interface {
	EnqueueRun(ctx context.Context) error
}
