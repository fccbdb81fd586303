package mysql

import (
	"context"
	"fmt"
	"time"

	"fleetassign/pkg/constants"

	"gorm.io/gorm"
)

// WorkOrderRepository handles work order persistence in MySQL
type WorkOrderRepository struct {
	ds *Datastore
}

// NewWorkOrderRepository creates a new work order repository
func NewWorkOrderRepository(ds *Datastore) *WorkOrderRepository {
	return &WorkOrderRepository{ds: ds}
}

// Create creates a new work order
func (r *WorkOrderRepository) Create(ctx context.Context, wo *WorkOrder) error {
	return r.ds.DB(ctx).Create(wo).Error
}

// Get retrieves a work order by ID
func (r *WorkOrderRepository) Get(ctx context.Context, workOrderID string) (*WorkOrder, error) {
	var wo WorkOrder
	err := r.ds.DB(ctx).Where("work_order_id = ?", workOrderID).First(&wo).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}
	return &wo, nil
}

// AssignIfUnassigned atomically sets the assigned technician and status on a
// work order, conditioned on assigned_technician_id still being NULL.
// Returns false when the order was already assigned by a concurrent run or a
// manual assignment; that is the caller's signal to skip, not an error.
func (r *WorkOrderRepository) AssignIfUnassigned(ctx context.Context, workOrderID, technicianID string) (bool, error) {
	result := r.ds.DB(ctx).Model(&WorkOrder{}).
		Where("work_order_id = ? AND assigned_technician_id IS NULL", workOrderID).
		Updates(map[string]interface{}{
			"assigned_technician_id": technicianID,
			"status":                 constants.WorkOrderStatusAssigned.String(),
			"updated_at":             time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to assign work order: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// CountActiveByTechnician returns the number of work orders in non-terminal
// status per technician. One grouped query per batch run.
func (r *WorkOrderRepository) CountActiveByTechnician(ctx context.Context) (map[string]int, error) {
	type row struct {
		AssignedTechnicianID string
		Cnt                  int
	}

	var rows []row
	err := r.ds.DB(ctx).Model(&WorkOrder{}).
		Select("assigned_technician_id, COUNT(*) as cnt").
		Where("assigned_technician_id IS NOT NULL AND status IN ?", constants.ActiveWorkOrderStatuses).
		Group("assigned_technician_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active work orders: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, rec := range rows {
		counts[rec.AssignedTechnicianID] = rec.Cnt
	}
	return counts, nil
}

// ListUnassignedByStatus retrieves unassigned work orders in a given status
func (r *WorkOrderRepository) ListUnassignedByStatus(ctx context.Context, status string, limit int) ([]*WorkOrder, error) {
	if limit <= 0 {
		limit = 100
	}

	var orders []*WorkOrder
	err := r.ds.DB(ctx).
		Where("assigned_technician_id IS NULL AND status = ?", status).
		Order("priority DESC, created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned work orders: %w", err)
	}
	return orders, nil
}
