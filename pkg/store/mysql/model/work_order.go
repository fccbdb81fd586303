package model

import "time"

// WorkOrder MySQL model for work_orders table.
// Read-mostly input to the assignment engine; only assigned_technician_id
// and status are written here, and only through the conditional assign.
type WorkOrder struct {
	ID                     int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkOrderID            string   `gorm:"column:work_order_id;type:varchar(255);not null;uniqueIndex:idx_work_order_id_unique" json:"work_order_id"`
	Status                 string   `gorm:"column:status;type:varchar(50);not null;index:idx_wo_status" json:"status"`
	AssignedTechnicianID   *string  `gorm:"column:assigned_technician_id;type:varchar(255);index:idx_wo_assigned_tech" json:"assigned_technician_id"`
	CategoryID             *string  `gorm:"column:category_id;type:varchar(255)" json:"category_id"`
	RequiredSpecialization string   `gorm:"column:required_specialization;type:varchar(255)" json:"required_specialization"`
	CustomerLat            *float64 `gorm:"column:customer_lat;type:double" json:"customer_lat"`
	CustomerLng            *float64 `gorm:"column:customer_lng;type:double" json:"customer_lng"`
	Priority               int      `gorm:"column:priority;type:int;not null;default:0" json:"priority"`

	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for WorkOrder
func (WorkOrder) TableName() string {
	return "work_orders"
}
