package model

import "time"

// Technician MySQL model for technicians table.
// Managed externally; the assignment engine only reads snapshots.
type Technician struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TechnicianID        string          `gorm:"column:technician_id;type:varchar(255);not null;uniqueIndex:idx_technician_id_unique" json:"technician_id"`
	Name                string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Status              string          `gorm:"column:status;type:varchar(50);not null;index:idx_tech_status" json:"status"`
	Specializations     JSONStringArray `gorm:"column:specializations;type:json" json:"specializations"`
	Lat                 *float64        `gorm:"column:lat;type:double" json:"lat"`
	Lng                 *float64        `gorm:"column:lng;type:double" json:"lng"`
	MaxConcurrentOrders *int            `gorm:"column:max_concurrent_orders;type:int" json:"max_concurrent_orders"`
	LocationID          string          `gorm:"column:location_id;type:varchar(255);index:idx_tech_location" json:"location_id"`

	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for Technician
func (Technician) TableName() string {
	return "technicians"
}

// Shift MySQL model for technician_shifts table
type Shift struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TechnicianID string    `gorm:"column:technician_id;type:varchar(255);not null;index:idx_shift_technician" json:"technician_id"`
	StartAt      time.Time `gorm:"column:start_at;type:datetime(3);not null" json:"start_at"`
	EndAt        time.Time `gorm:"column:end_at;type:datetime(3);not null" json:"end_at"`
	Status       string    `gorm:"column:status;type:varchar(50);not null" json:"status"`
}

// TableName specifies the table name for Shift
func (Shift) TableName() string {
	return "technician_shifts"
}
