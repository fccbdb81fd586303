package model

import "time"

// AssignmentRule MySQL model for assignment_rules table.
// The orchestrator picks the single highest-priority active rule per run.
type AssignmentRule struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Active   bool   `gorm:"column:active;not null;default:false;index:idx_rule_active" json:"active"`
	Priority int    `gorm:"column:priority;type:int;not null;default:0" json:"priority"`

	WeightAvailability   float64 `gorm:"column:weight_availability;type:double;not null;default:0" json:"weight_availability"`
	WeightSpecialization float64 `gorm:"column:weight_specialization;type:double;not null;default:0" json:"weight_specialization"`
	WeightProximity      float64 `gorm:"column:weight_proximity;type:double;not null;default:0" json:"weight_proximity"`
	WeightWorkload       float64 `gorm:"column:weight_workload;type:double;not null;default:0" json:"weight_workload"`
	WeightPerformance    float64 `gorm:"column:weight_performance;type:double;not null;default:0" json:"weight_performance"`

	MaxDistanceKM              *float64        `gorm:"column:max_distance_km;type:double" json:"max_distance_km"`
	RequireSpecializationMatch bool            `gorm:"column:require_specialization_match;not null;default:false" json:"require_specialization_match"`
	RespectMaxConcurrentOrders bool            `gorm:"column:respect_max_concurrent_orders;not null;default:true" json:"respect_max_concurrent_orders"`
	AllowedLocations           JSONStringArray `gorm:"column:allowed_locations;type:json" json:"allowed_locations"`
	AllowedCategories          JSONStringArray `gorm:"column:allowed_categories;type:json" json:"allowed_categories"`
	AllowedPriorities          JSONStringArray `gorm:"column:allowed_priorities;type:json" json:"allowed_priorities"`

	FallbackAction string  `gorm:"column:fallback_action;type:varchar(50);not null;default:'queue'" json:"fallback_action"`
	FallbackUserID *string `gorm:"column:fallback_user_id;type:varchar(255)" json:"fallback_user_id"`

	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for AssignmentRule
func (AssignmentRule) TableName() string {
	return "assignment_rules"
}
