package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AssignmentLog MySQL model for assignment_logs table.
// Append-only audit record of one assignment decision; never mutated.
type AssignmentLog struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	LogID        string  `gorm:"column:log_id;type:varchar(255);not null;uniqueIndex:idx_log_id_unique" json:"log_id"`
	WorkOrderID  string  `gorm:"column:work_order_id;type:varchar(255);not null;index:idx_log_work_order" json:"work_order_id"`
	RuleID       int64   `gorm:"column:rule_id;type:bigint;not null" json:"rule_id"`
	TechnicianID *string `gorm:"column:technician_id;type:varchar(255);index:idx_log_technician" json:"technician_id"`

	CompositeScore      float64 `gorm:"column:composite_score;type:double;not null;default:0" json:"composite_score"`
	AvailabilityScore   float64 `gorm:"column:availability_score;type:double;not null;default:0" json:"availability_score"`
	SpecializationScore float64 `gorm:"column:specialization_score;type:double;not null;default:0" json:"specialization_score"`
	ProximityScore      float64 `gorm:"column:proximity_score;type:double;not null;default:0" json:"proximity_score"`
	WorkloadScore       float64 `gorm:"column:workload_score;type:double;not null;default:0" json:"workload_score"`
	PerformanceScore    float64 `gorm:"column:performance_score;type:double;not null;default:0" json:"performance_score"`

	CandidatesEvaluated int                 `gorm:"column:candidates_evaluated;type:int;not null;default:0" json:"candidates_evaluated"`
	TopCandidates       CandidateSnapshots  `gorm:"column:top_candidates;type:json" json:"top_candidates,omitempty"`
	Outcome             string              `gorm:"column:outcome;type:varchar(50);not null;index:idx_log_outcome" json:"outcome"`
	DurationMs          int64               `gorm:"column:duration_ms;type:bigint;not null;default:0" json:"duration_ms"`
	DecisionFactors     JSONMap             `gorm:"column:decision_factors;type:json" json:"decision_factors,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3);index:idx_log_created_at" json:"created_at"`
}

// TableName specifies the table name for AssignmentLog
func (AssignmentLog) TableName() string {
	return "assignment_logs"
}

// CandidateSnapshot is one ranked candidate captured in the audit trail
type CandidateSnapshot struct {
	TechnicianID    string   `json:"technician_id"`
	TechnicianName  string   `json:"technician_name"`
	Composite       float64  `json:"composite"`
	Availability    float64  `json:"availability"`
	Specialization  float64  `json:"specialization"`
	Proximity       float64  `json:"proximity"`
	Workload        float64  `json:"workload"`
	Performance     float64  `json:"performance"`
	DistanceKM      *float64 `json:"distance_km,omitempty"`
	CurrentWorkload int      `json:"current_workload"`
}

// CandidateSnapshots top-N candidate ranking (stored in JSON)
type CandidateSnapshots []CandidateSnapshot

// Value implements driver.Valuer interface for CandidateSnapshots
func (c CandidateSnapshots) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for CandidateSnapshots
func (c *CandidateSnapshots) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to scan CandidateSnapshots: unsupported type %T", value)
	}

	var snapshots []CandidateSnapshot
	if err := json.Unmarshal(bytes, &snapshots); err != nil {
		return fmt.Errorf("failed to unmarshal CandidateSnapshots: %w", err)
	}

	*c = snapshots
	return nil
}
