package assign

import "time"

// Coordinates is a geographic point (decimal degrees).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ShiftWindow is one scheduled shift for a technician.
type ShiftWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"` // scheduled, cancelled, ...
}

// Technician is a read-only snapshot of a technician at scoring time.
// Lifecycle is managed elsewhere; the engine never mutates one.
type Technician struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Active              bool          `json:"active"`
	Specializations     []string      `json:"specializations"`
	Coords              *Coordinates  `json:"coords,omitempty"`
	MaxConcurrentOrders *int          `json:"maxConcurrentOrders,omitempty"` // nil = unlimited
	LocationID          string        `json:"locationId"`
	Shifts              []ShiftWindow `json:"shifts,omitempty"`
}

// WorkOrder is the subset of a work order the engine scores against.
type WorkOrder struct {
	ID                     string       `json:"id"`
	CategoryID             *string      `json:"categoryId,omitempty"`
	RequiredSpecialization string       `json:"requiredSpecialization"` // empty when the category carries no requirement
	Coords                 *Coordinates `json:"coords,omitempty"`
	Priority               int          `json:"priority"`
}

// Weights are the five scoring weights of an assignment rule.
// They are non-negative and need not sum to 100.
type Weights struct {
	Availability   float64 `json:"availability"`
	Specialization float64 `json:"specialization"`
	Proximity      float64 `json:"proximity"`
	Workload       float64 `json:"workload"`
	Performance    float64 `json:"performance"`
}

// Sum returns the weight denominator for the composite score.
func (w Weights) Sum() float64 {
	return w.Availability + w.Specialization + w.Proximity + w.Workload + w.Performance
}

// Rule is the scoring and eligibility policy applied to one batch run.
type Rule struct {
	ID                         int64    `json:"id"`
	Weights                    Weights  `json:"weights"`
	MaxDistanceKM              *float64 `json:"maxDistanceKm,omitempty"`
	RequireSpecializationMatch bool     `json:"requireSpecializationMatch"`
	RespectMaxConcurrentOrders bool     `json:"respectMaxConcurrentOrders"`
	AllowedLocations           []string `json:"allowedLocations,omitempty"`
}

// Candidate is a technician paired with the scores computed for one work
// order. Transient: only the winner's scores end up in the audit log.
type Candidate struct {
	TechnicianID    string   `json:"technicianId"`
	TechnicianName  string   `json:"technicianName"`
	Availability    float64  `json:"availability"`
	Specialization  float64  `json:"specialization"`
	Proximity       float64  `json:"proximity"`
	Workload        float64  `json:"workload"`
	Performance     float64  `json:"performance"`
	Composite       float64  `json:"composite"`
	DistanceKM      *float64 `json:"distanceKm,omitempty"`
	CurrentWorkload int      `json:"currentWorkload"`
	Rationale       string   `json:"rationale"`
}
