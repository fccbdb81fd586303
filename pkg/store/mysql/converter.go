package mysql

import (
	"fleetassign/pkg/assign"
	"fleetassign/pkg/constants"
)

// ToAssignWorkOrder converts a MySQL WorkOrder to the scoring engine input
func ToAssignWorkOrder(wo *WorkOrder) assign.WorkOrder {
	out := assign.WorkOrder{
		ID:                     wo.WorkOrderID,
		CategoryID:             wo.CategoryID,
		RequiredSpecialization: wo.RequiredSpecialization,
		Priority:               wo.Priority,
	}
	if wo.CustomerLat != nil && wo.CustomerLng != nil {
		out.Coords = &assign.Coordinates{Lat: *wo.CustomerLat, Lng: *wo.CustomerLng}
	}
	return out
}

// ToAssignTechnician converts a MySQL Technician (plus their shift windows)
// to the scoring engine input
func ToAssignTechnician(tech *Technician, shifts []*Shift) assign.Technician {
	out := assign.Technician{
		ID:                  tech.TechnicianID,
		Name:                tech.Name,
		Active:              tech.Status == constants.TechnicianStatusActive,
		Specializations:     []string(tech.Specializations),
		MaxConcurrentOrders: tech.MaxConcurrentOrders,
		LocationID:          tech.LocationID,
	}
	if tech.Lat != nil && tech.Lng != nil {
		out.Coords = &assign.Coordinates{Lat: *tech.Lat, Lng: *tech.Lng}
	}
	for _, shift := range shifts {
		out.Shifts = append(out.Shifts, assign.ShiftWindow{
			Start:  shift.StartAt,
			End:    shift.EndAt,
			Status: shift.Status,
		})
	}
	return out
}

// ToAssignRule converts a MySQL AssignmentRule to the scoring engine policy
func ToAssignRule(rule *AssignmentRule) assign.Rule {
	return assign.Rule{
		ID: rule.ID,
		Weights: assign.Weights{
			Availability:   rule.WeightAvailability,
			Specialization: rule.WeightSpecialization,
			Proximity:      rule.WeightProximity,
			Workload:       rule.WeightWorkload,
			Performance:    rule.WeightPerformance,
		},
		MaxDistanceKM:              rule.MaxDistanceKM,
		RequireSpecializationMatch: rule.RequireSpecializationMatch,
		RespectMaxConcurrentOrders: rule.RespectMaxConcurrentOrders,
		AllowedLocations:           []string(rule.AllowedLocations),
	}
}

// SnapshotCandidates converts ranked candidates into audit log snapshots,
// keeping at most topN entries.
func SnapshotCandidates(candidates []assign.Candidate, topN int) CandidateSnapshots {
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}
	if topN == 0 {
		return nil
	}

	snapshots := make(CandidateSnapshots, 0, topN)
	for _, c := range candidates[:topN] {
		snapshots = append(snapshots, CandidateSnapshot{
			TechnicianID:    c.TechnicianID,
			TechnicianName:  c.TechnicianName,
			Composite:       c.Composite,
			Availability:    c.Availability,
			Specialization:  c.Specialization,
			Proximity:       c.Proximity,
			Workload:        c.Workload,
			Performance:     c.Performance,
			DistanceKM:      c.DistanceKM,
			CurrentWorkload: c.CurrentWorkload,
		})
	}
	return snapshots
}
