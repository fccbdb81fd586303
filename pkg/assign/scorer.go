package assign

import (
	"fmt"
	"time"

	"fleetassign/pkg/logger"
)

const (
	// neutralScore is used when an input needed for a component is unknown.
	// Unknown is neutral, not punitive.
	neutralScore = 50.0

	// defaultMaxDistanceKM is the proximity normalization range when the
	// rule does not configure a max distance.
	defaultMaxDistanceKM = 50.0

	// defaultWorkloadCap normalizes the workload score for technicians
	// without a configured max concurrent orders.
	defaultWorkloadCap = 10

	// performanceBaseline is a fixed neutral placeholder until a historical
	// completion-quality metric is wired in.
	// TODO: replace with a real metric once work-order completion ratings land.
	performanceBaseline = 75.0

	shiftStatusScheduled = "scheduled"
)

// clampScore bounds a component score to [0, 100].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AvailabilityScore scores a technician's shift availability at the given
// time: 100 inside an active scheduled shift, 30 when shift data exists but
// none is active, 50 when no shift data exists at all.
func AvailabilityScore(tech Technician, now time.Time) float64 {
	if len(tech.Shifts) == 0 {
		return neutralScore
	}
	for _, shift := range tech.Shifts {
		if shift.Status != shiftStatusScheduled {
			continue
		}
		if !now.Before(shift.Start) && now.Before(shift.End) {
			return 100
		}
	}
	return 30
}

// SpecializationScore scores the match between the work order's required
// specialization and the technician's specialization set.
func SpecializationScore(wo WorkOrder, tech Technician) float64 {
	if wo.CategoryID == nil {
		return neutralScore
	}
	if wo.RequiredSpecialization == "" {
		// Category exists but carries no specific requirement.
		return 75
	}
	for _, s := range tech.Specializations {
		if s == wo.RequiredSpecialization {
			return 100
		}
	}
	return 25
}

// ProximityScore scores geographic closeness. Returns the score and the
// computed distance (nil when either party lacks coordinates).
//
// A distance beyond the rule's max distance scores 0; the selector also uses
// that threshold as a hard disqualifier.
func ProximityScore(wo WorkOrder, tech Technician, rule Rule) (float64, *float64) {
	if wo.Coords == nil || tech.Coords == nil {
		return neutralScore, nil
	}

	distance := HaversineKM(*tech.Coords, *wo.Coords)

	effectiveMax := defaultMaxDistanceKM
	if rule.MaxDistanceKM != nil {
		effectiveMax = *rule.MaxDistanceKM
		if distance > effectiveMax {
			return 0, &distance
		}
	}

	score := clampScore(100 - (distance/effectiveMax)*100)
	return score, &distance
}

// WorkloadScore scores how loaded a technician is relative to their cap.
// A technician at or above capacity scores 0 here; capacity enforcement
// itself is a hard filter in the selector.
func WorkloadScore(currentWorkload int, tech Technician) float64 {
	cap := defaultWorkloadCap
	if tech.MaxConcurrentOrders != nil && *tech.MaxConcurrentOrders > 0 {
		cap = *tech.MaxConcurrentOrders
	}
	return clampScore(100 - (float64(currentWorkload)/float64(cap))*100)
}

// PerformanceScore is the historical-performance signal. Without a metrics
// source it is a fixed neutral baseline.
func PerformanceScore(tech Technician) float64 {
	return performanceBaseline
}

// Score computes the full candidate record for one technician against one
// work order. Pure function over its inputs; now is the reference time for
// shift-window evaluation.
func Score(wo WorkOrder, tech Technician, currentWorkload int, rule Rule, now time.Time) Candidate {
	availability := clampScore(AvailabilityScore(tech, now))
	specialization := clampScore(SpecializationScore(wo, tech))
	proximity, distance := ProximityScore(wo, tech, rule)
	proximity = clampScore(proximity)
	workload := WorkloadScore(currentWorkload, tech)
	performance := clampScore(PerformanceScore(tech))

	w := rule.Weights
	var composite float64
	if sum := w.Sum(); sum > 0 {
		composite = (availability*w.Availability +
			specialization*w.Specialization +
			proximity*w.Proximity +
			workload*w.Workload +
			performance*w.Performance) / sum
	} else {
		logger.Warnf("assignment rule %d has all-zero weights, composite score forced to 0", rule.ID)
	}

	rationale := fmt.Sprintf("availability=%.0f specialization=%.0f proximity=%.0f workload=%.0f performance=%.0f composite=%.1f",
		availability, specialization, proximity, workload, performance, composite)
	if distance != nil {
		rationale += fmt.Sprintf(" distance=%.2fkm", *distance)
	}

	return Candidate{
		TechnicianID:    tech.ID,
		TechnicianName:  tech.Name,
		Availability:    availability,
		Specialization:  specialization,
		Proximity:       proximity,
		Workload:        workload,
		Performance:     performance,
		Composite:       composite,
		DistanceKM:      distance,
		CurrentWorkload: currentWorkload,
		Rationale:       rationale,
	}
}
