package assign

import (
	"sort"
	"time"
)

// eligible applies the rule's hard disqualification filters to one
// technician. Filtering happens before scoring; a disqualified technician
// never appears among candidates.
func eligible(wo WorkOrder, tech Technician, currentWorkload int, rule Rule) bool {
	if !tech.Active {
		return false
	}

	if rule.RespectMaxConcurrentOrders && tech.MaxConcurrentOrders != nil {
		if currentWorkload >= *tech.MaxConcurrentOrders {
			return false
		}
	}

	if rule.RequireSpecializationMatch && wo.RequiredSpecialization != "" {
		matched := false
		for _, s := range tech.Specializations {
			if s == wo.RequiredSpecialization {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(rule.AllowedLocations) > 0 {
		allowed := false
		for _, loc := range rule.AllowedLocations {
			if loc == tech.LocationID {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	// Distance cap only disqualifies when both coordinates are known.
	if rule.MaxDistanceKM != nil && wo.Coords != nil && tech.Coords != nil {
		if HaversineKM(*tech.Coords, *wo.Coords) > *rule.MaxDistanceKM {
			return false
		}
	}

	return true
}

// RankCandidates filters and scores the technician pool for one work order
// and returns the surviving candidates ordered best-first. Ordering is fully
// deterministic: composite score descending, then lower current workload,
// then technician id.
func RankCandidates(wo WorkOrder, technicians []Technician, workloadByTechnician map[string]int, rule Rule, now time.Time) []Candidate {
	candidates := make([]Candidate, 0, len(technicians))
	for _, tech := range technicians {
		workload := workloadByTechnician[tech.ID]
		if !eligible(wo, tech, workload, rule) {
			continue
		}
		candidates = append(candidates, Score(wo, tech, workload, rule, now))
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Composite != candidates[j].Composite {
			return candidates[i].Composite > candidates[j].Composite
		}
		if candidates[i].CurrentWorkload != candidates[j].CurrentWorkload {
			return candidates[i].CurrentWorkload < candidates[j].CurrentWorkload
		}
		return candidates[i].TechnicianID < candidates[j].TechnicianID
	})

	return candidates
}

// SelectBest returns the top-ranked candidate for the work order, or nil
// when no technician survives filtering.
func SelectBest(wo WorkOrder, technicians []Technician, workloadByTechnician map[string]int, rule Rule, now time.Time) *Candidate {
	ranked := RankCandidates(wo, technicians, workloadByTechnician, rule, now)
	if len(ranked) == 0 {
		return nil
	}
	return &ranked[0]
}
