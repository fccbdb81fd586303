// Package assign property-based tests. These verify universal properties of
// the scoring engine that should hold across all valid inputs, not just the
// hand-picked examples in the unit tests.
package assign

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genCoordinates() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
	).Map(func(values []interface{}) Coordinates {
		return Coordinates{Lat: values[0].(float64), Lng: values[1].(float64)}
	})
}

func genWeights() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	).Map(func(values []interface{}) Weights {
		return Weights{
			Availability:   values[0].(float64),
			Specialization: values[1].(float64),
			Proximity:      values[2].(float64),
			Workload:       values[3].(float64),
			Performance:    values[4].(float64),
		}
	})
}

// TestProperty_CompositeScoreBounded verifies that no combination of inputs
// can push a candidate's scores outside [0, 100].
func TestProperty_CompositeScoreBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("all scores stay within [0, 100]", prop.ForAll(
		func(weights Weights, techCoords, woCoords Coordinates, workload int, hasCoords bool) bool {
			wo := WorkOrder{ID: "wo-1"}
			tech := Technician{ID: "tech-1", Active: true}
			if hasCoords {
				wo.Coords = &woCoords
				tech.Coords = &techCoords
			}

			c := Score(wo, tech, workload, Rule{ID: 1, Weights: weights}, time.Now())

			inRange := func(v float64) bool { return v >= 0 && v <= 100 }
			return inRange(c.Composite) &&
				inRange(c.Availability) &&
				inRange(c.Specialization) &&
				inRange(c.Proximity) &&
				inRange(c.Workload) &&
				inRange(c.Performance)
		},
		genWeights(),
		genCoordinates(),
		genCoordinates(),
		gen.IntRange(0, 50),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestProperty_HaversineDistance verifies the metric properties of the
// distance function: symmetry, zero self-distance, non-negativity.
func TestProperty_HaversineDistance(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("distance is symmetric", prop.ForAll(
		func(a, b Coordinates) bool {
			d1 := HaversineKM(a, b)
			d2 := HaversineKM(b, a)
			diff := d1 - d2
			if diff < 0 {
				diff = -diff
			}
			return diff < 1e-6
		},
		genCoordinates(),
		genCoordinates(),
	))

	properties.Property("self-distance is zero", prop.ForAll(
		func(a Coordinates) bool {
			return HaversineKM(a, a) == 0
		},
		genCoordinates(),
	))

	properties.Property("distance is never negative", prop.ForAll(
		func(a, b Coordinates) bool {
			return HaversineKM(a, b) >= 0
		},
		genCoordinates(),
		genCoordinates(),
	))

	properties.TestingRun(t)
}

// TestProperty_CapacityFilterExcludesFullTechnicians verifies that a
// technician at or over their concurrent-order cap is never ranked when the
// rule enforces capacity.
func TestProperty_CapacityFilterExcludesFullTechnicians(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("technicians at capacity never appear among candidates", prop.ForAll(
		func(capacity, overage int) bool {
			workload := capacity + overage
			tech := Technician{ID: "tech-1", Active: true, MaxConcurrentOrders: &capacity}
			rule := Rule{Weights: standardWeights(), RespectMaxConcurrentOrders: true}

			ranked := RankCandidates(WorkOrder{}, []Technician{tech},
				map[string]int{"tech-1": workload}, rule, time.Now())
			return len(ranked) == 0
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// TestProperty_MaxDistanceFilterExcludesFarTechnicians verifies the hard
// distance cut-off agrees with the haversine distance.
func TestProperty_MaxDistanceFilterExcludesFarTechnicians(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("candidates beyond max distance are excluded, within are kept", prop.ForAll(
		func(woCoords, techCoords Coordinates, maxDistance float64) bool {
			wo := WorkOrder{Coords: &woCoords}
			tech := Technician{ID: "tech-1", Active: true, Coords: &techCoords}
			rule := Rule{Weights: standardWeights(), MaxDistanceKM: &maxDistance}

			ranked := RankCandidates(wo, []Technician{tech}, nil, rule, time.Now())
			beyond := HaversineKM(techCoords, woCoords) > maxDistance
			if beyond {
				return len(ranked) == 0
			}
			return len(ranked) == 1
		},
		genCoordinates(),
		genCoordinates(),
		gen.Float64Range(1, 500),
	))

	properties.TestingRun(t)
}

// TestProperty_RankingIsDeterministic verifies that ranking the same pool
// twice yields the identical order, which the orchestrator depends on for
// reproducible audit trails.
func TestProperty_RankingIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genPool := gen.SliceOfN(5, genCoordinates()).Map(func(coords []Coordinates) []Technician {
		pool := make([]Technician, len(coords))
		for i := range coords {
			c := coords[i]
			pool[i] = Technician{
				ID:     string(rune('a' + i)),
				Active: true,
				Coords: &c,
			}
		}
		return pool
	})

	properties.Property("ranking the same inputs twice yields the same order", prop.ForAll(
		func(pool []Technician, woCoords Coordinates, weights Weights) bool {
			wo := WorkOrder{Coords: &woCoords}
			rule := Rule{Weights: weights}
			now := time.Now()

			first := RankCandidates(wo, pool, nil, rule, now)
			second := RankCandidates(wo, pool, nil, rule, now)

			if len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i].TechnicianID != second[i].TechnicianID {
					return false
				}
				if first[i].Composite != second[i].Composite {
					return false
				}
			}
			return true
		},
		genPool,
		genCoordinates(),
		genWeights(),
	))

	properties.TestingRun(t)
}
