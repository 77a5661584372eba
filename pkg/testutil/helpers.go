// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/airline-analytics/internal/overbooking"
	"github.com/iwvelando/airline-analytics/internal/roi"
)

// FindScenario finds a scenario by name.
// Returns a pointer to the scenario if found, nil otherwise.
func FindScenario(scenarios []roi.Scenario, name string) *roi.Scenario {
	for i := range scenarios {
		if scenarios[i].Name == name {
			return &scenarios[i]
		}
	}
	return nil
}

// CurveIsMonotone reports the first sales count at which the curve decreases,
// or ok=true when it never does.
func CurveIsMonotone(curve overbooking.Curve) (sales int, ok bool) {
	for i := 1; i < len(curve); i++ {
		if curve[i].Probability < curve[i-1].Probability {
			return curve[i].Sales, false
		}
	}
	return 0, true
}
