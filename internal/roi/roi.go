// Package roi simulates the return on an IT investment whose revenue depends
// on whether the project succeeds, and summarizes the resulting distribution.
package roi

import (
	"fmt"

	"github.com/iwvelando/airline-analytics/pkg/mathutil"
	"github.com/iwvelando/airline-analytics/pkg/validation"
)

// Inputs holds the scenario for one simulation.
type Inputs struct {
	Investment         float64 `json:"investment"`
	ExpectedRevenue    float64 `json:"expectedRevenue"`
	OperationalCost    float64 `json:"operationalCost"`
	SuccessProbability float64 `json:"successProbability"`
	SampleSize         int     `json:"sampleSize"`

	// Standard deviations of revenue in each branch.
	SuccessRevenueSpread float64 `json:"successRevenueSpread"`
	FailureRevenueSpread float64 `json:"failureRevenueSpread"`

	// FailureRevenueFactor scales ExpectedRevenue when the project underperforms.
	FailureRevenueFactor float64 `json:"failureRevenueFactor"`
}

// Validate checks every field against its domain.
func (in Inputs) Validate() error {
	return validation.First(
		validation.Positive("investment", in.Investment),
		validation.AtLeast("sampleSize", in.SampleSize, 1),
		validation.Probability("successProbability", in.SuccessProbability),
		validation.Positive("expectedRevenue", in.ExpectedRevenue),
		validation.NonNegative("operationalCost", in.OperationalCost),
		validation.NonNegative("successRevenueSpread", in.SuccessRevenueSpread),
		validation.NonNegative("failureRevenueSpread", in.FailureRevenueSpread),
		validation.NonNegative("failureRevenueFactor", in.FailureRevenueFactor),
	)
}

// FailureMean is the centre of the revenue distribution when the project underperforms.
func (in Inputs) FailureMean() float64 {
	return in.ExpectedRevenue * in.FailureRevenueFactor
}

// PointROI returns (revenue - cost) / investment as a percentage.
func PointROI(revenue, cost, investment float64) (float64, error) {
	err := validation.First(
		validation.Positive("investment", investment),
		validation.Finite("revenue", revenue),
		validation.Finite("cost", cost),
	)
	if err != nil {
		return 0, fmt.Errorf("point ROI: %w", err)
	}
	return roiPercent(revenue, cost, investment), nil
}

// roiPercent is the single formula shared by PointROI and Summarize.
func roiPercent(revenue, cost, investment float64) float64 {
	return mathutil.Percent(revenue-cost, investment)
}
