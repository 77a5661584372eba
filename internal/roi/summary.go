package roi

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/airline-analytics/pkg/mathutil"
	"github.com/iwvelando/airline-analytics/pkg/validation"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the ROI distribution of one simulated sample.
type Summary struct {
	// ROIValues[i] is the ROI of sample[i], in sample order.
	ROIValues []float64 `json:"roiValues"`

	// RealisticROI is the direct-formula ROI at the expected revenue. It is
	// not derived from the sample.
	RealisticROI    float64 `json:"realisticRoi"`
	ExpectedRevenue float64 `json:"expectedRevenue"`
	MeanROI         float64 `json:"meanRoi"`
	MinROI          float64 `json:"minRoi"`
	MaxROI          float64 `json:"maxRoi"`
	MinRevenue      float64 `json:"minRevenue"`
	MaxRevenue      float64 `json:"maxRevenue"`

	RevenueThreshold float64 `json:"revenueThreshold"`
	// TailProbability is the fraction of draws with revenue below RevenueThreshold.
	TailProbability float64 `json:"tailProbability"`
	// LossProbability is the fraction of draws with negative ROI.
	LossProbability float64 `json:"lossProbability"`

	Percentiles Percentiles `json:"percentiles"`
}

// Percentiles of the simulated ROI.
type Percentiles struct {
	P5  float64 `json:"p5"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
}

// Scenario is one row of the optimistic / realistic / pessimistic table.
type Scenario struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
	ROI     float64 `json:"roi"`
}

// Scenario names.
const (
	ScenarioOptimistic  = "optimistic"
	ScenarioRealistic   = "realistic"
	ScenarioPessimistic = "pessimistic"
)

// Summarize converts every draw to an ROI percentage and computes the
// summary statistics. Only the cost fields of costs are read: Investment,
// OperationalCost and ExpectedRevenue.
func Summarize(sample Sample, costs Inputs, revenueThreshold float64) (Summary, error) {
	err := validation.First(
		validation.AtLeast("sample size", len(sample), 1),
		validation.Positive("investment", costs.Investment),
		validation.NonNegative("operationalCost", costs.OperationalCost),
		validation.Finite("expectedRevenue", costs.ExpectedRevenue),
		validation.Finite("revenueThreshold", revenueThreshold),
	)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}

	roiValues := make([]float64, len(sample))
	below, losses := 0, 0
	for i, revenue := range sample {
		roiValues[i] = roiPercent(revenue, costs.OperationalCost, costs.Investment)
		if revenue < revenueThreshold {
			below++
		}
		if roiValues[i] < 0 {
			losses++
		}
	}

	sorted := make([]float64, len(roiValues))
	copy(sorted, roiValues)
	sort.Float64s(sorted)

	return Summary{
		ROIValues:        roiValues,
		RealisticROI:     roiPercent(costs.ExpectedRevenue, costs.OperationalCost, costs.Investment),
		ExpectedRevenue:  costs.ExpectedRevenue,
		MeanROI:          stat.Mean(roiValues, nil),
		MinROI:           sorted[0],
		MaxROI:           sorted[len(sorted)-1],
		MinRevenue:       floats.Min(sample),
		MaxRevenue:       floats.Max(sample),
		RevenueThreshold: revenueThreshold,
		TailProbability:  mathutil.Fraction(below, len(sample)),
		LossProbability:  mathutil.Fraction(losses, len(sample)),
		Percentiles: Percentiles{
			P5:  stat.Quantile(0.05, stat.Empirical, sorted, nil),
			P50: stat.Quantile(0.50, stat.Empirical, sorted, nil),
			P95: stat.Quantile(0.95, stat.Empirical, sorted, nil),
		},
	}, nil
}

// Scenarios returns the optimistic, realistic and pessimistic rows: the
// largest simulated revenue, the expected revenue, and the smallest
// simulated revenue.
func (s Summary) Scenarios() []Scenario {
	return []Scenario{
		{Name: ScenarioOptimistic, Revenue: s.MaxRevenue, ROI: s.MaxROI},
		{Name: ScenarioRealistic, Revenue: s.ExpectedRevenue, ROI: s.RealisticROI},
		{Name: ScenarioPessimistic, Revenue: s.MinRevenue, ROI: s.MinROI},
	}
}

// MaxHistogramBins bounds the bin count accepted by Summary.Histogram.
const MaxHistogramBins = 10000

// Histogram counts ROI values in equal-width bins.
type Histogram struct {
	// Edges has len(Counts)+1 entries; bin i covers [Edges[i], Edges[i+1]).
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// Histogram buckets the ROI values into the given number of equal-width bins
// spanning [MinROI, MaxROI]. The maximum lands in the last bin.
func (s Summary) Histogram(bins int) (Histogram, error) {
	if err := validation.AtLeast("bins", bins, 1); err != nil {
		return Histogram{}, err
	}
	if bins > MaxHistogramBins {
		return Histogram{}, fmt.Errorf("%w: bins %d exceeds %d", validation.ErrInvalidParameter, bins, MaxHistogramBins)
	}
	if len(s.ROIValues) == 0 {
		return Histogram{}, fmt.Errorf("%w: histogram of an empty summary", validation.ErrInvalidParameter)
	}

	low, high := s.MinROI, s.MaxROI
	if low == high {
		low, high = low-0.5, high+0.5
	}
	edges := floats.Span(make([]float64, bins+1), low, high)

	// gonum wants the top divider strictly above the maximum.
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = math.Nextafter(high, math.Inf(1))

	sorted := make([]float64, len(s.ROIValues))
	copy(sorted, s.ROIValues)
	sort.Float64s(sorted)

	weighted := stat.Histogram(nil, dividers, sorted, nil)
	counts := make([]int, bins)
	for i, c := range weighted {
		counts[i] = int(c)
	}
	return Histogram{Edges: edges, Counts: counts}, nil
}
