// Package overbooking computes the probability that more ticketed passengers
// show up than there are seats, across a range of sales counts.
//
// Each passenger boards independently with a fixed probability, so the
// number of show-ups for n tickets sold is Binomial(n, p) and the risk of
// overbooking is its survival function evaluated at the aircraft capacity.
package overbooking

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/airline-analytics/pkg/mathutil"
	"github.com/iwvelando/airline-analytics/pkg/validation"
	"gonum.org/v1/gonum/mathext"
)

// MaxCurvePoints bounds the number of sales counts a single curve may cover.
const MaxCurvePoints = 1 << 20

// Parameters describes one evaluation. The sales range always starts at
// Capacity and ends at MaxSales inclusive.
type Parameters struct {
	Capacity          int     `json:"capacity"`
	ShowUpProbability float64 `json:"showUpProbability"`
	MaxSales          int     `json:"maxSales"`
}

// Validate checks the parameters against the model's domain.
func (p Parameters) Validate() error {
	return validation.First(
		validation.AtLeast("capacity", p.Capacity, 1),
		validation.OpenProbability("showUpProbability", p.ShowUpProbability),
		validation.AtLeast("maxSales", p.MaxSales, p.Capacity),
	)
}

// Point is the overbooking probability for one sales count.
type Point struct {
	Sales       int     `json:"sales"`
	Probability float64 `json:"probability"`
}

// Curve holds one Point per sales count in ascending order. Probabilities
// never decrease along the curve.
type Curve []Point

// At returns the point for the given sales count.
func (c Curve) At(sales int) (Point, bool) {
	if len(c) == 0 {
		return Point{}, false
	}
	i := sales - c[0].Sales
	if i < 0 || i >= len(c) || c[i].Sales != sales {
		return Point{}, false
	}
	return c[i], true
}

// ComputeCurve evaluates the overbooking probability for every sales count
// in [Capacity, MaxSales].
func ComputeCurve(params Parameters) (Curve, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Capacity >= 1 so the difference cannot overflow.
	span := params.MaxSales - params.Capacity
	if span >= MaxCurvePoints {
		return nil, fmt.Errorf("%w: sales range [%d, %d] exceeds %d points",
			validation.ErrInvalidParameter, params.Capacity, params.MaxSales, MaxCurvePoints)
	}

	points := span + 1
	curve := make(Curve, 0, points)
	previous := 0.0
	for i := 0; i < points; i++ {
		n := params.Capacity + i
		p := survival(params.Capacity, n, params.ShowUpProbability)
		// Clamp rounding noise from the incomplete beta so the curve stays monotone.
		if p < previous {
			p = previous
		}
		curve = append(curve, Point{Sales: n, Probability: p})
		previous = p
	}
	return curve, nil
}

// Probability returns the overbooking probability when sold tickets are sold
// on an aircraft with the given capacity.
func Probability(capacity, sold int, showUpProbability float64) (float64, error) {
	params := Parameters{Capacity: capacity, ShowUpProbability: showUpProbability, MaxSales: sold}
	if err := params.Validate(); err != nil {
		return 0, fmt.Errorf("sold %d: %w", sold, err)
	}
	return survival(capacity, sold, showUpProbability), nil
}

// survival returns P(X > capacity) for X ~ Binomial(n, p).
//
// The upper tail is the regularized incomplete beta I_p(capacity+1, n-capacity)
// which keeps full relative precision where 1-CDF would cancel.
func survival(capacity, n int, p float64) float64 {
	if n <= capacity {
		return 0
	}
	if p == 1 {
		return 1
	}
	k := float64(capacity)
	return mathutil.Clamp01(mathext.RegIncBeta(k+1, float64(n)-k, p))
}

// FindSafeLimit returns the largest sales count whose overbooking
// probability does not exceed ceiling. ok is false when no point on the
// curve satisfies the ceiling, including the capacity itself.
func FindSafeLimit(curve Curve, ceiling float64) (limit int, ok bool) {
	if math.IsNaN(ceiling) {
		return 0, false
	}
	// First index whose probability breaks the ceiling; valid because the
	// curve is non-decreasing.
	i := sort.Search(len(curve), func(i int) bool {
		return curve[i].Probability > ceiling
	})
	if i == 0 {
		return 0, false
	}
	return curve[i-1].Sales, true
}
