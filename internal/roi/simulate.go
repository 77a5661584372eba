package roi

import (
	"context"
	"fmt"

	"github.com/iwvelando/airline-analytics/pkg/validation"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// cancelCheckInterval is how many draws run between context checks.
const cancelCheckInterval = 4096

// Sample is one simulated revenue per trial. Each call to Simulate returns a
// fresh slice owned by the caller.
type Sample []float64

// NewSource returns a seeded random source for Simulate.
func NewSource(seed uint64) rand.Source {
	return rand.NewSource(seed)
}

// Simulate draws in.SampleSize revenues from a two-branch mixture: with
// probability in.SuccessProbability the project succeeds and revenue is
// Normal(ExpectedRevenue, SuccessRevenueSpread), otherwise it is
// Normal(ExpectedRevenue*FailureRevenueFactor, FailureRevenueSpread).
//
// All randomness comes from src, so a fixed seed reproduces the sample.
func Simulate(ctx context.Context, in Inputs, src rand.Source) (Sample, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: random source is required", validation.ErrInvalidParameter)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	outcome := distuv.Bernoulli{P: in.SuccessProbability, Src: src}
	success := distuv.Normal{Mu: in.ExpectedRevenue, Sigma: in.SuccessRevenueSpread, Src: src}
	failure := distuv.Normal{Mu: in.FailureMean(), Sigma: in.FailureRevenueSpread, Src: src}

	sample := make(Sample, in.SampleSize)
	for i := range sample {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if outcome.Rand() == 1 {
			sample[i] = success.Rand()
		} else {
			sample[i] = failure.Rand()
		}
	}
	return sample, nil
}
