// Package report evaluates a configured scenario with the overbooking model
// and the ROI simulator and collects their outputs for rendering.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/airline-analytics/internal/config"
	"github.com/iwvelando/airline-analytics/internal/overbooking"
	"github.com/iwvelando/airline-analytics/internal/roi"
	"go.uber.org/zap"
)

// Report holds everything a presentation layer needs for one scenario.
type Report struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Seed        uint64            `json:"seed"`
	Overbooking OverbookingReport `json:"overbooking"`
	ROI         ROIReport         `json:"roi"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// OverbookingReport is the risk curve and the decisions derived from it.
type OverbookingReport struct {
	Parameters  overbooking.Parameters `json:"parameters"`
	RiskCeiling float64                `json:"riskCeiling"`
	Curve       overbooking.Curve      `json:"curve"`

	// SafeLimit is nil when no sales count meets the ceiling.
	SafeLimit         *int `json:"safeLimit"`
	SafeLimitFeasible bool `json:"safeLimitFeasible"`

	// SoldRisk is nil when Sold lies outside the curve.
	Sold     int      `json:"sold"`
	SoldRisk *float64 `json:"soldRisk"`
}

// ROIReport is the simulated ROI distribution for the investment.
type ROIReport struct {
	Inputs    roi.Inputs     `json:"inputs"`
	Summary   roi.Summary    `json:"summary"`
	Scenarios []roi.Scenario `json:"scenarios"`
	Histogram roi.Histogram  `json:"histogram"`
}

// ResolveSeed returns the configured seed or a fresh one derived from the clock.
func ResolveSeed(configured *uint64) uint64 {
	if configured != nil {
		return *configured
	}
	return uint64(time.Now().UnixNano())
}

// Evaluate runs both models for conf. The simulation draws from a source
// seeded with seed, which is recorded on the report.
func Evaluate(ctx context.Context, logger *zap.Logger, conf config.Configuration, seed uint64) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	ob, err := EvaluateOverbooking(conf.Overbooking)
	if err != nil {
		return nil, err
	}
	logger.Debug("overbooking curve computed",
		zap.String("op", "report.Evaluate"),
		zap.Int("points", len(ob.Curve)),
		zap.Bool("feasible", ob.SafeLimitFeasible),
	)

	r, err := EvaluateROI(ctx, conf.ROI, seed)
	if err != nil {
		return nil, err
	}
	logger.Debug("roi simulation summarized",
		zap.String("op", "report.Evaluate"),
		zap.Int("samples", len(r.Summary.ROIValues)),
		zap.Uint64("seed", seed),
	)

	result := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: start.UTC(),
		Seed:        seed,
		Overbooking: *ob,
		ROI:         *r,
		Warnings:    conf.ValidateConfiguration(),
	}

	logger.Info("report evaluated",
		zap.String("op", "report.Evaluate"),
		zap.String("id", result.ID),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// EvaluateOverbooking computes the curve, the safe limit and the risk at the
// configured sales count.
func EvaluateOverbooking(c config.OverbookingConfig) (*OverbookingReport, error) {
	curve, err := overbooking.ComputeCurve(c.Parameters())
	if err != nil {
		return nil, fmt.Errorf("overbooking curve: %w", err)
	}

	result := &OverbookingReport{
		Parameters:  c.Parameters(),
		RiskCeiling: c.RiskCeiling,
		Curve:       curve,
		Sold:        c.Sold,
	}
	if limit, ok := overbooking.FindSafeLimit(curve, c.RiskCeiling); ok {
		result.SafeLimit = &limit
		result.SafeLimitFeasible = true
	}
	if point, ok := curve.At(c.Sold); ok {
		risk := point.Probability
		result.SoldRisk = &risk
	}
	return result, nil
}

// EvaluateROI simulates the investment and summarizes the distribution.
func EvaluateROI(ctx context.Context, c config.ROIConfig, seed uint64) (*ROIReport, error) {
	inputs := c.Inputs()
	sample, err := roi.Simulate(ctx, inputs, roi.NewSource(seed))
	if err != nil {
		return nil, fmt.Errorf("roi simulation: %w", err)
	}

	summary, err := roi.Summarize(sample, inputs, c.Threshold())
	if err != nil {
		return nil, fmt.Errorf("roi summary: %w", err)
	}

	hist, err := summary.Histogram(c.Bins)
	if err != nil {
		return nil, fmt.Errorf("roi histogram: %w", err)
	}

	return &ROIReport{
		Inputs:    inputs,
		Summary:   summary,
		Scenarios: summary.Scenarios(),
		Histogram: hist,
	}, nil
}
