// Package constants provides shared constants for the airline-analytics application.
package constants

// Overbooking defaults
const (
	// DefaultCapacity is the number of seats on the reference aircraft
	DefaultCapacity = 120

	// DefaultShowUpProbability is the probability a ticketed passenger boards
	DefaultShowUpProbability = 0.88

	// DefaultMaxSales is the upper bound of the evaluated sales range
	DefaultMaxSales = 140

	// DefaultSold is the sales count highlighted as the current decision
	DefaultSold = 130

	// DefaultRiskCeiling is the maximum acceptable overbooking probability (7%)
	DefaultRiskCeiling = 0.07
)

// ROI simulation defaults
const (
	DefaultInvestment         = 50000.0
	DefaultExpectedRevenue    = 80000.0
	DefaultOperationalCost    = 10000.0
	DefaultSuccessProbability = 0.7
	DefaultSampleSize         = 5000

	// DefaultSuccessRevenueSpread is the standard deviation of revenue when the project succeeds
	DefaultSuccessRevenueSpread = 5000.0

	// DefaultFailureRevenueSpread is the standard deviation of revenue when the project underperforms
	DefaultFailureRevenueSpread = 7000.0

	// DefaultFailureRevenueFactor scales expected revenue in the failure branch
	DefaultFailureRevenueFactor = 0.75

	// DefaultHistogramBins is the number of equal-width ROI bins reported
	DefaultHistogramBins = 30
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. AIRLINE_ROI_INVESTMENT
	EnvPrefix = "AIRLINE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML scenarios (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultMaxSampleSize caps simulation draws per request
	DefaultMaxSampleSize = 1000000

	// DefaultMaxSalesSpan caps the number of points on a requested risk curve
	DefaultMaxSalesSpan = 10000

	// DefaultMaxHistogramBins caps the ROI histogram bins per request
	DefaultMaxHistogramBins = 1000
)

// Numeric constants
const (
	// DecimalPlaces is the precision for currency rounding
	DecimalPlaces = 2

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
