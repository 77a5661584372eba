// Package config defines the data structures related to configuration and
// includes functions for loading the scenario file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/airline-analytics/internal/overbooking"
	"github.com/iwvelando/airline-analytics/internal/roi"
	"github.com/iwvelando/airline-analytics/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for airline-analytics.
type Configuration struct {
	Overbooking OverbookingConfig `yaml:"overbooking" json:"overbooking"`
	ROI         ROIConfig         `yaml:"roi" json:"roi"`
	Logging     LoggingConfig     `yaml:"logging,omitempty" json:"logging,omitempty"`
	Output      OutputConfig      `yaml:"output,omitempty" json:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // pretty, csv, json
}

// OverbookingConfig holds the flight being evaluated.
type OverbookingConfig struct {
	Capacity          int     `yaml:"capacity" json:"capacity"`
	ShowUpProbability float64 `yaml:"showUpProbability" json:"showUpProbability"`
	MaxSales          int     `yaml:"maxSales" json:"maxSales"`
	Sold              int     `yaml:"sold" json:"sold"` // sales count highlighted in the report
	RiskCeiling       float64 `yaml:"riskCeiling" json:"riskCeiling"`
}

// ROIConfig holds the investment scenario being simulated.
type ROIConfig struct {
	Investment           float64 `yaml:"investment" json:"investment"`
	ExpectedRevenue      float64 `yaml:"expectedRevenue" json:"expectedRevenue"`
	OperationalCost      float64 `yaml:"operationalCost" json:"operationalCost"`
	SuccessProbability   float64 `yaml:"successProbability" json:"successProbability"`
	SampleSize           int     `yaml:"sampleSize" json:"sampleSize"`
	SuccessRevenueSpread float64 `yaml:"successRevenueSpread" json:"successRevenueSpread"`
	FailureRevenueSpread float64 `yaml:"failureRevenueSpread" json:"failureRevenueSpread"`
	FailureRevenueFactor float64 `yaml:"failureRevenueFactor" json:"failureRevenueFactor"`
	Bins                 int     `yaml:"bins" json:"bins"`

	// RevenueThreshold defaults to Investment + OperationalCost, the revenue
	// needed to pay back the investment.
	RevenueThreshold *float64 `yaml:"revenueThreshold,omitempty" json:"revenueThreshold,omitempty"`

	// Seed fixes the random source. When unset every run draws a new seed.
	Seed *uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r, applying the
// same defaults and environment overrides as LoadConfiguration.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file overrides anything.
func Default() Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return *conf
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without defaults are only visible to Unmarshal once bound.
	_ = v.BindEnv("roi.seed")
	_ = v.BindEnv("roi.revenueThreshold")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// setDefaults mirrors the reference dashboard values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("overbooking.capacity", constants.DefaultCapacity)
	v.SetDefault("overbooking.showUpProbability", constants.DefaultShowUpProbability)
	v.SetDefault("overbooking.maxSales", constants.DefaultMaxSales)
	v.SetDefault("overbooking.sold", constants.DefaultSold)
	v.SetDefault("overbooking.riskCeiling", constants.DefaultRiskCeiling)

	v.SetDefault("roi.investment", constants.DefaultInvestment)
	v.SetDefault("roi.expectedRevenue", constants.DefaultExpectedRevenue)
	v.SetDefault("roi.operationalCost", constants.DefaultOperationalCost)
	v.SetDefault("roi.successProbability", constants.DefaultSuccessProbability)
	v.SetDefault("roi.sampleSize", constants.DefaultSampleSize)
	v.SetDefault("roi.successRevenueSpread", constants.DefaultSuccessRevenueSpread)
	v.SetDefault("roi.failureRevenueSpread", constants.DefaultFailureRevenueSpread)
	v.SetDefault("roi.failureRevenueFactor", constants.DefaultFailureRevenueFactor)
	v.SetDefault("roi.bins", constants.DefaultHistogramBins)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", constants.OutputFormatPretty)
}

// Parameters converts the overbooking block into model parameters.
func (c OverbookingConfig) Parameters() overbooking.Parameters {
	return overbooking.Parameters{
		Capacity:          c.Capacity,
		ShowUpProbability: c.ShowUpProbability,
		MaxSales:          c.MaxSales,
	}
}

// Inputs converts the ROI block into simulator inputs.
func (c ROIConfig) Inputs() roi.Inputs {
	return roi.Inputs{
		Investment:           c.Investment,
		ExpectedRevenue:      c.ExpectedRevenue,
		OperationalCost:      c.OperationalCost,
		SuccessProbability:   c.SuccessProbability,
		SampleSize:           c.SampleSize,
		SuccessRevenueSpread: c.SuccessRevenueSpread,
		FailureRevenueSpread: c.FailureRevenueSpread,
		FailureRevenueFactor: c.FailureRevenueFactor,
	}
}

// Threshold returns the configured revenue threshold or the payback revenue.
func (c ROIConfig) Threshold() float64 {
	if c.RevenueThreshold != nil {
		return *c.RevenueThreshold
	}
	return c.Investment + c.OperationalCost
}

// ValidateConfiguration checks for settings that are legal but probably not
// what the user meant and returns them as warnings. Out-of-domain values are
// rejected later by the models themselves.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	ob := c.Overbooking
	if ob.Sold < ob.Capacity || ob.Sold > ob.MaxSales {
		warnings = append(warnings, fmt.Sprintf("Sold tickets %d are outside the evaluated sales range [%d, %d] - no current risk will be reported",
			ob.Sold, ob.Capacity, ob.MaxSales))
	}
	if ob.RiskCeiling <= 0 || ob.RiskCeiling >= 1 {
		warnings = append(warnings, fmt.Sprintf("Risk ceiling %.4f is not strictly between 0 and 1", ob.RiskCeiling))
	}

	r := c.ROI
	if r.RevenueThreshold != nil && *r.RevenueThreshold <= 0 {
		warnings = append(warnings, fmt.Sprintf("Revenue threshold %.2f is not positive - tail probability will be 0", *r.RevenueThreshold))
	}
	if r.SampleSize > constants.DefaultMaxSampleSize {
		warnings = append(warnings, fmt.Sprintf("Sample size %d exceeds %d - simulation may be slow", r.SampleSize, constants.DefaultMaxSampleSize))
	}
	if r.FailureRevenueFactor > 1 {
		warnings = append(warnings, fmt.Sprintf("Failure revenue factor %.2f exceeds 1 - the failure branch out-earns success", r.FailureRevenueFactor))
	}
	if r.Seed == nil {
		warnings = append(warnings, "No seed configured - simulation results will differ between runs")
	}

	return warnings
}
