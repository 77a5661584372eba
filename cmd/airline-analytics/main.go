package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/airline-analytics/internal/config"
	"github.com/iwvelando/airline-analytics/internal/logging"
	"github.com/iwvelando/airline-analytics/internal/report"
	"github.com/iwvelando/airline-analytics/pkg/constants"
	"github.com/iwvelando/airline-analytics/pkg/output"
	"github.com/iwvelando/airline-analytics/pkg/validation"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	seedFlag := flag.Uint64("seed", 0, "seed for the ROI simulation, overrides roi.seed")
	soldFlag := flag.Int("sold", 0, "tickets sold to evaluate, overrides overbooking.sold")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if flag.CommandLine.Changed("seed") {
		seed := *seedFlag
		conf.ROI.Seed = &seed
	}
	if flag.CommandLine.Changed("sold") {
		conf.Overbooking.Sold = *soldFlag
	}

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := report.Evaluate(ctx, logger, *conf, report.ResolveSeed(conf.ROI.Seed))
	if err != nil {
		logger.Fatal("failed to evaluate scenario",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(result)
	case constants.OutputFormatCSV:
		output.CsvFormat(result)
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(result); err != nil {
			logger.Fatal("failed to write JSON report",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
