package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iwvelando/deal-calculator/internal/config"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/internal/logging"
	"github.com/iwvelando/deal-calculator/internal/vat"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/mortgage"
	"github.com/iwvelando/deal-calculator/pkg/output"
	"github.com/iwvelando/deal-calculator/pkg/validation"
	"go.uber.org/zap"
)

type report struct {
	Deal     deal.CalculationResult `json:"deal"`
	Mortgage *mortgage.Summary      `json:"mortgage,omitempty"`
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to deal file")
	envFile := flag.String("env-file", constants.DefaultEnvFile, "dotenv file with DEAL_* overrides")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, html, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	showSchedule := flag.Bool("schedule", false, "print the full mortgage schedule with pretty output")
	flag.Parse()

	if _, err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

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

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	vatRate := conf.VATFallbackRate()
	if conf.Deal.VATRate == nil {
		client := vat.NewClient(logger, conf.VAT.SourceURL,
			time.Duration(conf.VAT.TimeoutSeconds)*time.Second, conf.VATFallbackRate())
		vatRate = client.Current(context.Background())
	}

	result := deal.Calculate(logger, conf.Deal.ToDeal(vatRate))

	var summary *mortgage.Summary
	if conf.Mortgage != nil && conf.Mortgage.Validate() == nil {
		s, err := mortgage.NewScheduleGenerator(logger).Summarize(*conf.Mortgage)
		if err != nil {
			logger.Fatal("failed to compute mortgage schedule",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		summary = &s
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, result)
		if summary != nil {
			fmt.Println()
			output.PrettyMortgage(os.Stdout, *summary, *showSchedule)
		}
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, result)
	case constants.OutputFormatHTML:
		err = output.HTMLFormat(os.Stdout, result)
	case constants.OutputFormatJSON:
		err = output.JSONFormat(os.Stdout, report{Deal: result, Mortgage: summary})
	}
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.String("format", outputFormat),
			zap.Error(err),
		)
	}
}
