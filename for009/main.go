package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	for009 "github.com/mice-software/for009_go/pkg"
	"github.com/mice-software/for009_go/pkg/h5"
)

var configuration for009.Configuration

var (
	logger         for009.SlogLogger
	VerbosityLevel int
)

func init() {
	logger = for009.NewSlogLogger(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = for009.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	for009.SetConfiguration(configuration)
	for009.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		for009.PrintConfiguration(configuration, logger)
	}

	start := time.Now()
	if err := run(configuration); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if VerbosityLevel > 0 {
		duration := time.Since(start)
		logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "main")
	}
}

func run(config for009.Configuration) error {
	cuts, err := for009.LoadCuts(config)
	if err != nil {
		return fmt.Errorf("error loading cuts: %w", err)
	}
	if err := cuts.Validate(); err != nil {
		return err
	}
	// Cuts read from the database replace the configured ones
	config.SetCuts(cuts)

	if VerbosityLevel > 0 {
		nSpills, err := h5.CountSpills(config.FileIn)
		if err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Number of spills: %d", nSpills), "main")
	}

	files := for009.NewOutputFiles(config.OutputDir)
	stats, err := extract(config, cuts, files)
	if err != nil {
		return err
	}
	if VerbosityLevel > 0 {
		for009.PrintStats(stats, logger)
	}

	if !config.PostProcess {
		return nil
	}
	if err := for009.PostProcess(files); err != nil {
		return fmt.Errorf("error post-processing: %w", err)
	}

	if config.WriteHDF5 {
		if err := exportHDF5(config, cuts, files.Merged); err != nil {
			return err
		}
	}
	return nil
}

func extract(config for009.Configuration, cuts for009.Cuts, files for009.OutputFiles) (stats for009.ExtractStats, err error) {
	source, err := h5.NewReader(config.FileIn)
	if err != nil {
		return stats, err
	}
	reader := for009.NewSpillReader(source, config.Skip, config.MaxSpills)

	usWriter, err := for009.NewWriter(files.Upstream)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := usWriter.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	dsWriter, err := for009.NewWriter(files.Downstream)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := dsWriter.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	extractor := for009.NewExtractor(cuts, usWriter, dsWriter)
	extractor.PhysicsEventType = config.PhysicsEventType
	return extractor.Run(reader)
}

func exportHDF5(config for009.Configuration, cuts for009.Cuts, merged string) error {
	file, err := os.Open(merged)
	if err != nil {
		return &for009.ErrOpenFile{Filename: merged, Err: err}
	}
	defer file.Close()

	records, err := for009.ReadRecords(file)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", merged, err)
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Writing %d rows to %s", len(records), config.FileOutHDF5)
		logger.Info(message, "main")
	}
	return h5.ExportRecords(config.FileOutHDF5, records, cuts, config.CompressionLevel)
}
