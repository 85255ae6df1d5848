package main

import (
	"flag"
	"fmt"
	"os"

	for009 "github.com/mice-software/for009_go/pkg"
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	dir := flag.String("dir", "", "Directory with for009_US.dat and for009_DS.dat, overrides output_dir")
	flag.Parse()

	logger := for009.NewSlogLogger(os.Stdout, os.Stderr)
	for009.SetLogger(logger)

	configuration := for009.DefaultConfiguration()
	if *configFilename != "" {
		var err error
		configuration, err = for009.LoadConfiguration(*configFilename)
		if err != nil {
			message := fmt.Errorf("Error reading configuration file: %w", err)
			logger.Error(message.Error())
			os.Exit(1)
		}
	}
	if *dir != "" {
		configuration.OutputDir = *dir
	}
	for009.SetConfiguration(configuration)

	files := for009.NewOutputFiles(configuration.OutputDir)
	if err := for009.PostProcess(files); err != nil {
		logger.Error(fmt.Errorf("error post-processing: %w", err).Error())
		os.Exit(1)
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Written %s", files.Merged), "main")
	}
}
