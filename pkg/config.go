package for009

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Configuration struct {
	FileIn           string  `json:"file_in" yaml:"file_in"`
	OutputDir        string  `json:"output_dir" yaml:"output_dir"`
	TofMin           float64 `json:"tof_min" yaml:"tof_min"`
	TofMax           float64 `json:"tof_max" yaml:"tof_max"`
	PlaneNumber      int     `json:"plane_number" yaml:"plane_number"`
	MomentumMin      float64 `json:"momentum_min" yaml:"momentum_min"`
	MomentumMax      float64 `json:"momentum_max" yaml:"momentum_max"`
	PhysicsEventType string  `json:"physics_event_type" yaml:"physics_event_type"`
	Verbosity        int     `json:"verbosity" yaml:"verbosity"`
	Skip             int     `json:"skip" yaml:"skip"`
	MaxSpills        int     `json:"max_spills" yaml:"max_spills"`
	NoDB             bool    `json:"no_db" yaml:"no_db"`
	DBDriver         string  `json:"db_driver" yaml:"db_driver"`
	Host             string  `json:"host" yaml:"host"`
	User             string  `json:"user" yaml:"user"`
	Passwd           string  `json:"pass" yaml:"pass"`
	DBName           string  `json:"dbname" yaml:"dbname"`
	RunNumber        int     `json:"run_number" yaml:"run_number"`
	PostProcess      bool    `json:"postprocess" yaml:"postprocess"`
	WriteHDF5        bool    `json:"write_hdf5" yaml:"write_hdf5"`
	FileOutHDF5      string  `json:"file_out_hdf5" yaml:"file_out_hdf5"`
	CompressionLevel int     `json:"compression_level" yaml:"compression_level"`
}

// Cuts are the data-quality and PID selection parameters of one extraction pass.
type Cuts struct {
	TofMin      float64 `hdf5:"tof_min"`
	TofMax      float64 `hdf5:"tof_max"`
	PlaneNumber int     `hdf5:"plane_number"`
	MomentumMin float64 `hdf5:"momentum_min"`
	MomentumMax float64 `hdf5:"momentum_max"`
}

func (c Cuts) Validate() error {
	if !(c.TofMin < c.TofMax) {
		return &ErrInvalidCuts{Reason: fmt.Sprintf("tof_min (%g) must be lower than tof_max (%g)", c.TofMin, c.TofMax)}
	}
	if !(c.MomentumMin < c.MomentumMax) {
		return &ErrInvalidCuts{Reason: fmt.Sprintf("momentum_min (%g) must be lower than momentum_max (%g)", c.MomentumMin, c.MomentumMax)}
	}
	if c.PlaneNumber < 0 || c.PlaneNumber > 2 {
		return &ErrInvalidCuts{Reason: fmt.Sprintf("plane_number must be 0, 1 or 2, got %d", c.PlaneNumber)}
	}
	return nil
}

func (c Configuration) Cuts() Cuts {
	return Cuts{
		TofMin:      c.TofMin,
		TofMax:      c.TofMax,
		PlaneNumber: c.PlaneNumber,
		MomentumMin: c.MomentumMin,
		MomentumMax: c.MomentumMax,
	}
}

func (c *Configuration) SetCuts(cuts Cuts) {
	c.TofMin = cuts.TofMin
	c.TofMax = cuts.TofMax
	c.PlaneNumber = cuts.PlaneNumber
	c.MomentumMin = cuts.MomentumMin
	c.MomentumMax = cuts.MomentumMax
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

func DefaultConfiguration() Configuration {
	var config Configuration

	// Set default values
	config.OutputDir = "."
	config.TofMin = 28
	config.TofMax = 31
	config.PlaneNumber = 2
	config.MomentumMin = 130
	config.MomentumMax = 150
	config.PhysicsEventType = PHYSICS_EVENT
	config.Verbosity = 0
	config.Skip = 0
	config.MaxSpills = 1000000000
	config.NoDB = true
	config.DBDriver = "mysql"
	config.Host = "localhost"
	config.User = "micereader"
	config.Passwd = "readonly"
	config.DBName = "MICE"
	config.RunNumber = 0
	config.PostProcess = true
	config.WriteHDF5 = false
	config.FileOutHDF5 = "for009.h5"
	config.CompressionLevel = 4
	return config
}

// LoadConfiguration reads a JSON (or YAML, by extension) file on top of the defaults.
func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, fmt.Errorf("error decoding %s: %w", filename, err)
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("Output dir: %s", config.OutputDir), "config")
	logger.Info(fmt.Sprintf("TOF window: (%g, %g) ns", config.TofMin, config.TofMax), "config")
	logger.Info(fmt.Sprintf("Plane number: %d", config.PlaneNumber), "config")
	logger.Info(fmt.Sprintf("Momentum window: (%g, %g) MeV/c", config.MomentumMin, config.MomentumMax), "config")
	logger.Info(fmt.Sprintf("Physics event type: %s", config.PhysicsEventType), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max spills: %d", config.MaxSpills), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Post-process: %t", config.PostProcess), "config")
	logger.Info(fmt.Sprintf("Write HDF5: %t", config.WriteHDF5), "config")
	logger.Info(fmt.Sprintf("File out HDF5: %s", config.FileOutHDF5), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
}
