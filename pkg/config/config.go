// Package config loads the tool's settings from an optional JSON file, with
// SWEEPLABEL_* environment overrides, and knows the folder conventions under
// the working root (videos/<id>, exports/<id>, datasets/<id1>-<id2>).
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/storage"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/spf13/viper"
)

// DefaultFilename is looked for in the current directory when no config file is specified
const DefaultFilename = "sweeplabel.json"

const EnvPrefix = "SWEEPLABEL"

type Config struct {
	Root           string            `json:"root" mapstructure:"root"`                 // Parent of videos, exports and datasets
	WindowWidth    int               `json:"windowWidth" mapstructure:"windowWidth"`   // Width of the interactive windows
	TrainRatio     float64           `json:"trainRatio" mapstructure:"trainRatio"`     // Probability of a verified image going to the train split
	FetchWorkers   int               `json:"fetchWorkers" mapstructure:"fetchWorkers"` // Concurrent downloads
	Journal        string            `json:"journal" mapstructure:"journal"`           // Review journal database. Defaults to {root}/review.sqlite
	Calibration    CalibrationConfig `json:"calibration" mapstructure:"calibration"`
	VideoStorage   StorageConfig     `json:"videoStorage" mapstructure:"videoStorage"`
	DatasetStorage StorageConfig     `json:"datasetStorage" mapstructure:"datasetStorage"`
}

// CalibrationConfig is the starting calibration of videos that have no sidecar file
type CalibrationConfig struct {
	Radius         float64 `json:"radius" mapstructure:"radius"`
	MaxAngle       float64 `json:"maxAngle" mapstructure:"maxAngle"`
	ExportInterval int     `json:"exportInterval" mapstructure:"exportInterval"`
	ExportOffset   int     `json:"exportOffset" mapstructure:"exportOffset"`
}

// One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')
type StorageConfig struct {
	Filesystem *StorageConfigFS  `json:"filesystem" mapstructure:"filesystem"`
	GCS        *StorageConfigGCS `json:"gcs" mapstructure:"gcs"`
}

type StorageConfigFS struct {
	Root string `json:"root" mapstructure:"root"` // Path to the root of the filesystem
}

type StorageConfigGCS struct {
	Bucket string `json:"bucket" mapstructure:"bucket"` // Name of the GCS bucket
}

// Load reads the config file (if filename is empty, DefaultFilename is used if
// it exists), applies defaults, and then environment overrides.
func Load(filename string) (*Config, error) {
	v := viper.New()
	defaults := sweep.DefaultCalibrationParams()
	v.SetDefault("root", ".")
	v.SetDefault("windowWidth", 1280)
	v.SetDefault("trainRatio", 0.8)
	v.SetDefault("fetchWorkers", storage.DefaultFetchWorkers)
	v.SetDefault("journal", "")
	v.SetDefault("calibration.radius", defaults.Radius)
	v.SetDefault("calibration.maxAngle", defaults.MaxAngle)
	v.SetDefault("calibration.exportInterval", defaults.ExportInterval)
	v.SetDefault("calibration.exportOffset", defaults.ExportOffset)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("json")
	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("Error reading config file %v: %w", filename, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFilename, ".json"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("Error reading config file %v: %w", DefaultFilename, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("Invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.WindowWidth <= 0 {
		return fmt.Errorf("windowWidth must be positive (got %v)", c.WindowWidth)
	}
	if c.TrainRatio < 0 || c.TrainRatio > 1 {
		return fmt.Errorf("trainRatio must be between 0 and 1 (got %v)", c.TrainRatio)
	}
	if err := c.CalibrationParams().Validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) CalibrationParams() sweep.CalibrationParams {
	return sweep.CalibrationParams{
		Radius:         float32(c.Calibration.Radius),
		MaxAngle:       float32(c.Calibration.MaxAngle),
		ExportInterval: c.Calibration.ExportInterval,
		ExportOffset:   c.Calibration.ExportOffset,
	}
}

func (c *Config) VideosDir(id string) string {
	return filepath.Join(c.Root, "videos", id)
}

func (c *Config) ExportsDir(id string) string {
	return filepath.Join(c.Root, "exports", id)
}

// DatasetDir is the folder of the dataset built from the given exports
func (c *Config) DatasetDir(exportIDs []string) string {
	return filepath.Join(c.Root, "datasets", strings.Join(exportIDs, "-"))
}

func (c *Config) JournalPath() string {
	if c.Journal != "" {
		return c.Journal
	}
	return filepath.Join(c.Root, "review.sqlite")
}

// ParseIDs splits a comma separated list of export IDs
func ParseIDs(list string) ([]string, error) {
	ids := []string{}
	for _, id := range strings.Split(list, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
			return nil, fmt.Errorf("Invalid ID '%v'", id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("No IDs in '%v'", list)
	}
	return ids, nil
}

// OpenStorage creates the blob store described by sc. GCS takes precedence if both are configured.
func OpenStorage(log logs.Log, sc StorageConfig) (storage.Storage, error) {
	if sc.GCS != nil && sc.GCS.Bucket != "" {
		log.Infof("Using GCS bucket %v", sc.GCS.Bucket)
		return storage.NewStorageGCS(log, sc.GCS.Bucket)
	} else if sc.Filesystem != nil && sc.Filesystem.Root != "" {
		log.Infof("Using filesystem storage at %v", sc.Filesystem.Root)
		return storage.NewStorageFS(log, sc.Filesystem.Root)
	}
	return nil, errors.New("No storage configured (need either 'filesystem' or 'gcs')")
}
