// Package config loads the server configuration from the environment, an
// optional .env file and optional JSON reference-table overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
)

// Environment variable names.
const (
	EnvLogLevel       = "CRANIAL_MCP_LOG_LEVEL"
	EnvLogFile        = "CRANIAL_MCP_LOG_FILE"
	EnvThresholds     = "CRANIAL_MCP_THRESHOLDS"
	EnvThresholdsFile = "CRANIAL_MCP_THRESHOLDS_FILE"
	EnvGrowthFile     = "CRANIAL_MCP_GROWTH_FILE"
	EnvAxisScaling    = "CRANIAL_MCP_AXIS_SCALING"
	EnvLocale         = "CRANIAL_MCP_LOCALE"
)

// maxFileSize bounds the override files read at startup.
const maxFileSize = 1 * 1024 * 1024

// Config is the validated server configuration.
type Config struct {
	LogLevel         string `validate:"oneof=debug info warn error"`
	LogFile          string
	ThresholdsPreset string `validate:"oneof=scientific dashboard"`
	ThresholdsFile   string `validate:"omitempty,endswith=.json"`
	GrowthFile       string `validate:"omitempty,endswith=.json"`
	AxisScaling      string `validate:"oneof=width aspect"`
	Locale           string `validate:"oneof=en pt-BR"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		ThresholdsPreset: cranial.PresetScientific,
		AxisScaling:      string(cranial.AxisWidth),
		Locale:           "en",
	}
}

// Load reads envFile (when it exists) into the process environment and
// builds the configuration from it. A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config from an environment lookup.
// Unset variables keep their defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.LogLevel, EnvLogLevel)
	set(&cfg.LogFile, EnvLogFile)
	set(&cfg.ThresholdsPreset, EnvThresholds)
	set(&cfg.ThresholdsFile, EnvThresholdsFile)
	set(&cfg.GrowthFile, EnvGrowthFile)
	set(&cfg.AxisScaling, EnvAxisScaling)
	set(&cfg.Locale, EnvLocale)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s=%q fails %s %s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Axis returns the configured axis scaling.
func (c *Config) Axis() cranial.AxisScaling {
	axis, err := cranial.ParseAxisScaling(c.AxisScaling)
	if err != nil {
		return cranial.AxisWidth
	}
	return axis
}

// Reference builds the classification and growth tables: the configured
// preset, patched by the override files when set.
func (c *Config) Reference() (cranial.Reference, error) {
	base, err := cranial.PresetThresholds(c.ThresholdsPreset)
	if err != nil {
		return cranial.Reference{}, err
	}
	thresholds := base
	if c.ThresholdsFile != "" {
		thresholds, err = LoadThresholds(c.ThresholdsFile, base)
		if err != nil {
			return cranial.Reference{}, err
		}
	}

	growth := cranial.WHOHeadCircumference()
	if c.GrowthFile != "" {
		growth, err = LoadGrowthTable(c.GrowthFile)
		if err != nil {
			return cranial.Reference{}, err
		}
	}
	return cranial.Reference{Thresholds: thresholds, Growth: growth}, nil
}

// ThresholdsOverride is the JSON shape of a thresholds override file.
// Omitted fields keep the base table's values.
type ThresholdsOverride struct {
	Preset       *string            `json:"preset,omitempty"`
	Name         *string            `json:"name,omitempty"`
	CranialIndex *cranial.BandTable `json:"cranial_index,omitempty"`
	CVAI         *cranial.BandTable `json:"cvai,omitempty"`
}

// LoadThresholds reads a thresholds override file and applies it to base.
// A "preset" field in the file replaces base before the tables are applied.
func LoadThresholds(path string, base *cranial.Thresholds) (*cranial.Thresholds, error) {
	data, err := readJSONFile(path)
	if err != nil {
		return nil, err
	}
	var ov ThresholdsOverride
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds file: %w", err)
	}

	out := base.Clone()
	if ov.Preset != nil {
		out, err = cranial.PresetThresholds(*ov.Preset)
		if err != nil {
			return nil, err
		}
	}
	if ov.Name != nil {
		out.Name = *ov.Name
	} else if ov.CranialIndex != nil || ov.CVAI != nil {
		out.Name += "+custom"
	}
	if ov.CranialIndex != nil {
		out.CranialIndex = *ov.CranialIndex
	}
	if ov.CVAI != nil {
		out.CVAI = *ov.CVAI
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadGrowthTable reads a complete growth reference table.
func LoadGrowthTable(path string) (*cranial.GrowthTable, error) {
	data, err := readJSONFile(path)
	if err != nil {
		return nil, err
	}
	var tbl cranial.GrowthTable
	if err := json.Unmarshal(data, &tbl); err != nil {
		return nil, fmt.Errorf("failed to parse growth table: %w", err)
	}
	if err := tbl.Validate(); err != nil {
		return nil, err
	}
	return &tbl, nil
}

func readJSONFile(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}
