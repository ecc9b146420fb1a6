// Package config loads shapegen settings from an optional YAML file and
// SHAPEGEN_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// EnvPrefix is prepended to every environment override, e.g.
// SHAPEGEN_DATASET_HEIGHT or SHAPEGEN_SERVER_LOG_LEVEL.
const EnvPrefix = "SHAPEGEN"

// Config is the complete shapegen configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	Export  ExportConfig  `mapstructure:"export"`
}

// ServerConfig controls logging and the MCP server.
type ServerConfig struct {
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`
	// CacheSize bounds how many rendered samples the server keeps in memory.
	CacheSize int `mapstructure:"cache_size"`
}

// DatasetConfig holds the default generation parameters and seed.
type DatasetConfig struct {
	Height       int     `mapstructure:"height"`
	Width        int     `mapstructure:"width"`
	MinShapes    int     `mapstructure:"min_shapes"`
	MaxShapes    int     `mapstructure:"max_shapes"`
	Margin       int     `mapstructure:"margin"`
	SizeDivisor  int     `mapstructure:"size_divisor"`
	IoUThreshold float64 `mapstructure:"iou_threshold"`
	Priority     string  `mapstructure:"priority"`
	Seed         uint64  `mapstructure:"seed"`
}

// ExportConfig controls writing datasets to disk.
type ExportConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	Name       string `mapstructure:"name"`
	TrainCount int    `mapstructure:"train_count"`
	ValCount   int    `mapstructure:"val_count"`
	Workers    int    `mapstructure:"workers"`
	Reset      bool   `mapstructure:"reset"`
}

// Params converts the dataset section into generation parameters.
func (d DatasetConfig) Params() shapes.Params {
	return shapes.Params{
		Height:       d.Height,
		Width:        d.Width,
		MinShapes:    d.MinShapes,
		MaxShapes:    d.MaxShapes,
		Margin:       d.Margin,
		SizeDivisor:  d.SizeDivisor,
		IoUThreshold: d.IoUThreshold,
		Priority:     shapes.Priority(d.Priority),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := c.Dataset.Params().Validate(); err != nil {
		return err
	}
	if c.Export.TrainCount < 0 || c.Export.ValCount < 0 {
		return fmt.Errorf("%w: export counts must not be negative", shapes.ErrInvalidConfig)
	}
	if c.Export.Workers < 1 {
		return fmt.Errorf("%w: export workers %d must be at least 1", shapes.ErrInvalidConfig, c.Export.Workers)
	}
	if c.Server.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", shapes.ErrInvalidConfig)
	}
	return nil
}

// Load reads configPath (skipped when empty), applies environment overrides
// and defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cache_size", 256)

	v.SetDefault("dataset.height", shapes.DefaultHeight)
	v.SetDefault("dataset.width", shapes.DefaultWidth)
	v.SetDefault("dataset.min_shapes", shapes.DefaultMinShapes)
	v.SetDefault("dataset.max_shapes", shapes.DefaultMaxShapes)
	v.SetDefault("dataset.margin", shapes.DefaultMargin)
	v.SetDefault("dataset.size_divisor", shapes.DefaultSizeDivisor)
	v.SetDefault("dataset.iou_threshold", shapes.DefaultIoUThreshold)
	v.SetDefault("dataset.priority", string(shapes.PriorityFirstSampled))
	v.SetDefault("dataset.seed", 1)

	v.SetDefault("export.output_dir", "./datasets")
	v.SetDefault("export.name", "shapes")
	v.SetDefault("export.train_count", 500)
	v.SetDefault("export.val_count", 50)
	v.SetDefault("export.workers", 4)
	v.SetDefault("export.reset", false)
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Mode:      "development",
			LogLevel:  "info",
			CacheSize: 256,
		},
		Dataset: DatasetConfig{
			Height:       shapes.DefaultHeight,
			Width:        shapes.DefaultWidth,
			MinShapes:    shapes.DefaultMinShapes,
			MaxShapes:    shapes.DefaultMaxShapes,
			Margin:       shapes.DefaultMargin,
			SizeDivisor:  shapes.DefaultSizeDivisor,
			IoUThreshold: shapes.DefaultIoUThreshold,
			Priority:     string(shapes.PriorityFirstSampled),
			Seed:         1,
		},
		Export: ExportConfig{
			OutputDir:  "./datasets",
			Name:       "shapes",
			TrainCount: 500,
			ValCount:   50,
			Workers:    4,
		},
	}
}
