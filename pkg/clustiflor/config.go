package clustiflor

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages algorithm configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	d := DefaultParams()
	v.SetDefault("algorithm.size_sensitivity", d.SizeSensitivity)
	v.SetDefault("algorithm.split_threshold", d.SplitThreshold)
	v.SetDefault("algorithm.power_iterations", d.PowerIterations)
	v.SetDefault("algorithm.verbosity", d.Verbosity)

	// Input parameters
	v.SetDefault("input.delimiter", " ")
	v.SetDefault("input.split_cols", false)

	// Logging parameters
	v.SetDefault("logging.level", "info")

	// Analysis parameters
	v.SetDefault("analysis.track_splits", false)
	v.SetDefault("analysis.output_file", "splits.jsonl")

	v.SetDefault("output.metrics_file", "")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

func (c *Config) SizeSensitivity() float64 { return c.v.GetFloat64("algorithm.size_sensitivity") }
func (c *Config) SplitThreshold() float64  { return c.v.GetFloat64("algorithm.split_threshold") }
func (c *Config) PowerIterations() int     { return c.v.GetInt("algorithm.power_iterations") }
func (c *Config) Verbosity() int           { return c.v.GetInt("algorithm.verbosity") }

func (c *Config) Delimiter() string { return c.v.GetString("input.delimiter") }
func (c *Config) SplitCols() bool   { return c.v.GetBool("input.split_cols") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

func (c *Config) EnableSplitTracking() bool  { return c.v.GetBool("analysis.track_splits") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

func (c *Config) MetricsFile() string { return c.v.GetString("output.metrics_file") }

// Params collects the algorithm parameters
func (c *Config) Params() Params {
	return Params{
		SizeSensitivity: c.SizeSensitivity(),
		SplitThreshold:  c.SplitThreshold(),
		PowerIterations: c.PowerIterations(),
		Verbosity:       c.Verbosity(),
	}
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	return c.createLogger(os.Stdout)
}

func (c *Config) createLogger(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "clustiflor").Logger()
}
