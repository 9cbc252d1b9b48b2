package centrality

import (
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages engine and service configuration using Viper. Methods are
// safe for concurrent use; writes that bypass Config (viper's file watcher,
// bound flags) are not, so long-lived readers should work on a Clone.
type Config struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.mode", string(ModeUnit))

	// Performance parameters
	v.SetDefault("performance.parallel", true)
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)
	v.SetDefault("logging.progress_interval", 1000)

	// Input and reporting
	v.SetDefault("input.format", "reddit-tsv")
	v.SetDefault("output.top_n", 10)

	// Service parameters
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("jobs.max_workers", 2)
	v.SetDefault("jobs.job_timeout", 30*time.Minute)
	v.SetDefault("jobs.result_ttl", time.Hour)
	v.SetDefault("jobs.cleanup_interval", 5*time.Minute)
	v.SetDefault("storage.max_upload_bytes", int64(512<<20))

	v.SetEnvPrefix("CENTRALITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Viper exposes the underlying store for flag binding and config watching.
func (c *Config) Viper() *viper.Viper { return c.v }

// Getters for algorithm parameters
func (c *Config) Mode() string { return c.getString("algorithm.mode") }

func (c *Config) Parallel() bool { return c.getBool("performance.parallel") }
func (c *Config) NumWorkers() int { return c.getInt("performance.num_workers") }

func (c *Config) LogLevel() string { return c.getString("logging.level") }
func (c *Config) EnableProgress() bool { return c.getBool("logging.enable_progress") }
func (c *Config) ProgressInterval() int { return c.getInt("logging.progress_interval") }
func (c *Config) InputFormat() string { return c.getString("input.format") }
func (c *Config) TopN() int { return c.getInt("output.top_n") }

func (c *Config) ServerAddress() string { return c.getString("server.address") }
func (c *Config) ReadTimeout() time.Duration { return c.getDuration("server.read_timeout") }
func (c *Config) WriteTimeout() time.Duration { return c.getDuration("server.write_timeout") }

func (c *Config) MaxJobWorkers() int { return c.getInt("jobs.max_workers") }
func (c *Config) JobTimeout() time.Duration { return c.getDuration("jobs.job_timeout") }
func (c *Config) ResultTTL() time.Duration { return c.getDuration("jobs.result_ttl") }
func (c *Config) CleanupInterval() time.Duration { return c.getDuration("jobs.cleanup_interval") }
func (c *Config) MaxUploadBytes() int64 { return c.getInt64("storage.max_upload_bytes") }

// Workers returns the effective worker count for a traversal batch.
func (c *Config) Workers() int {
	if !c.Parallel() {
		return 1
	}
	if n := c.NumWorkers(); n > 0 {
		return n
	}
	return 1
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(key, value)
}

// Clone returns an independent copy carrying the current effective values.
func (c *Config) Clone() *Config {
	clone := NewConfig()
	_ = clone.v.MergeConfigMap(c.AllSettings())
	return clone
}

// AllSettings returns the effective configuration as a nested map.
func (c *Config) AllSettings() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.AllSettings()
}

func (c *Config) getString(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(key)
}

func (c *Config) getBool(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(key)
}

func (c *Config) getInt(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt(key)
}

func (c *Config) getInt64(key string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt64(key)
}

func (c *Config) getDuration(key string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetDuration(key)
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "centrality").Logger()
}
