package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the worklens service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings. An empty APIKey
// disables embeddings and the service runs lexical-only.
type EmbeddingConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Dimensions   int    `yaml:"dimensions"`
	CacheEnabled bool   `yaml:"cache_enabled"`
}

// UpstreamConfig holds the project tracker API connection settings.
type UpstreamConfig struct {
	BaseURL          string  `yaml:"base_url"`
	PAT              string  `yaml:"pat"`
	RatePerSecond    float64 `yaml:"rate_per_second"`
	DetailFanout     int     `yaml:"detail_fanout"`
	ClosedWindowDays int     `yaml:"closed_window_days"`
	TimeoutSec       int     `yaml:"timeout_sec"`
}

// ProjectConfig identifies one upstream project to index.
type ProjectConfig struct {
	Organization string `yaml:"organization"`
	Project      string `yaml:"project"`
}

// IndexerConfig holds the background sync loop settings. An empty
// Projects list disables the worker; the query API still serves
// whatever is already indexed.
type IndexerConfig struct {
	IntervalSec        int             `yaml:"interval_sec"`
	Projects           []ProjectConfig `yaml:"projects"`
	StalenessGraceSec  int             `yaml:"staleness_grace_sec"`
	EmbedBatchSize     int             `yaml:"embed_batch_size"`
	WorkItemWindowDays int             `yaml:"work_item_window_days"`
}

// Interval returns the sync interval as a duration.
func (c IndexerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

// SearchConfig holds ranking settings.
type SearchConfig struct {
	RRFK                int               `yaml:"rrf_k"`
	CandidateMultiplier int               `yaml:"candidate_multiplier"`
	ProjectAliases      map[string]string `yaml:"project_aliases"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Upstream.RatePerSecond <= 0 {
		c.Upstream.RatePerSecond = 8
	}
	if c.Upstream.DetailFanout <= 0 {
		c.Upstream.DetailFanout = 10
	}
	if c.Upstream.ClosedWindowDays <= 0 {
		c.Upstream.ClosedWindowDays = 14
	}
	if c.Upstream.TimeoutSec <= 0 {
		c.Upstream.TimeoutSec = 30
	}
	if c.Indexer.IntervalSec <= 0 {
		c.Indexer.IntervalSec = 300
	}
	if c.Indexer.EmbedBatchSize <= 0 {
		c.Indexer.EmbedBatchSize = 64
	}
	if c.Indexer.WorkItemWindowDays <= 0 {
		c.Indexer.WorkItemWindowDays = 90
	}
	if c.Search.RRFK <= 0 {
		c.Search.RRFK = 60
	}
	if c.Search.CandidateMultiplier <= 0 {
		c.Search.CandidateMultiplier = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if len(c.Indexer.Projects) > 0 {
		if c.Upstream.BaseURL == "" {
			return fmt.Errorf("upstream.base_url is required when indexer.projects is set")
		}
		if c.Upstream.PAT == "" {
			return fmt.Errorf("upstream.pat is required when indexer.projects is set")
		}
	}
	for i, p := range c.Indexer.Projects {
		if p.Organization == "" || p.Project == "" {
			return fmt.Errorf("indexer.projects[%d] must set organization and project", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
