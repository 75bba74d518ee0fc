package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Config holds the docsearch configuration shared by all sub-commands.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Engine       EngineConfig       `yaml:"engine"`
	EngineServer EngineServerConfig `yaml:"engine_server"`
	Cache        CacheConfig        `yaml:"cache"`
	Crawler      CrawlerConfig      `yaml:"crawler"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds the web UI server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig tells clients where the search engine lives.
type EngineConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`             // sent as Bearer token when set
	RequestTimeoutSec int    `yaml:"request_timeout_sec"` // 0 = no timeout
}

// EngineServerConfig holds the search engine server settings.
type EngineServerConfig struct {
	Port               int      `yaml:"port"`
	APIKeys            []string `yaml:"api_keys"`   // empty = auth disabled
	IndexPath          string   `yaml:"index_path"` // empty = in-memory index
	TopK               int      `yaml:"top_k"`
	TitleBoost         float64  `yaml:"title_boost"`
	SnippetWindowBytes int      `yaml:"snippet_window_bytes"`
	SnippetWorkers     int      `yaml:"snippet_workers"`
	MaxBatchSize       int      `yaml:"max_batch_size"`
	ReadTimeoutSec     int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec    int      `yaml:"write_timeout_sec"`
	ShutdownSec        int      `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	MaxEntries   int         `yaml:"max_entries"`
	RenderWaitMS int         `yaml:"render_wait_ms"`
	TTLSec       int         `yaml:"ttl_sec"` // TTL of the shared store entries
	Redis        RedisConfig `yaml:"redis"`
}

// RedisConfig holds the optional shared cache store connection.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"` // empty = no shared store
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CrawlerConfig holds crawler and ingest settings.
type CrawlerConfig struct {
	MaxItems        int      `yaml:"max_items"`
	MaxDepth        int      `yaml:"max_depth"` // 0 = unlimited
	Parallelism     int      `yaml:"parallelism"`
	DelayMS         int      `yaml:"delay_ms"`
	UserAgent       string   `yaml:"user_agent"`
	StatePath       string   `yaml:"state_path"` // directory of per-site visit state files, empty = in-memory
	FeedDir         string   `yaml:"feed_dir"`
	DenyGlobs       []string `yaml:"deny_globs"`
	IngestBatchSize int      `yaml:"ingest_batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first.
func Parse(data []byte) (Config, error) {
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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 3001
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	c.Engine.BaseURL = strings.TrimRight(strings.TrimSpace(c.Engine.BaseURL), "/")

	if c.EngineServer.Port <= 0 {
		c.EngineServer.Port = 6969
	}
	if c.EngineServer.TopK <= 0 {
		c.EngineServer.TopK = 10
	}
	if c.EngineServer.TitleBoost <= 0 {
		c.EngineServer.TitleBoost = 2.0
	}
	if c.EngineServer.SnippetWindowBytes <= 0 {
		c.EngineServer.SnippetWindowBytes = 500
	}
	if c.EngineServer.SnippetWorkers <= 0 {
		c.EngineServer.SnippetWorkers = 4
	}
	if c.EngineServer.MaxBatchSize <= 0 {
		c.EngineServer.MaxBatchSize = 500
	}
	if c.EngineServer.ReadTimeoutSec <= 0 {
		c.EngineServer.ReadTimeoutSec = 30
	}
	if c.EngineServer.WriteTimeoutSec <= 0 {
		c.EngineServer.WriteTimeoutSec = 30
	}
	if c.EngineServer.ShutdownSec <= 0 {
		c.EngineServer.ShutdownSec = 10
	}

	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 1024
	}
	if c.Cache.RenderWaitMS <= 0 {
		c.Cache.RenderWaitMS = 2000
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = "docsearch:"
	}
	if c.Cache.Redis.ReadinessTimeout <= 0 {
		c.Cache.Redis.ReadinessTimeout = 10
	}

	if c.Crawler.MaxItems <= 0 {
		c.Crawler.MaxItems = 100
	}
	if c.Crawler.Parallelism <= 0 {
		c.Crawler.Parallelism = 2
	}
	if c.Crawler.UserAgent == "" {
		c.Crawler.UserAgent = "docsearch-crawler/1.0"
	}
	if c.Crawler.FeedDir == "" {
		c.Crawler.FeedDir = "output"
	}
	if c.Crawler.IngestBatchSize <= 0 {
		c.Crawler.IngestBatchSize = 50
	}
}

// Validate checks the configuration for correctness.
// The engine address is checked separately by the commands that need it.
func (c *Config) Validate() error {
	if c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.EngineServer.Port > 65535 {
		return fmt.Errorf("engine_server.port must be between 1 and 65535, got %d", c.EngineServer.Port)
	}
	if c.Engine.RequestTimeoutSec < 0 {
		return fmt.Errorf("engine.request_timeout_sec must not be negative, got %d", c.Engine.RequestTimeoutSec)
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must not be negative, got %d", c.Crawler.MaxDepth)
	}
	return nil
}

// Validate checks that the engine base address is set and absolute.
func (e *EngineConfig) Validate() error {
	if e.BaseURL == "" {
		return fmt.Errorf("%w: engine.base_url is required (set ENGINE_BASE_URL)", domain.ErrConfig)
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: engine.base_url: %w", domain.ErrConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: engine.base_url must be an absolute http(s) URL, got %q",
			domain.ErrConfig, e.BaseURL)
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
