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

// Config holds the localaid configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Search    SearchConfig    `yaml:"search"`
	Extract   ExtractConfig   `yaml:"extract"`
	Inference InferenceConfig `yaml:"inference"`
	Cache     CacheConfig     `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int    `yaml:"max_upload_mb"`
	BindAddress     string `yaml:"bind_address"`
}

// SearchConfig holds file search settings.
type SearchConfig struct {
	Root            string   `yaml:"root"` // default: user home directory
	IndexTool       string   `yaml:"index_tool"`
	IndexTimeoutSec int      `yaml:"index_timeout_sec"`
	MaxResults      int      `yaml:"max_results"`
	SkipDirs        []string `yaml:"skip_dirs"` // default: walker.DefaultSkipDirs
}

// ExtractConfig holds content extraction limits.
type ExtractConfig struct {
	AttachmentLimit   int   `yaml:"attachment_limit"`    // characters sent to the model
	PreviewReadLimit  int64 `yaml:"preview_read_limit"`  // bytes read for a text preview
	PreviewLimit      int   `yaml:"preview_limit"`       // characters returned by a preview
	ContentMatchLimit int64 `yaml:"content_match_limit"` // bytes scanned by content search
}

// InferenceConfig holds the language model server settings.
type InferenceConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CacheConfig holds answer cache settings. No addrs disables the cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// Enabled reports whether the answer cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.BindAddress == "" {
		c.HTTP.BindAddress = "127.0.0.1"
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// must outlive the inference timeout
		c.HTTP.WriteTimeoutSec = 150
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	c.Auth.APIKeys = nonEmpty(c.Auth.APIKeys)
	c.Cache.Addrs = nonEmpty(c.Cache.Addrs)
	if c.Search.Root == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Search.Root = home
		}
	}
	if c.Search.IndexTool == "" {
		c.Search.IndexTool = "mdfind"
	}
	if c.Search.IndexTimeoutSec <= 0 {
		c.Search.IndexTimeoutSec = 10
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 30
	}
	if c.Extract.AttachmentLimit <= 0 {
		c.Extract.AttachmentLimit = 15000
	}
	if c.Extract.PreviewReadLimit <= 0 {
		c.Extract.PreviewReadLimit = 100000
	}
	if c.Extract.PreviewLimit <= 0 {
		c.Extract.PreviewLimit = 50000
	}
	if c.Extract.ContentMatchLimit <= 0 {
		c.Extract.ContentMatchLimit = 50000
	}
	if c.Inference.BaseURL == "" {
		c.Inference.BaseURL = "http://localhost:11434/v1"
	}
	if c.Inference.Model == "" {
		c.Inference.Model = "mistral"
	}
	if c.Inference.TimeoutSec <= 0 {
		c.Inference.TimeoutSec = 120
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "localaid:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Search.Root == "" {
		return fmt.Errorf("search.root is required")
	}
	if !filepath.IsAbs(c.Search.Root) {
		return fmt.Errorf("search.root must be an absolute path, got %q", c.Search.Root)
	}
	if c.Search.MaxResults > 30 {
		return fmt.Errorf("search.max_results must not exceed 30, got %d", c.Search.MaxResults)
	}
	if !strings.HasPrefix(c.Inference.BaseURL, "http://") && !strings.HasPrefix(c.Inference.BaseURL, "https://") {
		return fmt.Errorf("inference.base_url must be an http(s) URL, got %q", c.Inference.BaseURL)
	}
	return nil
}

// IndexTimeout returns the index tool timeout.
func (c SearchConfig) IndexTimeout() time.Duration {
	return time.Duration(c.IndexTimeoutSec) * time.Second
}

// Timeout returns the inference request timeout.
func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// TTL returns the answer cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// nonEmpty drops blank entries left by unset ${VAR} substitutions.
func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
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
