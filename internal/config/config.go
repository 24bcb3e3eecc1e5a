// Package config loads the YAML configuration for the conference backend.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the confbase API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Editions   EditionsConfig   `yaml:"editions"`
	Email      EmailConfig      `yaml:"email"`
	TableStore TableStoreConfig `yaml:"table_store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Search     SearchConfig     `yaml:"search"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig holds the key-value/search store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AuthConfig holds identity token verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
}

// EditionConfig holds the per-edition table store coordinates. An edition
// without a base ID is read-only: abstracts are served from the search store
// and create/update requests fail with 400.
type EditionConfig struct {
	TableBaseID string `yaml:"table_base_id"`
	TableName   string `yaml:"table_name"`
}

// EditionsConfig names the current edition and the table store coordinates
// of every known edition.
type EditionsConfig struct {
	Current  string                   `yaml:"current"`
	Editions map[string]EditionConfig `yaml:"editions"`
}

// EmailConfig holds SendGrid settings and the template file location.
type EmailConfig struct {
	SendgridAPIKey string `yaml:"sendgrid_api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
	TemplatePath   string `yaml:"template_path"`
}

// TableStoreConfig holds the spreadsheet-like table store credentials.
type TableStoreConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds the sentence-embedding provider settings used by the
// sent_embed pipeline mode.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// RecommendConfig points at the artifacts produced by the offline pipeline.
type RecommendConfig struct {
	EmbeddingsDir string `yaml:"embeddings_dir"`
	AgendaDir     string `yaml:"agenda_dir"`
}

// SearchConfig holds full-text search settings.
type SearchConfig struct {
	AffiliationIndex string `yaml:"affiliation_index"`
	DefaultPageSize  int    `yaml:"default_page_size"`
	MaxResults       int    `yaml:"max_results"`
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
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{
			"http://localhost",
			"http://localhost:4000",
		}
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.AffiliationIndex == "" {
		c.Search.AffiliationIndex = "affiliations"
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 40
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 1000
	}
	if c.Recommend.EmbeddingsDir == "" {
		c.Recommend.EmbeddingsDir = filepath.Join("sitedata", "embeddings")
	}
	if c.Recommend.AgendaDir == "" {
		c.Recommend.AgendaDir = filepath.Join("sitedata", "agenda")
	}
	if c.Email.TemplatePath == "" {
		c.Email.TemplatePath = filepath.Join("sitedata", "email-content.json")
	}
	if c.TableStore.BaseURL == "" {
		c.TableStore.BaseURL = "https://api.airtable.com/v0"
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
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Editions.Current == "" {
		return fmt.Errorf("editions.current is required")
	}
	return nil
}

// Edition returns the table store coordinates of an edition; ok is false when
// the edition is not configured at all.
func (c *Config) Edition(name string) (EditionConfig, bool) {
	ec, ok := c.Editions.Editions[name]
	return ec, ok
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
