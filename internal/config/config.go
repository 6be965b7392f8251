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

// Supported database drivers.
const (
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverQdrant   = "qdrant"
	DriverPgvector = "pgvector"
	DriverMemory   = "memory"
)

// Config holds the carequery configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Auth       AuthConfig       `yaml:"auth"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	CORS       CORSConfig       `yaml:"cors"`
	Events     EventsConfig     `yaml:"events"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Logging    LoggingConfig    `yaml:"logging"`
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
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector store connection and index settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, qdrant, pgvector, memory
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"` // pgvector only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	IndexName        string   `yaml:"index_name"` // qdrant collection, pgvector table
	KeyPrefix        string   `yaml:"key_prefix"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds provider credentials and the active vectorizer.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig `yaml:"providers"`
	Vectorizer  VectorizerConfig          `yaml:"vectorizer"`
	CacheTTLSec int                       `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// ProviderConfig holds OpenAI-compatible provider settings.
type ProviderConfig struct {
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Budget  BudgetConfig `yaml:"budget"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// GenerationConfig holds answer generation settings. Credentials come from
// embedding.providers[provider]; the budget is tracked separately.
type GenerationConfig struct {
	Provider    string       `yaml:"provider"`
	Model       string       `yaml:"model"`
	Temperature *float32     `yaml:"temperature"`
	MaxTokens   int          `yaml:"max_tokens"`
	Budget      BudgetConfig `yaml:"budget"`
}

// PipelineConfig holds query pipeline limits and stage timeouts.
type PipelineConfig struct {
	DefaultTopK             int      `yaml:"default_top_k"`
	MaxTopK                 int      `yaml:"max_top_k"`
	MaxQuestionChars        int      `yaml:"max_question_chars"`
	ContextCharsPerDocument int      `yaml:"context_chars_per_document"`
	RetrievalTimeoutSec     float64  `yaml:"retrieval_timeout_sec"`
	GenerationTimeoutSec    float64  `yaml:"generation_timeout_sec"`
	ExampleQueries          []string `yaml:"example_queries"`
}

// CorpusConfig holds corpus loading settings.
type CorpusConfig struct {
	Path               string `yaml:"path"`
	MaxStoredTextChars int    `yaml:"max_stored_text_chars"`
	BatchSize          int    `yaml:"batch_size"`
	Workers            int    `yaml:"workers"`
}

// RateLimitConfig holds per-client-IP rate limiting. Zero requests disables it.
type RateLimitConfig struct {
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
	TrustProxy        bool `yaml:"trust_proxy"`
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// EventsConfig holds query result publishing settings.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
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

// Parse expands env variables in data, decodes it and applies defaults and validation.
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.IndexName == "" {
		c.Database.IndexName = "carequery_corpus"
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "carequery:"
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}

	if c.Embedding.Vectorizer.Provider == "" {
		c.Embedding.Vectorizer.Provider = "openai"
	}
	if c.Embedding.Vectorizer.Model == "" {
		c.Embedding.Vectorizer.Model = "text-embedding-3-small"
	}
	if c.Embedding.Vectorizer.Dimensions <= 0 {
		c.Embedding.Vectorizer.Dimensions = 1536
	}

	if c.Generation.Provider == "" {
		c.Generation.Provider = c.Embedding.Vectorizer.Provider
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4"
	}
	if c.Generation.Temperature == nil {
		t := float32(0.3)
		c.Generation.Temperature = &t
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 500
	}

	if c.Pipeline.DefaultTopK == 0 {
		c.Pipeline.DefaultTopK = 10
	}
	if c.Pipeline.MaxTopK <= 0 {
		c.Pipeline.MaxTopK = 50
	}
	if c.Pipeline.MaxQuestionChars <= 0 {
		c.Pipeline.MaxQuestionChars = 1000
	}
	if c.Pipeline.ContextCharsPerDocument <= 0 {
		c.Pipeline.ContextCharsPerDocument = 1500
	}
	if c.Pipeline.RetrievalTimeoutSec == 0 {
		c.Pipeline.RetrievalTimeoutSec = 2
	}
	if c.Pipeline.GenerationTimeoutSec == 0 {
		c.Pipeline.GenerationTimeoutSec = 8
	}

	if c.Corpus.MaxStoredTextChars <= 0 {
		c.Corpus.MaxStoredTextChars = 2000
	}
	if c.Corpus.BatchSize <= 0 {
		c.Corpus.BatchSize = 64
	}
	if c.Corpus.Workers <= 0 {
		c.Corpus.Workers = 4
	}

	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = c.RateLimit.RequestsPerMinute
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if c.Events.Subject == "" {
		c.Events.Subject = "carequery.query.completed"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "carequery"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}

	if t := *c.Generation.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %g", t)
	}
	if c.Pipeline.DefaultTopK < 1 || c.Pipeline.DefaultTopK > c.Pipeline.MaxTopK {
		return fmt.Errorf("pipeline.default_top_k must be between 1 and %d, got %d",
			c.Pipeline.MaxTopK, c.Pipeline.DefaultTopK)
	}
	if c.Pipeline.RetrievalTimeoutSec <= 0 {
		return fmt.Errorf("pipeline.retrieval_timeout_sec must be positive")
	}
	if c.Pipeline.GenerationTimeoutSec <= 0 {
		return fmt.Errorf("pipeline.generation_timeout_sec must be positive")
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must not be negative")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url is required when events are enabled")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverRedis, DriverValkey, DriverQdrant:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPgvector:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of redis, valkey, qdrant, pgvector, memory, got %q",
			c.Database.Driver)
	}
	return nil
}

func (c *Config) validateProviders() error {
	for name, p := range c.Embedding.Providers {
		if err := validateBudgetAction("embedding.providers."+name, p.Budget.Action); err != nil {
			return err
		}
	}
	if err := validateBudgetAction("generation", c.Generation.Budget.Action); err != nil {
		return err
	}
	if _, ok := c.Embedding.Providers[c.Embedding.Vectorizer.Provider]; !ok {
		return fmt.Errorf("embedding.vectorizer.provider %q is not defined in embedding.providers",
			c.Embedding.Vectorizer.Provider)
	}
	if _, ok := c.Embedding.Providers[c.Generation.Provider]; !ok {
		return fmt.Errorf("generation.provider %q is not defined in embedding.providers",
			c.Generation.Provider)
	}
	return nil
}

func validateBudgetAction(path, action string) error {
	switch action {
	case "", "warn", "reject":
		return nil
	default:
		return fmt.Errorf("%s.budget.action must be \"warn\" or \"reject\", got %q", path, action)
	}
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
