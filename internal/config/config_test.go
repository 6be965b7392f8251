package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: DriverRedis,
			Addrs:  []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{
				"openai": {APIKey: "test-key"},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Providers["openai"] = ProviderConfig{
		APIKey: "test-key",
		Budget: BudgetConfig{DailyTokenLimit: 1000000, Action: "invalid_action"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.providers.openai.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Providers["openai"] = ProviderConfig{Budget: BudgetConfig{Action: action}}
			cfg.Generation.Budget.Action = action

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"missing redis addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"missing qdrant addrs", func(c *Config) {
			c.Database.Driver = DriverQdrant
			c.Database.Addrs = nil
		}, "database.addrs"},
		{"missing pgvector dsn", func(c *Config) { c.Database.Driver = DriverPgvector }, "database.dsn"},
		{"temperature negative", func(c *Config) {
			t := float32(-0.1)
			c.Generation.Temperature = &t
		}, "generation.temperature"},
		{"temperature above 2", func(c *Config) {
			t := float32(2.5)
			c.Generation.Temperature = &t
		}, "generation.temperature"},
		{"default top_k above max", func(c *Config) { c.Pipeline.DefaultTopK = 51 }, "pipeline.default_top_k"},
		{"default top_k negative", func(c *Config) { c.Pipeline.DefaultTopK = -1 }, "pipeline.default_top_k"},
		{"retrieval timeout negative", func(c *Config) { c.Pipeline.RetrievalTimeoutSec = -1 }, "retrieval_timeout_sec"},
		{"generation timeout negative", func(c *Config) { c.Pipeline.GenerationTimeoutSec = -1 }, "generation_timeout_sec"},
		{"generation budget action", func(c *Config) { c.Generation.Budget.Action = "block" }, "generation.budget.action"},
		{"undefined vectorizer provider", func(c *Config) { c.Embedding.Vectorizer.Provider = "nebius" }, "embedding.vectorizer.provider"},
		{"undefined generation provider", func(c *Config) { c.Generation.Provider = "nebius" }, "generation.provider"},
		{"negative rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = -5 }, "rate_limit"},
		{"events without url", func(c *Config) { c.Events.Enabled = true }, "events.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverMemory
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Database.KeyPrefix != "carequery:" {
		t.Errorf("expected KeyPrefix='carequery:', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Database.HNSWM != 16 || cfg.Database.HNSWEFConstruct != 200 {
		t.Errorf("expected HNSW 16/200, got %d/%d", cfg.Database.HNSWM, cfg.Database.HNSWEFConstruct)
	}
	if cfg.Embedding.Vectorizer.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Vectorizer.Dimensions)
	}
	if cfg.Generation.Model != "gpt-4" {
		t.Errorf("expected Model=gpt-4, got %q", cfg.Generation.Model)
	}
	if cfg.Generation.Temperature == nil || *cfg.Generation.Temperature != 0.3 {
		t.Errorf("expected Temperature=0.3, got %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.MaxTokens != 500 {
		t.Errorf("expected MaxTokens=500, got %d", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Provider != "openai" {
		t.Errorf("expected generation provider to follow the vectorizer, got %q", cfg.Generation.Provider)
	}
	if cfg.Pipeline.DefaultTopK != 10 || cfg.Pipeline.MaxTopK != 50 {
		t.Errorf("expected top_k 10/50, got %d/%d", cfg.Pipeline.DefaultTopK, cfg.Pipeline.MaxTopK)
	}
	if cfg.Pipeline.MaxQuestionChars != 1000 {
		t.Errorf("expected MaxQuestionChars=1000, got %d", cfg.Pipeline.MaxQuestionChars)
	}
	if cfg.Pipeline.ContextCharsPerDocument != 1500 {
		t.Errorf("expected ContextCharsPerDocument=1500, got %d", cfg.Pipeline.ContextCharsPerDocument)
	}
	if cfg.Pipeline.RetrievalTimeoutSec != 2 || cfg.Pipeline.GenerationTimeoutSec != 8 {
		t.Errorf("expected timeouts 2/8, got %g/%g", cfg.Pipeline.RetrievalTimeoutSec, cfg.Pipeline.GenerationTimeoutSec)
	}
	if cfg.Corpus.MaxStoredTextChars != 2000 {
		t.Errorf("expected MaxStoredTextChars=2000, got %d", cfg.Corpus.MaxStoredTextChars)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected AllowedOrigins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Events.Subject != "carequery.query.completed" {
		t.Errorf("unexpected Subject: %q", cfg.Events.Subject)
	}
	if cfg.RateLimit.Burst != 0 {
		t.Errorf("expected no burst when rate limiting is off, got %d", cfg.RateLimit.Burst)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	temp := float32(0)
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:   DatabaseConfig{ReadinessTimeout: 15, HNSWM: 32, KeyPrefix: "custom:"},
		Generation: GenerationConfig{Temperature: &temp, Model: "gpt-4o-mini"},
		RateLimit:  RateLimitConfig{RequestsPerMinute: 20, Burst: 3},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Database.HNSWM)
	}
	if cfg.Database.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Database.KeyPrefix)
	}
	if *cfg.Generation.Temperature != 0 {
		t.Errorf("explicit zero temperature was overridden: %g", *cfg.Generation.Temperature)
	}
	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("expected Model=gpt-4o-mini, got %q", cfg.Generation.Model)
	}
	if cfg.RateLimit.Burst != 3 {
		t.Errorf("expected Burst=3, got %d", cfg.RateLimit.Burst)
	}
}

func TestApplyDefaults_BurstFollowsRate(t *testing.T) {
	cfg := Config{RateLimit: RateLimitConfig{RequestsPerMinute: 20}}
	cfg.ApplyDefaults()

	if cfg.RateLimit.Burst != 20 {
		t.Errorf("expected Burst=20, got %d", cfg.RateLimit.Burst)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("CAREQUERY_TEST_KEY", "sk-from-env")

	cfg, err := Parse([]byte(`
http:
  port: 8080
database:
  driver: memory
embedding:
  providers:
    openai:
      api_key: ${CAREQUERY_TEST_KEY}
      base_url: ${CAREQUERY_TEST_UNSET:-https://api.openai.com/v1}
generation:
  temperature: 0.2
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	p := cfg.Embedding.Providers["openai"]
	if p.APIKey != "sk-from-env" {
		t.Errorf("expected api key from env, got %q", p.APIKey)
	}
	if p.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base url, got %q", p.BaseURL)
	}
	if *cfg.Generation.Temperature != 0.2 {
		t.Errorf("expected Temperature=0.2, got %g", *cfg.Generation.Temperature)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 0\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected a port")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CQ_SET", "value")

	tests := []struct {
		in, want string
	}{
		{"${CQ_SET}", "value"},
		{"${CQ_SET:-fallback}", "value"},
		{"${CQ_MISSING:-fallback}", "fallback"},
		{"${CQ_MISSING}", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := string(expandEnvVars([]byte(tt.in))); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
