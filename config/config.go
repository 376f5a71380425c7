package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MaxShopDomains caps how many whitelisted shop domains are used
const MaxShopDomains = 6

// DefaultShopDomains are used when no whitelist is configured
var DefaultShopDomains = []string{"keepcup.com", "sttoke.com", "kleankanteen.com", "hydroflask.com"}

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Vision    VisionConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Anthropic AnthropicConfig
	Climatiq  ClimatiqConfig
	SerpAPI   SerpAPIConfig
	Search    SearchConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReturnDebug    bool     `mapstructure:"return_debug"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// VisionConfig selects the model backend used for image and strategy prompts
type VisionConfig struct {
	Backend       string `mapstructure:"backend"` // "openai", "gemini" or "claude"
	LogoDetection bool   `mapstructure:"logo_detection"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API configuration
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ClimatiqConfig holds Climatiq API configuration
type ClimatiqConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	DataVersion string        `mapstructure:"data_version"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SerpAPIConfig holds SerpAPI configuration
type SerpAPIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig tunes the alternatives pipeline
type SearchConfig struct {
	ShopDomains     []string      `mapstructure:"shop_domains"`
	MaxQueries      int           `mapstructure:"max_queries"`
	ResultsPerQuery int           `mapstructure:"results_per_query"`
	MaxResults      int           `mapstructure:"max_results"`
	MaxPerBrand     int           `mapstructure:"max_per_brand"`
	Concurrency     int           `mapstructure:"concurrency"`
	ShoppingEngine  bool          `mapstructure:"shopping_engine"`
	TaskTimeout     time.Duration `mapstructure:"task_timeout"`
}

// CatalogConfig holds the optional Elasticsearch product catalog
type CatalogConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Enabled reports whether a catalog cluster is configured
func (c CatalogConfig) Enabled() bool {
	return len(c.Addresses) > 0 && c.Index != ""
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`   // requests per minute per client IP
	SerpAPI  int `mapstructure:"serpapi"`  // requests per hour
	Climatiq int `mapstructure:"climatiq"` // requests per hour
}

// legacyEnv maps config keys to the flat variable names used by earlier
// deployments. SWYTCH_* variables take precedence.
var legacyEnv = map[string]string{
	"openai.api_key":         "OPENAI_API_KEY",
	"openai.model":           "OPENAI_MODEL",
	"gemini.api_key":         "GEMINI_API_KEY",
	"anthropic.api_key":      "ANTHROPIC_API_KEY",
	"climatiq.api_key":       "CLIMATIQ_API_KEY",
	"climatiq.base_url":      "CLIMATIQ_BASE_URL",
	"serpapi.api_key":        "SERPAPI_KEY",
	"server.return_debug":    "RETURN_DEBUG",
	"server.allowed_origins": "CORS_ALLOW_ORIGINS",
	"search.shop_domains":    "SHOP_DOMAIN_WHITELIST",
}

// Load loads configuration from .env, config files and environment variables
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/swytch/")

	// Environment variable settings
	v.SetEnvPrefix("SWYTCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envName := "SWYTCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", legacy, err)
		}
	}

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.Search.ShopDomains = NormalizeShopDomains(config.Search.ShopDomains)
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)
	config.Catalog.Addresses = splitList(config.Catalog.Addresses)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.return_debug", true)
	v.SetDefault("server.max_upload_bytes", 10*1024*1024)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Model defaults
	v.SetDefault("vision.backend", "openai")
	v.SetDefault("vision.logo_detection", false)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("anthropic.model", "claude-3-5-haiku-latest")

	// Climatiq defaults
	v.SetDefault("climatiq.base_url", "https://api.climatiq.io")
	v.SetDefault("climatiq.data_version", "^21")
	v.SetDefault("climatiq.timeout", "20s")

	// SerpAPI defaults
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.timeout", "20s")

	// Search defaults
	v.SetDefault("search.shop_domains", []string{})
	v.SetDefault("search.max_queries", 3)
	v.SetDefault("search.results_per_query", 8)
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.max_per_brand", 2)
	v.SetDefault("search.concurrency", 6)
	v.SetDefault("search.shopping_engine", true)
	v.SetDefault("search.task_timeout", "15s")

	// Catalog defaults (disabled unless addresses are set)
	v.SetDefault("catalog.addresses", []string{})
	v.SetDefault("catalog.index", "products")
	v.SetDefault("catalog.username", "")
	v.SetDefault("catalog.password", "")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "6h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.serpapi", 1000)
	v.SetDefault("ratelimit.climatiq", 1000)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}
	switch config.Vision.Backend {
	case "openai", "gemini", "claude":
	default:
		return fmt.Errorf("vision backend must be 'openai', 'gemini' or 'claude', got: %s", config.Vision.Backend)
	}
	if config.Log.Format != "console" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}
	if config.Search.MaxQueries < 1 {
		return fmt.Errorf("search.max_queries must be at least 1, got: %d", config.Search.MaxQueries)
	}
	if config.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be at least 1, got: %d", config.Search.MaxResults)
	}
	if config.Search.MaxResults > 5 {
		config.Search.MaxResults = 5
	}
	if config.Search.MaxPerBrand < 1 {
		config.Search.MaxPerBrand = 1
	}
	if config.Search.Concurrency < 1 {
		config.Search.Concurrency = 1
	}
	return nil
}

// NormalizeShopDomains lowercases, strips "www." and keeps at most MaxShopDomains
// entries. An empty list yields DefaultShopDomains.
func NormalizeShopDomains(domains []string) []string {
	out := make([]string, 0, MaxShopDomains)
	seen := make(map[string]bool)
	for _, d := range splitList(domains) {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "https://")
		d = strings.TrimPrefix(d, "http://")
		d = strings.TrimPrefix(d, "www.")
		d = strings.TrimSuffix(d, "/")
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
		if len(out) == MaxShopDomains {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultShopDomains...)
	}
	return out
}

// splitList flattens list settings read from a single env var. A JSON array
// (`["a","b"]`) is decoded; anything else is split on commas.
func splitList(in []string) []string {
	joined := strings.TrimSpace(strings.Join(in, ","))
	var parts []string
	if strings.HasPrefix(joined, "[") {
		if err := json.Unmarshal([]byte(joined), &parts); err != nil {
			parts = strings.Split(strings.Trim(joined, "[]"), ",")
		}
	} else {
		parts = strings.Split(joined, ",")
	}

	var out []string
	for _, part := range parts {
		if p := strings.Trim(strings.TrimSpace(part), `"'`); p != "" {
			out = append(out, p)
		}
	}
	return out
}
