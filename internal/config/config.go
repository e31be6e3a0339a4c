package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Icebreaker IcebreakerConfig `yaml:"icebreaker" mapstructure:"icebreaker"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Instantly  InstantlyConfig  `yaml:"instantly" mapstructure:"instantly"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Dispatch   DispatchConfig   `yaml:"dispatch" mapstructure:"dispatch"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Notify     NotifyConfig     `yaml:"notify" mapstructure:"notify"`
	Monitor    MonitorConfig    `yaml:"monitor" mapstructure:"monitor"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// IngestConfig selects the column-mapping profile.
type IngestConfig struct {
	// Profile is "default" (identity column names) or "apollo".
	Profile string        `yaml:"profile" mapstructure:"profile"`
	Apollo  ColumnPresets `yaml:"apollo" mapstructure:"apollo"`
}

// ColumnPresets names the source column for each canonical lead field.
type ColumnPresets struct {
	FirstName   string `yaml:"first_name" mapstructure:"first_name"`
	LastName    string `yaml:"last_name" mapstructure:"last_name"`
	Email       string `yaml:"email" mapstructure:"email"`
	CompanyName string `yaml:"company_name" mapstructure:"company_name"`
	Industry    string `yaml:"industry" mapstructure:"industry"`
	Website     string `yaml:"website" mapstructure:"website"`
	Title       string `yaml:"title" mapstructure:"title"`
	LinkedIn    string `yaml:"linkedin" mapstructure:"linkedin"`
}

// IcebreakerConfig configures the generation chain.
type IcebreakerConfig struct {
	Enabled          bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider         string `yaml:"provider" mapstructure:"provider"`
	DirectBackend    string `yaml:"direct_backend" mapstructure:"direct_backend"`
	Template         string `yaml:"template" mapstructure:"template"`
	FallbackTemplate string `yaml:"fallback_template" mapstructure:"fallback_template"`
	RelayURL         string `yaml:"relay_url" mapstructure:"relay_url"`
	RelayTimeoutSecs int    `yaml:"relay_timeout_secs" mapstructure:"relay_timeout_secs"`

	RelayBreakerThreshold int `yaml:"relay_breaker_threshold" mapstructure:"relay_breaker_threshold"`
	RelayBreakerResetSecs int `yaml:"relay_breaker_reset_secs" mapstructure:"relay_breaker_reset_secs"`

	BatchConcurrency int     `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
	BatchRPS         float64 `yaml:"batch_rps" mapstructure:"batch_rps"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// InstantlyConfig holds sending-platform settings.
type InstantlyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Campaigns maps tier names to platform campaign IDs.
	Campaigns map[string]string `yaml:"campaigns" mapstructure:"campaigns"`
}

// NotionConfig holds Notion API credentials for the Notion lead source.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
	// StatusProperty names the select that --notion-status filters on.
	StatusProperty string `yaml:"status_property" mapstructure:"status_property"`
}

// DispatchConfig holds batching and pacing policy.
type DispatchConfig struct {
	BatchSize    int `yaml:"batch_size" mapstructure:"batch_size"`
	LeadDelayMs  int `yaml:"lead_delay_ms" mapstructure:"lead_delay_ms"`
	BatchPauseMs int `yaml:"batch_pause_ms" mapstructure:"batch_pause_ms"`
}

// StoreConfig configures the dispatch ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// NotifyConfig configures run notifications.
type NotifyConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url" mapstructure:"slack_webhook_url"`
}

// MonitorConfig configures campaign performance monitoring.
type MonitorConfig struct {
	// WindowHours is how far back replies are fetched.
	WindowHours int `yaml:"window_hours" mapstructure:"window_hours"`
	// Model classifies reply sentiment.
	Model string `yaml:"model" mapstructure:"model"`
}

// Default template strings.
const (
	DefaultTemplate         = "Love your approach to {specific_observation}, been following {company_name} for a while, big fan of your {service_focus}."
	DefaultFallbackTemplate = "Impressed by what you're building at {company_name}, particularly your approach in the {industry} space."
)

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COLDREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ingest.profile", "default")
	v.SetDefault("ingest.apollo.first_name", "first_name")
	v.SetDefault("ingest.apollo.last_name", "last_name")
	v.SetDefault("ingest.apollo.email", "email")
	v.SetDefault("ingest.apollo.company_name", "company")
	v.SetDefault("ingest.apollo.industry", "industry")
	v.SetDefault("ingest.apollo.website", "website_url")
	v.SetDefault("ingest.apollo.title", "title")
	v.SetDefault("ingest.apollo.linkedin", "linkedin")

	v.SetDefault("icebreaker.enabled", true)
	v.SetDefault("icebreaker.provider", "relay")
	v.SetDefault("icebreaker.direct_backend", "anthropic")
	v.SetDefault("icebreaker.template", DefaultTemplate)
	v.SetDefault("icebreaker.fallback_template", DefaultFallbackTemplate)
	v.SetDefault("icebreaker.relay_url", "")
	v.SetDefault("icebreaker.relay_timeout_secs", 30)
	v.SetDefault("icebreaker.relay_breaker_threshold", 5)
	v.SetDefault("icebreaker.relay_breaker_reset_secs", 60)
	v.SetDefault("icebreaker.batch_concurrency", 5)
	v.SetDefault("icebreaker.batch_rps", 0)

	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("anthropic.max_tokens", 100)
	v.SetDefault("anthropic.temperature", 0.7)

	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")

	v.SetDefault("instantly.key", "")
	v.SetDefault("instantly.base_url", "https://api.instantly.ai/api/v1")

	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("notion.status_property", "Status")

	v.SetDefault("dispatch.batch_size", 50)
	v.SetDefault("dispatch.lead_delay_ms", 500)
	v.SetDefault("dispatch.batch_pause_ms", 2000)

	v.SetDefault("store.driver", "none")
	v.SetDefault("store.database_url", "")

	v.SetDefault("report.dir", ".")
	v.SetDefault("notify.slack_webhook_url", "")

	v.SetDefault("monitor.window_hours", 24)
	v.SetDefault("monitor.model", "claude-3-5-haiku-20241022")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
