package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	HubSpot      HubSpotConfig      `yaml:"hubspot" mapstructure:"hubspot"`
	Slack        SlackConfig        `yaml:"slack" mapstructure:"slack"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	Redis        RedisConfig        `yaml:"redis" mapstructure:"redis"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// HubSpotConfig holds HubSpot OAuth identity and client tuning.
type HubSpotConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string  `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	StaticToken  string  `yaml:"static_token" mapstructure:"static_token"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`

	// RefreshBufferSecs is the safety margin before token expiry at which a
	// refresh is triggered.
	RefreshBufferSecs int `yaml:"refresh_buffer_secs" mapstructure:"refresh_buffer_secs"`
}

// SlackConfig holds Slack API credentials.
type SlackConfig struct {
	BotToken      string `yaml:"bot_token" mapstructure:"bot_token"`
	SigningSecret string `yaml:"signing_secret" mapstructure:"signing_secret"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RedisConfig configures the key-value store backing credentials and thread
// context.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// OrchestratorConfig tunes the aggregation pipeline.
type OrchestratorConfig struct {
	SoftDeadlineSecs int `yaml:"soft_deadline_secs" mapstructure:"soft_deadline_secs"`
	TimelineMaxItems int `yaml:"timeline_max_items" mapstructure:"timeline_max_items"`
	HistoryMaxItems  int `yaml:"history_max_items" mapstructure:"history_max_items"`
	ThreadTTLHours   int `yaml:"thread_ttl_hours" mapstructure:"thread_ttl_hours"`
	DealSearchLimit  int `yaml:"deal_search_limit" mapstructure:"deal_search_limit"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RefreshBuffer returns the credential refresh buffer as a duration.
func (c HubSpotConfig) RefreshBuffer() time.Duration {
	return time.Duration(c.RefreshBufferSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEALBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so AutomaticEnv can bind them
	// during Unmarshal.
	v.SetDefault("hubspot.client_id", "")
	v.SetDefault("hubspot.client_secret", "")
	v.SetDefault("hubspot.static_token", "")
	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.signing_secret", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("hubspot.base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.timeout_secs", 10)
	v.SetDefault("hubspot.rate_limit_rps", 8)
	v.SetDefault("hubspot.refresh_buffer_secs", 300)
	v.SetDefault("slack.timeout_secs", 10)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.timeout_secs", 20)
	v.SetDefault("orchestrator.soft_deadline_secs", 45)
	v.SetDefault("orchestrator.timeline_max_items", 30)
	v.SetDefault("orchestrator.history_max_items", 50)
	v.SetDefault("orchestrator.thread_ttl_hours", 24)
	v.SetDefault("orchestrator.deal_search_limit", 5)

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
