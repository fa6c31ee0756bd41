package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Kakao     KakaoConfig     `yaml:"kakao" mapstructure:"kakao"`
	Naver     NaverConfig     `yaml:"naver" mapstructure:"naver"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Bluer     BluerConfig     `yaml:"bluer" mapstructure:"bluer"`
	Michelin  MichelinConfig  `yaml:"michelin" mapstructure:"michelin"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Build     BuildConfig     `yaml:"build" mapstructure:"build"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the discovery database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// KakaoConfig holds Kakao Local API credentials.
type KakaoConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// NaverConfig holds Naver Open API credentials.
type NaverConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	AnalystModel string `yaml:"analyst_model" mapstructure:"analyst_model"`
	CriticModel  string `yaml:"critic_model" mapstructure:"critic_model"`
}

// NotionConfig holds Notion API credentials and the review database ID.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReviewDB string `yaml:"review_db" mapstructure:"review_db"`
}

// BluerConfig configures the Blue Ribbon Survey source.
type BluerConfig struct {
	Zones []string `yaml:"zones" mapstructure:"zones"`
	Years []int    `yaml:"years" mapstructure:"years"`
}

// MichelinConfig configures the Michelin Guide source.
type MichelinConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
}

// DiscoveryConfig configures the discovery pipeline.
type DiscoveryConfig struct {
	PlanPath      string `yaml:"plan_path" mapstructure:"plan_path"`
	PostDelayMS   int    `yaml:"post_delay_ms" mapstructure:"post_delay_ms"`
	ExportMinimum int    `yaml:"export_minimum" mapstructure:"export_minimum"`
}

// BuildConfig configures the site build pipeline.
type BuildConfig struct {
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	SiteDir string `yaml:"site_dir" mapstructure:"site_dir"`
	// LedgerPath is where geocode results persist between runs.
	LedgerPath      string `yaml:"ledger_path" mapstructure:"ledger_path"`
	PreferredSource string `yaml:"preferred_source" mapstructure:"preferred_source"`
}

// ServerConfig configures the local preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GUIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/discovery.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.analyst_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.critic_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("discovery.plan_path", "plan.yaml")
	v.SetDefault("discovery.post_delay_ms", 500)
	v.SetDefault("discovery.export_minimum", 80)
	v.SetDefault("build.data_dir", "data")
	v.SetDefault("build.site_dir", "site")
	v.SetDefault("build.ledger_path", "data/kakao_ledger.json")
	v.SetDefault("build.preferred_source", "michelin")

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
