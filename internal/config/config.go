// Package config loads application configuration and initializes logging.
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
	Okta   OktaConfig   `yaml:"okta" mapstructure:"okta"`
	Twilio TwilioConfig `yaml:"twilio" mapstructure:"twilio"`
	Hook   HookConfig   `yaml:"hook" mapstructure:"hook"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// OktaConfig holds Okta org credentials and client tuning.
type OktaConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	APIToken          string  `yaml:"api_token" mapstructure:"api_token"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// TwilioConfig holds Twilio account credentials and the Verify service.
type TwilioConfig struct {
	AccountSID       string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken        string `yaml:"auth_token" mapstructure:"auth_token"`
	VerifyServiceSID string `yaml:"verify_service_sid" mapstructure:"verify_service_sid"`
}

// HookConfig configures the inbound hook endpoints.
type HookConfig struct {
	SharedSecret    string `yaml:"shared_secret" mapstructure:"shared_secret"`
	TimeoutWarnSecs int    `yaml:"timeout_warn_secs" mapstructure:"timeout_warn_secs"`
}

// ServerConfig configures the hook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level         string `yaml:"level" mapstructure:"level"`
	Format        string `yaml:"format" mapstructure:"format"`
	VerboseEvents bool   `yaml:"verbose_events" mapstructure:"verbose_events"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VERIFY_FEEDBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("okta.requests_per_second", 10.0)
	v.SetDefault("hook.timeout_warn_secs", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.verbose_events", false)

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
