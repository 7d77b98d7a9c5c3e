package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	BaseURL    string        `mapstructure:"base_url"`

	// SubscriptionStore selects the push subscription backing:
	// "sqlite" (durable) or "memory" (lost on restart).
	SubscriptionStore string `mapstructure:"subscription_store"`
	SQLitePath        string `mapstructure:"sqlite_path"`

	PushTimeout    time.Duration `mapstructure:"push_timeout"`
	PersistTimeout time.Duration `mapstructure:"persist_timeout"`

	VapidPublicKey  string `mapstructure:"vapid_public_key"`
	VapidPrivateKey string `mapstructure:"vapid_private_key"`
	VapidSubject    string `mapstructure:"vapid_subject"`

	MessageRateLimit  int           `mapstructure:"message_rate_limit"`
	MessageRateWindow time.Duration `mapstructure:"message_rate_window"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("chatio")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("subscription_store", "sqlite")
	v.SetDefault("sqlite_path", "chatio.db")
	v.SetDefault("push_timeout", "10s")
	v.SetDefault("persist_timeout", "5s")
	v.SetDefault("vapid_subject", "mailto:test@test.com")
	v.SetDefault("message_rate_limit", 10)
	v.SetDefault("message_rate_window", "10s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults and env")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("subscription_store", cfg.SubscriptionStore).Msg("config ready")
	return &cfg, nil
}
