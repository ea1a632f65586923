package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	APIBase        string        `mapstructure:"api_base"`
	WSBase         string        `mapstructure:"ws_base"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	ReadLimit      int64         `mapstructure:"read_limit"`
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

	v.SetDefault("api_base", "https://itsjustwatched.com/api/v1")
	v.SetDefault("ws_base", "wss://itsjustwatched.com/api/v1")
	v.SetDefault("ping_period", "30s")
	v.SetDefault("connect_timeout", "5s")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("read_limit", 32768)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
