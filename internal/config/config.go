package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode        string `mapstructure:"mode"`
	Port        int    `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`
	JWTSecret   string `mapstructure:"jwt_secret"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	// Throttle windows for connection-originated events; requests
	// inside a window are dropped, never queued.
	JoinThrottle    time.Duration `mapstructure:"join_throttle"`
	MessageThrottle time.Duration `mapstructure:"message_throttle"`

	// Grace periods before an emptied room is re-checked for close.
	LeaveGrace      time.Duration `mapstructure:"leave_grace"`
	DisconnectGrace time.Duration `mapstructure:"disconnect_grace"`
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

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("database_url", "postgres://localhost/studyhall?sslmode=disable")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("join_throttle", "1s")
	v.SetDefault("message_throttle", "100ms")
	v.SetDefault("leave_grace", "1s")
	v.SetDefault("disconnect_grace", "2s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
