package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string        `mapstructure:"port"`
	GinMode       string        `mapstructure:"gin_mode"`
	AnalyticsDB   string        `mapstructure:"analytics_db"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

var keys = []string{"port", "gin_mode", "analytics_db", "admin_username", "admin_password", "session_ttl"}

// Load reads configuration from cfgFile (optional) and the environment.
// Environment variables use the upper-cased key names, e.g. PORT or
// ADMIN_PASSWORD, so a .env file loaded by godotenv applies directly.
func Load(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "")
	v.SetDefault("analytics_db", "portfolio.db")
	v.SetDefault("admin_username", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("session_ttl", 30*time.Minute)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("session_ttl must be positive, got %s", cfg.SessionTTL)
	}
	return cfg, nil
}
