package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BroadcastConfig struct {
	Driver string `mapstructure:"driver"` // "redis" or "nats"
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type PushConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type WSConfig struct {
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	// CallLimit caps call attempts per peer per CallWindow. 0 disables.
	CallLimit  int           `mapstructure:"call_limit"`
	CallWindow time.Duration `mapstructure:"call_window"`
}

type TrackerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RingTimeout time.Duration `mapstructure:"ring_timeout"`
}

type Config struct {
	Mode      string          `mapstructure:"mode"`
	Port      int             `mapstructure:"port"`
	NodeID    string          `mapstructure:"node_id"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Push      PushConfig      `mapstructure:"push"`
	WS        WSConfig        `mapstructure:"ws"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
}

// Load reads config/config.<CONFIG_ENV>.yaml with sane defaults. An
// empty redis.addr selects the in-process single-node drivers.
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
	v.SetDefault("node_id", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("broadcast.driver", "redis")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("push.credentials_file", "")
	v.SetDefault("ws.read_limit", 32768)
	v.SetDefault("ws.ping_period", "54s")
	v.SetDefault("ws.call_limit", 15)
	v.SetDefault("ws.call_window", "1m")
	v.SetDefault("tracker.enabled", true)
	v.SetDefault("tracker.ring_timeout", "2m")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
