package config

import (
	"time"

	"github.com/spf13/viper"
)

type Redis struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DB       int

	MinIdleConns    int
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	MaxWorkers   int
	MaxQueueSize int

	// Publish retry backoff bounds
	MaxElapsedTime time.Duration
	MaxInterval    time.Duration

	// Optional mutual TLS
	ClientCert string
	ClientKey  string
	CaCert     string
}

func setRedisDefaults() {
	viper.SetDefault("Redis.Enabled", "false")
	viper.SetDefault("Redis.Host", "127.0.0.1")
	viper.SetDefault("Redis.Port", "6379")
	viper.SetDefault("Redis.User", "")
	viper.SetDefault("Redis.Password", "")
	viper.SetDefault("Redis.DB", "0")
	viper.SetDefault("Redis.MinIdleConns", "1")
	viper.SetDefault("Redis.MaxIdleConns", "4")
	viper.SetDefault("Redis.MaxOpenConns", "10")
	viper.SetDefault("Redis.ConnMaxIdleTime", "5m")
	viper.SetDefault("Redis.ConnMaxLifetime", "30m")
	viper.SetDefault("Redis.MaxWorkers", "5")
	viper.SetDefault("Redis.MaxQueueSize", "100")
	viper.SetDefault("Redis.MaxElapsedTime", "30s")
	viper.SetDefault("Redis.MaxInterval", "5s")
	viper.SetDefault("Redis.ClientCert", "")
	viper.SetDefault("Redis.ClientKey", "")
	viper.SetDefault("Redis.CaCert", "")
}
