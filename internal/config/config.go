// Package config loads application configuration from TOML files with
// multi-path lookup and a lazy singleton accessor.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// MainConfig holds process-level settings.
type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Mode    string `toml:"mode"`    // "dev" or "release"
	SSLHost string `toml:"sslHost"` // non-empty enables the TLS redirect middleware
}

// StorageConfig selects the durable store backend.
// Backend is one of "file", "sqlite", "mysql".
type StorageConfig struct {
	Backend  string `toml:"backend"`
	// file backend
	StateDir string `toml:"stateDir"`
	// sqlite backend
	SqlitePath string `toml:"sqlitePath"`
	// mysql backend
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

// RedisConfig configures the optional nickname cache.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	Db       int    `toml:"db"`
}

// LogConfig configures zap + lumberjack rotation.
type LogConfig struct {
	LogPath    string `toml:"logPath"`
	FileName   string `toml:"fileName"`
	MaxSize    int    `toml:"maxSize"`    // MB per file
	MaxBackups int    `toml:"maxBackups"`
	MaxAge     int    `toml:"maxAge"`     // days
	Level      string `toml:"level"`
}

// BrokerConfig selects how room broadcasts are routed.
// MessageMode is "channel" (in-process, default) or "kafka".
type BrokerConfig struct {
	MessageMode string `toml:"messageMode"`
	HostPort    string `toml:"hostPort"`
	ChatTopic   string `toml:"chatTopic"`
	Partition   int    `toml:"partition"`
}

// JWTConfig configures token signing.
type JWTConfig struct {
	Secret             string `toml:"secret"`
	AccessTokenExpiry  int    `toml:"accessTokenExpiry"`  // minutes
	RefreshTokenExpiry int    `toml:"refreshTokenExpiry"` // hours
}

// Config aggregates all subsystem configuration.
type Config struct {
	MainConfig    `toml:"mainConfig"`
	StorageConfig `toml:"storageConfig"`
	RedisConfig   `toml:"redisConfig"`
	LogConfig     `toml:"logConfig"`
	BrokerConfig  `toml:"brokerConfig"`
	JWTConfig     `toml:"jwtConfig"`
}

var config *Config

// LoadConfig tries the candidate paths in order and stops at the first
// readable configuration file.
func LoadConfig() error {
	paths := []string{
		"configs/config_local.toml",
		"configs/config.toml",
		"../../configs/config_local.toml",
		"../../configs/config.toml",
	}
	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}
	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// GetConfig returns the global configuration, loading it on first use.
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig() // fall back to zero values when no file is present
	}
	return config
}
