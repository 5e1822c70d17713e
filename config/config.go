// File: config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package config loads consumer configuration for the bridge, its debug
// endpoint and the driver backends.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/momentics/hostbridge/observability"
)

// Config is the root configuration.
type Config struct {
	Log       observability.LogConfig `mapstructure:"log"`
	DebugAddr string                  `mapstructure:"debug_addr"`
	Driver    DriverConfig            `mapstructure:"driver"`
}

// DriverConfig configures the query backends.
type DriverConfig struct {
	// Addr is the rowwire server address for the asynchronous backend.
	Addr string `mapstructure:"addr"`
	// Database is the SQLite path for the synchronous backend.
	Database string `mapstructure:"database"`
	// CacheCapacity bounds the per-connection query cache; 0 disables it.
	CacheCapacity int `mapstructure:"cache_capacity"`
}

// Load reads configuration from the optional file at path plus HOSTBRIDGE_
// environment variables. Missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("debug_addr", "")
	v.SetDefault("driver.addr", "127.0.0.1:7654")
	v.SetDefault("driver.database", "hostbridge.db")
	v.SetDefault("driver.cache_capacity", 0)

	v.SetEnvPrefix("HOSTBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
