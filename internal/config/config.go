// go-xelc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-xelc.
//
// go-xelc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-xelc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-xelc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package config loads server configuration from file and environment
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/transport/uart"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. XELC_HTTP_PORT
const EnvPrefix = "XELC"

// HTTPConfig configures the HTTP listener
type HTTPConfig struct {
	IP           string        `mapstructure:"ip"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	// RateLimit is the sustained requests per second allowed per client
	RateLimit float64 `mapstructure:"rateLimit"`
	Burst     int     `mapstructure:"burst"`
}

// Addr returns the listen address
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.IP, strconv.Itoa(h.Port))
}

// ReaderConfig holds defaults for sessions opened through the API
type ReaderConfig struct {
	CardType     string           `mapstructure:"cardType"`
	Serial       uart.PortOptions `mapstructure:"serial"`
	Blocklist    []string         `mapstructure:"blocklist"`
	IgnorePaths  []string         `mapstructure:"ignorePaths"`
	PollInterval time.Duration    `mapstructure:"pollInterval"`
	Debug        bool             `mapstructure:"debug"`
}

// LumberjackConfig configures log file rotation
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets log level, encoding and optional file output
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Path   string `mapstructure:"path"`
	Enable bool   `mapstructure:"enable"`
}

// Config is the top-level configuration
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Reader  ReaderConfig  `mapstructure:"reader"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Load reads configuration from path, or from the file named by
// XELC_CONFIG, or from xelc.yaml in the working directory or ./configs.
// A missing default file is not an error; defaults and environment
// variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("xelc")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http.port %d", c.HTTP.Port)
	}
	if _, err := xelc.ParseCardType(c.Reader.CardType); err != nil {
		return fmt.Errorf("invalid reader.cardType: %w", err)
	}
	if c.Reader.PollInterval < 0 {
		return fmt.Errorf("invalid reader.pollInterval %v", c.Reader.PollInterval)
	}
	if _, err := c.Reader.Serial.Normalize(); err != nil {
		return fmt.Errorf("invalid reader.serial: %w", err)
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.Burst < 0 {
		return errors.New("http.rateLimit and http.burst must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.ip", "::")
	v.SetDefault("http.port", 8180)
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")
	v.SetDefault("http.rateLimit", 50)
	v.SetDefault("http.burst", 100)

	v.SetDefault("reader.cardType", xelc.CardTypeUltraLight.String())
	v.SetDefault("reader.pollInterval", xelc.DefaultPollInterval.String())
	v.SetDefault("reader.debug", false)
	v.SetDefault("reader.serial.baudRate", 115200)
	v.SetDefault("reader.serial.dataBits", 8)
	v.SetDefault("reader.serial.stopBits", 1)
	v.SetDefault("reader.serial.parity", "N")
	v.SetDefault("reader.serial.readTimeout", uart.DefaultReadTimeout.String())
	v.SetDefault("reader.blocklist", []string{})
	v.SetDefault("reader.ignorePaths", []string{})

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 50)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 14)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")
}
