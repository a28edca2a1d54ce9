// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials reports that the catalog client id or secret is unset.
// It is a startup warning only; the proxy still serves requests.
var ErrMissingCredentials = errors.New("missing catalog credentials in env vars")

const (
	DefaultTokenURL     = "https://accounts.spotify.com/api/token"
	DefaultAPIURL       = "https://api.spotify.com/v1"
	DefaultMarketsField = "available_markets"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	API struct {
		BasePath    string `yaml:"base_path"`
		SwaggerHost string `yaml:"swagger_host"`
	} `yaml:"api"`

	Catalog struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		TokenURL     string `yaml:"token_url"`
		APIURL       string `yaml:"api_url"`
		ExpiryMargin int    `yaml:"expiry_margin_seconds"`
		Timeout      int    `yaml:"timeout_seconds"` // 0 keeps the http.Client default (none)
		StripMarkets bool   `yaml:"strip_markets"`
		MarketsField string `yaml:"markets_field"`
	} `yaml:"catalog"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Access struct {
		Enabled bool     `yaml:"enabled"`
		Keys    []string `yaml:"keys"` // Fallback static keys
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			KeyTTL   int    `yaml:"key_ttl"` // TTL in seconds
		} `yaml:"redis"`
		Postgres struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			Query    string `yaml:"query"` // Parameterized query for key lookup
		} `yaml:"postgres"`
	} `yaml:"access"`
}

// LoadConfig reads the yaml file, fills defaults and applies the
// CLIENT_ID / CLIENT_SECRET environment overrides.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	return config, nil
}

// LoadDotEnv loads a .env file into the process environment if one exists.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.API.BasePath == "" {
		c.API.BasePath = "/"
	}
	if c.Catalog.TokenURL == "" {
		c.Catalog.TokenURL = DefaultTokenURL
	}
	if c.Catalog.APIURL == "" {
		c.Catalog.APIURL = DefaultAPIURL
	}
	c.Catalog.APIURL = strings.TrimRight(c.Catalog.APIURL, "/")
	if c.Catalog.ExpiryMargin == 0 {
		c.Catalog.ExpiryMargin = 60
	}
	if c.Catalog.MarketsField == "" {
		c.Catalog.MarketsField = DefaultMarketsField
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Access.Redis.KeyTTL == 0 {
		c.Access.Redis.KeyTTL = 3600
	}
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("CLIENT_ID"); ok {
		c.Catalog.ClientID = v
	}
	if v, ok := os.LookupEnv("CLIENT_SECRET"); ok {
		c.Catalog.ClientSecret = v
	}
	c.Catalog.ClientID = strings.TrimSpace(c.Catalog.ClientID)
	c.Catalog.ClientSecret = strings.TrimSpace(c.Catalog.ClientSecret)
}

// CheckCredentials returns ErrMissingCredentials when either catalog secret is empty.
func (c *Config) CheckCredentials() error {
	if c.Catalog.ClientID == "" || c.Catalog.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// ExpiryMargin is how long before the reported lifetime ends a credential is refreshed.
func (c *Config) ExpiryMargin() time.Duration {
	return time.Duration(c.Catalog.ExpiryMargin) * time.Second
}

// UpstreamTimeout is the outbound client timeout; zero means none.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Catalog.Timeout) * time.Second
}
