// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeTempConfig(t *testing.T, content string) string {
	tmpfile, err := os.CreateTemp("", "config.*.yaml")
	assert.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	_, err = tmpfile.Write([]byte(content))
	assert.NoError(t, err)
	tmpfile.Close()
	return tmpfile.Name()
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CLIENT_ID", "")
	t.Setenv("CLIENT_SECRET", "")
	os.Unsetenv("CLIENT_ID")
	os.Unsetenv("CLIENT_SECRET")

	name := writeTempConfig(t, `
server:
  host: testhost
  port: 9090

api:
  base_path: /.netlify/functions/album

catalog:
  client_id: "  abc  "
  client_secret: def
  token_url: http://identity.test/api/token
  api_url: http://catalog.test/v1/
  expiry_margin_seconds: 30
  strip_markets: true

metrics:
  enabled: true
  path: /metrics
`)

	cfg, err := LoadConfig(name)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "testhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/.netlify/functions/album", cfg.API.BasePath)
	assert.Equal(t, "abc", cfg.Catalog.ClientID)
	assert.Equal(t, "def", cfg.Catalog.ClientSecret)
	assert.Equal(t, "http://identity.test/api/token", cfg.Catalog.TokenURL)
	assert.Equal(t, "http://catalog.test/v1", cfg.Catalog.APIURL)
	assert.Equal(t, 30*time.Second, cfg.ExpiryMargin())
	assert.True(t, cfg.Catalog.StripMarkets)
	assert.Equal(t, DefaultMarketsField, cfg.Catalog.MarketsField)
	assert.Equal(t, true, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.CheckCredentials())
}

func TestDefaultValues(t *testing.T) {
	os.Unsetenv("CLIENT_ID")
	os.Unsetenv("CLIENT_SECRET")

	cfg, err := LoadConfig(writeTempConfig(t, `{}`))
	assert.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/", cfg.API.BasePath)
	assert.Equal(t, DefaultTokenURL, cfg.Catalog.TokenURL)
	assert.Equal(t, DefaultAPIURL, cfg.Catalog.APIURL)
	assert.Equal(t, 60*time.Second, cfg.ExpiryMargin())
	assert.Equal(t, time.Duration(0), cfg.UpstreamTimeout())
	assert.False(t, cfg.Catalog.StripMarkets)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 3600, cfg.Access.Redis.KeyTTL)
	assert.ErrorIs(t, cfg.CheckCredentials(), ErrMissingCredentials)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CLIENT_ID", " env-id\n")
	t.Setenv("CLIENT_SECRET", "\tenv-secret ")

	cfg, err := LoadConfig(writeTempConfig(t, `
catalog:
  client_id: file-id
  client_secret: file-secret
`))
	assert.NoError(t, err)
	assert.Equal(t, "env-id", cfg.Catalog.ClientID)
	assert.Equal(t, "env-secret", cfg.Catalog.ClientSecret)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("CLIENT_ID", "")
	os.Unsetenv("CLIENT_ID")

	path := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, os.WriteFile(path, []byte("CLIENT_ID=from-dotenv\n"), 0600))

	LoadDotEnv(path)
	assert.Equal(t, "from-dotenv", os.Getenv("CLIENT_ID"))

	// a missing file is not an error
	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeTempConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
