package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("NGA_TEST_HOST", "db.internal")
	os.Unsetenv("NGA_TEST_MISSING")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "set variable wins over default", in: "host: ${NGA_TEST_HOST:localhost}", want: "host: db.internal"},
		{name: "unset variable falls back to default", in: "host: ${NGA_TEST_MISSING:localhost}", want: "host: localhost"},
		{name: "empty default allowed", in: "password: ${NGA_TEST_MISSING:}", want: "password: "},
		{name: "default may contain url", in: "endpoint: ${NGA_TEST_MISSING:http://localhost:4317}", want: "endpoint: http://localhost:4317"},
		{name: "unset without default kept verbatim", in: "key: ${NGA_TEST_MISSING}", want: "key: ${NGA_TEST_MISSING}"},
		{name: "multiple placeholders on one line", in: "${NGA_TEST_HOST:x}:${NGA_TEST_MISSING:5432}", want: "db.internal:5432"},
		{name: "plain text untouched", in: "name: nga-curator", want: "name: nga-curator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", name), []byte(content), 0o644))
}

const baseConfigYAML = `app:
  name: ${NGA_TEST_APP_NAME:nga-curator}
  env: development
server:
  http:
    port: ${NGA_TEST_HTTP_PORT:8080}
database:
  postgres:
    host: ${NGA_TEST_PG_HOST:localhost}
    password: ${NGA_TEST_PG_PASSWORD:}
curator:
  search:
    default_limit: 25
`

func TestLoad(t *testing.T) {
	t.Run("expands placeholders and applies defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "config.yaml", baseConfigYAML)
		t.Chdir(dir)
		t.Setenv("APP_ENV", "development")
		t.Setenv("NGA_TEST_HTTP_PORT", "9090")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "nga-curator", cfg.App.Name)
		assert.Equal(t, 9090, cfg.Server.HTTP.Port)
		assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
		assert.Empty(t, cfg.Database.Postgres.Password)
		assert.Equal(t, 25, cfg.Curator.Search.DefaultLimit)
		// 文件未覆盖的键落在 setDefaults 兜底值上
		assert.Equal(t, 10, cfg.Curator.Keywords.MaxKeywords)
		assert.Equal(t, "data", cfg.Ingest.DataDir)
	})

	t.Run("environment file overrides base file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "config.yaml", baseConfigYAML)
		writeConfigFile(t, dir, "config.production.yaml", "app:\n  env: production\nserver:\n  http:\n    port: 8443\n")
		t.Chdir(dir)
		t.Setenv("APP_ENV", "production")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "production", cfg.App.Env)
		assert.Equal(t, 8443, cfg.Server.HTTP.Port)
		assert.Equal(t, "nga-curator", cfg.App.Name, "base values survive the merge")
	})

	t.Run("missing environment file is not an error", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "config.yaml", baseConfigYAML)
		t.Chdir(dir)
		t.Setenv("APP_ENV", "staging")

		_, err := Load()
		require.NoError(t, err)
	})

	t.Run("missing base file is an error", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("APP_ENV", "development")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configs/config.yaml")
	})
}
