// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://auratrack@localhost:5432/auratrack")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4000, c.Server.Port)
	assert.Equal(t, "jwt", c.Session.CookieName)
	assert.Equal(t, 90*24*time.Hour, c.Session.MaxAge)
	assert.Equal(t, "metrics", c.Redis.MetricPrefix)
	assert.Equal(t, "/graphql", c.GraphQL.Path)
	assert.Equal(t, "admin@auratrack.io", c.Admin.MasterEmail)
	assert.True(t, c.IsDevelopment())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COOKIE_EXPIRES_IN", "7")
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_MASTER_EMAIL", "root@auratrack.io")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
rate_limit:
  requests: 5
  window: 10s
graphql:
  introspection: false
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port, "env wins over file")
	assert.Equal(t, 7*24*time.Hour, c.Session.MaxAge)
	assert.Equal(t, "root@auratrack.io", c.Admin.MasterEmail)
	assert.Equal(t, 5, c.RateLimit.Requests)
	assert.Equal(t, 10*time.Second, c.RateLimit.Window)
	assert.False(t, c.GraphQL.Introspection)
}

func TestEnvValue(t *testing.T) {
	key, value := envValue("COOKIE_EXPIRES_IN", " 30 ")
	assert.Equal(t, "session.max_age", key)
	assert.Equal(t, "720h0m0s", value)

	key, value = envValue("COOKIE_EXPIRES_IN", "-1")
	assert.Equal(t, "session.max_age", key)
	assert.Equal(t, "invalid", value)

	key, _ = envValue("HOME", "/root")
	assert.Empty(t, key, "unknown vars are ignored")

	key, value = envValue("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	assert.Equal(t, "otel.endpoint", key)
	assert.Equal(t, "collector:4317", value)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}},
		{"missing redis", map[string]string{"REDIS_URL": ""}},
		{"bad cookie lifetime", map[string]string{"COOKIE_EXPIRES_IN": "soon"}},
		{"insecure cookie in production", map[string]string{"ENVIRONMENT": "production"}},
		{"missing master email", map[string]string{"ADMIN_MASTER_EMAIL": ""}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"sample rate above one", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidationNamesConfigKeys(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIS_URL", "")
	t.Setenv("PORT", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `redis.url fails "required"`)
	assert.Contains(t, err.Error(), `server.port fails "min"`)
}

func TestServerAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 4000}
	assert.Equal(t, "127.0.0.1:4000", s.Address())
}
