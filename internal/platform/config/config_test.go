package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return tmp
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	for _, k := range []string{"APP_ADDR", "API_BASE_PATH", "DB_TIMEOUT", "LOG_LEVEL", "RATE_LIMIT_RPS", "AUTH_JWT_SECRET", "LLM_API_URL", "ENABLE_DASHBOARD"} {
		t.Setenv(k, "")
	}

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/api/v1", c.BasePath)
	assert.Equal(t, 3*time.Second, c.DBTimeout)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.AuthEnabled())
	assert.False(t, c.LLMEnabled())
	assert.True(t, c.EnableDashboard)
}

func TestLoad_Overrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("API_BASE_PATH", "/api/v2/")
	t.Setenv("DB_TIMEOUT", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("ENABLE_DASHBOARD", "false")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("RATE_LIMIT_BURST", "5")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v2", c.BasePath)
	assert.Equal(t, 750*time.Millisecond, c.DBTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSAllowedOrigins)
	assert.False(t, c.EnableDashboard)
	assert.True(t, c.AuthEnabled())
	assert.Equal(t, 5, c.RateLimitBurst)
}

func TestLoad_ParseErrors(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DB_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_TIMEOUT")
	assert.Contains(t, err.Error(), "RATE_LIMIT_BURST")
}

func TestLoad_EnvFileDoesNotOverrideEnv(t *testing.T) {
	tmp := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"), []byte("APP_ADDR=:9999\nSERVICE_NAME=from-file\n"), 0o644))
	t.Setenv("APP_ADDR", ":7000")
	t.Setenv("SERVICE_NAME", "")
	_ = os.Unsetenv("SERVICE_NAME")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.Addr)
	assert.Equal(t, "from-file", c.ServiceName)
}

func TestValidate(t *testing.T) {
	c := &Config{
		Addr: ":8080", BasePath: "api", DBDSN: "x", DBTimeout: time.Second,
		RateLimitRPS: 1, RateLimitBurst: 1, MaxBodyBytes: 1, CoversMaxBytes: 1,
		OpenLibraryRPS: 1, LogLevel: "loud",
	}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_BASE_PATH")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("DB_DSN", "")
	assert.Equal(t, DefaultDSN, DSNFromEnv())

	t.Setenv("DB_DSN", " postgres://u:p@db:5432/x ")
	assert.Equal(t, "postgres://u:p@db:5432/x", DSNFromEnv())
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@localhost:5432/db", RedactDSN("postgres://user:pw@localhost:5432/db"))
	assert.Equal(t, "localhost", RedactDSN("localhost"))
}
