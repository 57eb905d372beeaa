package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
server:
  host: "0.0.0.0"
  port: 8080
database:
  host: "localhost"
  port: 5432
  user: "compreg"
  database: "compreg_test"
  ssl_mode: "disable"
jwt:
  secret: "0123456789abcdef0123456789abcdef"
collaborators:
  competition_service_url: "http://comp.local"
  user_service_url: "http://users.local"
`

func TestLoad(t *testing.T) {
	t.Run("ValidConfigWithDefaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validConfig))
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
		assert.Equal(t, 64, cfg.Intake.QueueDepth)
		assert.Equal(t, 3, cfg.Intake.MaxAttempts)
		assert.Equal(t, 5, cfg.Intake.DedupWindowMinutes)
		assert.Equal(t, "mock", cfg.Payment.Type)
		assert.Equal(t, "0 */10 * * * *", cfg.Scheduler.PromoteWaitingLists)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		bad := `
server:
  port: 8080
database:
  host: "localhost"
  user: "compreg"
  database: "compreg_test"
collaborators:
  competition_service_url: "http://comp.local"
  user_service_url: "http://users.local"
`
		_, err := Load(writeConfig(t, bad))
		assert.ErrorContains(t, err, "JWT secret")
	})

	t.Run("ShortJWTSecretRejected", func(t *testing.T) {
		bad := `
server:
  port: 8080
database:
  host: "localhost"
  user: "compreg"
  database: "compreg_test"
jwt:
  secret: "short"
collaborators:
  competition_service_url: "http://comp.local"
  user_service_url: "http://users.local"
`
		_, err := Load(writeConfig(t, bad))
		assert.ErrorContains(t, err, "at least 32 characters")
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("SERVICE_TOKEN", "from-env")

		cfg, err := Load(writeConfig(t, validConfig))
		require.NoError(t, err)

		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "from-env", cfg.Collaborators.ServiceToken)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yaml")
		assert.Error(t, err)
	})
}

func TestGetDatabaseConnectionString(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://u:p@localhost:5432/d?sslmode=disable", cfg.GetDatabaseConnectionString())
}
