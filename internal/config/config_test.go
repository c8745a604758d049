package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
server:
  port: "9090"
database:
  host: db
  user: cert
  password: secret
  dbname: certdb
jwt:
  secret: file-secret
  expirationHrs: 12
exam:
  attempt_ttl_hours: 3
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromFileWithDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	path := writeConfig(t, testConfigYAML)

	cfg, err := Load(path)
	require.NoError(t, err, "Конфигурация должна загрузиться")

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port, "Порт БД по умолчанию")
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 12, cfg.JWT.ExpirationHrs)
	assert.Equal(t, time.Hour, cfg.Auth.PasswordResetTTL, "Токен сброса живет час по умолчанию")
	assert.Equal(t, 6, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 3*time.Hour, cfg.Exam.AttemptTTL())
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	path := writeConfig(t, testConfigYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	path := writeConfig(t, `
database:
  host: db
  user: cert
  dbname: certdb
`)

	_, err := Load(path)
	require.Error(t, err, "Без JWT секрета загрузка должна завершиться ошибкой")
	assert.Contains(t, err.Error(), "JWT secret")
}

func TestValidate(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	valid := Config{
		Database: DatabaseConfig{Host: "h", DBName: "d", User: "u"},
		JWT:      JWTConfig{Secret: "s", ExpirationHrs: 1},
	}
	require.NoError(t, valid.Validate())

	negativeTTL := valid
	negativeTTL.Exam.AttemptTTLHours = -1
	assert.Error(t, negativeTTL.Validate())

	noDB := valid
	noDB.Database.Host = ""
	assert.Error(t, noDB.Validate())
}

func TestPostgresStrings(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "db", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=db sslmode=disable", d.PostgresConnectionString())
	assert.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", d.PostgresURL())
}
