package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: 8081
mysql:
  host: db
  user: app
  password: secret
  database: studyverse_test
kafka:
  enabled: false
  brokers: ["k1:9092", "k2:9092"]
jwt:
  secret: from-file
business:
  initial_balance: 500
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "db", cfg.MySQL.Host)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, "studyverse_test", cfg.MySQL.Database)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "studyverse.purchase", cfg.Kafka.Topic.PurchaseEvents)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 5, cfg.JWT.ExpireHours)
	assert.Equal(t, int64(500), cfg.Business.InitialBalance)
	assert.Equal(t, 5, cfg.Business.MaxRetryCount)
	assert.Equal(t, "uploads", cfg.Server.UploadDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("BUSINESS_INITIAL_BALANCE", "42")

	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.Equal(t, int64(42), cfg.Business.InitialBalance)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
