package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
storage:
  driver: bolt
  bolt_path: /tmp/tp.db
cache:
  tours_ttl: 1m
jwt:
  secret: s3cret
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "bolt", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/tp.db", cfg.Storage.BoltPath)
	assert.Equal(t, time.Minute, cfg.Cache.ToursTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TipsTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Addr())
}

func TestLoad_MissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("TRAVELPLANNER_JWT_SECRET", "from-env")
	t.Setenv("TRAVELPLANNER_PORT", "9000")
	t.Setenv("TRAVELPLANNER_TIPS_TTL", "2h")
	t.Setenv("TRAVELPLANNER_DATA_DIR", "/srv/data")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TipsTTL)
	assert.Equal(t, filepath.Join("/srv/data", "users.json"), cfg.Storage.CollectionPath("users"))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad yaml", content: "server: [", env: nil},
		{name: "no secret", content: "server:\n  port: 80\n"},
		{name: "unknown storage driver", content: "jwt:\n  secret: x\nstorage:\n  driver: mongo\n"},
		{name: "s3 without bucket", content: "jwt:\n  secret: x\navatars:\n  driver: s3\n"},
		{name: "zero ttl", content: "jwt:\n  secret: x\ncache:\n  tours_ttl: 0s\n"},
		{name: "bad env port", content: "jwt:\n  secret: x\n", env: map[string]string{"TRAVELPLANNER_PORT": "eighty"}},
		{name: "bad env duration", content: "jwt:\n  secret: x\n", env: map[string]string{"TRAVELPLANNER_TOKEN_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "travel", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=travel sslmode=disable", db.DSN())
}
