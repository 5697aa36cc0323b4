package config

import (
	"os"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reunite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "reunite.db", cfg.DB)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 65, cfg.Match.Threshold)
	assert.Equal(t, 3, cfg.Match.Limit)
	assert.Equal(t, "db", cfg.Images.Backend)
	assert.Equal(t, 1024, cfg.Images.MaxDimension)
	assert.Equal(t, 256, cfg.Scans.Sessions)
	assert.Equal(t, 64, cfg.Notify.Queue)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, `
addr: 127.0.0.1:9000
match:
  threshold: 70
images:
  backend: s3
s3:
  endpoint: minio:9000
  secret_key: hunter2
notify:
  backend: http
  private_key: shh
`)
	t.Setenv("REUNITE_MATCH_LIMIT", "5")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 70, cfg.Match.Threshold)
	assert.Equal(t, 5, cfg.Match.Limit)
	assert.Equal(t, "s3", cfg.Images.Backend)
	assert.Equal(t, "reunite", cfg.S3.Bucket)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.NotContains(t, string(out), "shh")

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, cfg.Addr, back.Addr)
	assert.Equal(t, redacted, back.S3.SecretKey)
	assert.Equal(t, "hunter2", cfg.S3.SecretKey, "YAML must not modify the config")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Log:    LogConfig{Level: "info"},
			Match:  MatchConfig{Threshold: 65, Limit: 3},
			Images: ImageConfig{Backend: "db"},
			Notify: NotifyConfig{Backend: "none", Queue: 1},
			Scans:  ScanConfig{Sessions: 1},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown image backend", func(c *Config) { c.Images.Backend = "ftp" }},
		{"s3 without endpoint", func(c *Config) { c.Images.Backend = "s3"; c.S3.Bucket = "b" }},
		{"unknown notifier", func(c *Config) { c.Notify.Backend = "pigeon" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"threshold too high", func(c *Config) { c.Match.Threshold = 101 }},
		{"zero limit", func(c *Config) { c.Match.Limit = 0 }},
		{"zero sessions", func(c *Config) { c.Scans.Sessions = 0 }},
		{"zero notify queue", func(c *Config) { c.Notify.Queue = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
