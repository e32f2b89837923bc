package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/solgraph/solgraph/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SOLGRAPH_API_KEY", "")
	t.Setenv("ETHERSCAN_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Network != "mainnet" {
		t.Errorf("Network = %q, want mainnet", cfg.Network)
	}
	if cfg.Cache.Backend != BackendFile {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Render.Scale != 2.0 {
		t.Errorf("Render.Scale = %v, want 2.0", cfg.Render.Scale)
	}
}

func TestLoadParsesFile(t *testing.T) {
	t.Setenv("SOLGRAPH_API_KEY", "")
	t.Setenv("ETHERSCAN_API_KEY", "")

	path := writeConfig(t, `
api_key = "from-file"
network = "polygon"

[cache]
backend = "redis"

[cache.redis]
addr = "localhost:6379"
db = 2

[render]
format = "svg"
cluster_folders = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Network != "polygon" {
		t.Errorf("Network = %q", cfg.Network)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Render.Format != "svg" || !cfg.Render.ClusterFolders {
		t.Errorf("Render = %+v", cfg.Render)
	}
	// Unset fields keep their defaults.
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("SOLGRAPH_API_KEY", "from-env")

	path := writeConfig(t, `api_key = "from-file"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.APIKey)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SOLGRAPH_API_KEY", "")
	t.Setenv("ETHERSCAN_API_KEY", "")

	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "[cache]\nbackend = \"memcached\""},
		{"unknown network", `network = "testnet9000"`},
		{"malformed toml", `network = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}
