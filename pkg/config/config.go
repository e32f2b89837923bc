// Package config loads user configuration for the CLI and server.
//
// Configuration lives in a TOML file under the user's config directory
// (see DefaultPath). Every field has a sensible default, so a missing file
// is not an error, and the SOLGRAPH_API_KEY / ETHERSCAN_API_KEY environment
// variables override the file for the one secret most users set.
package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/solgraph/solgraph/pkg/cache"
	"github.com/solgraph/solgraph/pkg/errors"
	"github.com/solgraph/solgraph/pkg/etherscan"
)

// Cache backend names accepted in the config file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the full user configuration.
type Config struct {
	// APIKey authenticates against the block explorer API.
	APIKey string `toml:"api_key"`

	// Network selects the explorer network (see etherscan.Networks).
	Network string `toml:"network"`

	Cache  CacheConfig  `toml:"cache"`
	Render RenderConfig `toml:"render"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the response cache backend.
type CacheConfig struct {
	// Backend is one of file, redis, mongo, or none.
	Backend string `toml:"backend"`

	// Dir overrides the file backend's cache directory.
	Dir string `toml:"dir"`

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// RedisConfig mirrors cache.RedisConfig with TOML tags.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig mirrors cache.MongoConfig with TOML tags.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// RenderConfig holds diagram defaults applied when flags don't override them.
type RenderConfig struct {
	Format         string  `toml:"format"`
	Scale          float64 `toml:"scale"`
	ClusterFolders bool    `toml:"cluster_folders"`
}

// ServerConfig configures the HTTP diagram server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Network: etherscan.DefaultNetwork,
		Cache:   CacheConfig{Backend: BackendFile},
		Render:  RenderConfig{Format: "png", Scale: 2.0},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// DefaultPath returns the standard config file location,
// e.g. ~/.config/solgraph/config.toml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "solgraph", "config.toml"), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults. Environment variables
// SOLGRAPH_API_KEY and ETHERSCAN_API_KEY override the file's api_key.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			applyEnv(&cfg)
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file, defaults apply.
	case err != nil:
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.validate()
}

func applyEnv(cfg *Config) {
	for _, name := range []string{"SOLGRAPH_API_KEY", "ETHERSCAN_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			cfg.APIKey = v
			return
		}
	}
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "", BackendFile, BackendRedis, BackendMongo, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"unknown cache backend %q (supported: file, redis, mongo, none)", c.Cache.Backend)
	}
	if _, ok := etherscan.Networks[c.Network]; !ok && c.Network != "" {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown network %q", c.Network)
	}
	return nil
}

// OpenCache opens the configured cache backend. The fallbackDir is used for
// the file backend when no directory is configured.
func (c Config) OpenCache(ctx context.Context, fallbackDir string) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil

	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		})

	case BackendMongo:
		return cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        c.Cache.Mongo.URI,
			Database:   c.Cache.Mongo.Database,
			Collection: c.Cache.Mongo.Collection,
		})

	default: // file
		dir := c.Cache.Dir
		if dir == "" {
			dir = fallbackDir
		}
		return cache.NewFileCache(dir)
	}
}
