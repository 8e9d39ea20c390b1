// Package config loads the runtime configuration of the social cache.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file, then SOCIALCACHE_* environment variables (a .env file in the
// working directory is read first when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-social-cache/internal/cacheinfra"
	"github.com/goliatone/go-social-cache/internal/logging"
	"github.com/goliatone/go-social-cache/internal/store"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SOCIALCACHE_"

// Cache backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the full application configuration.
type Config struct {
	Log      logging.Config `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// IDNode is the snowflake node of this process.
	IDNode int64 `yaml:"id_node"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend        string        `yaml:"backend"`
	Prefix         string        `yaml:"prefix"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	// SenderTTL expires post_sender keys. Zero keeps them forever.
	SenderTTL            time.Duration `yaml:"sender_ttl"`
	ReconcileConcurrency int           `yaml:"reconcile_concurrency"`
	Redis                RedisConfig   `yaml:"redis"`
	Memo                 MemoConfig    `yaml:"memo"`
}

// RedisConfig is the user-facing form of cacheinfra.RedisConfig.
type RedisConfig struct {
	Addrs        []string      `yaml:"addrs"`
	MasterName   string        `yaml:"master_name"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MemoConfig sizes the in-process memo in front of sender lookups.
type MemoConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Capacity           int           `yaml:"capacity"`
	Shards             int           `yaml:"shards"`
	TTL                time.Duration `yaml:"ttl"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
	MissingRecords     bool          `yaml:"missing_records"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	// AutoMigrate creates missing tables on start.
	AutoMigrate bool `yaml:"auto_migrate"`
}

// MetricsConfig is where the metrics command serves Prometheus metrics.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// Defaults returns a configuration for a local Redis and SQLite file.
func Defaults() *Config {
	redis := cacheinfra.DefaultRedisConfig()
	memo := cacheinfra.DefaultMemoConfig()
	return &Config{
		Log: logging.Config{Level: "info", Format: "json", Sink: "stderr"},
		Cache: CacheConfig{
			Backend:              BackendRedis,
			CommandTimeout:       2 * time.Second,
			ReconcileConcurrency: 8,
			Redis: RedisConfig{
				Addrs:        redis.Addrs,
				DialTimeout:  redis.DialTimeout,
				ReadTimeout:  redis.ReadTimeout,
				WriteTimeout: redis.WriteTimeout,
			},
			Memo: MemoConfig{
				Enabled:            true,
				Capacity:           memo.Capacity,
				Shards:             memo.NumShards,
				TTL:                memo.TTL,
				EvictionPercentage: memo.EvictionPercentage,
				MissingRecords:     memo.MissingRecordStorage,
			},
		},
		Database: DatabaseConfig{
			Driver:      store.DriverSQLite,
			DSN:         "file:socialcache.db?cache=shared",
			AutoMigrate: true,
		},
		Metrics: MetricsConfig{Addr: ":9090", Path: "/metrics"},
		IDNode:  1,
	}
}

// Load resolves defaults, then the YAML file at path (skipped when path is
// empty or the file does not exist), then the environment. The result is
// validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookupEnv(name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookupEnv(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookupEnv(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookupEnv(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_SINK", &c.Log.Sink)

	str("CACHE_BACKEND", &c.Cache.Backend)
	str("CACHE_PREFIX", &c.Cache.Prefix)
	dur("CACHE_COMMAND_TIMEOUT", &c.Cache.CommandTimeout)
	dur("CACHE_SENDER_TTL", &c.Cache.SenderTTL)
	num("CACHE_RECONCILE_CONCURRENCY", &c.Cache.ReconcileConcurrency)

	if v, ok := lookupEnv("REDIS_ADDRS"); ok {
		c.Cache.Redis.Addrs = splitList(v)
	}
	str("REDIS_MASTER_NAME", &c.Cache.Redis.MasterName)
	str("REDIS_USERNAME", &c.Cache.Redis.Username)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	num("REDIS_DB", &c.Cache.Redis.DB)
	num("REDIS_POOL_SIZE", &c.Cache.Redis.PoolSize)

	flag("MEMO_ENABLED", &c.Cache.Memo.Enabled)
	num("MEMO_CAPACITY", &c.Cache.Memo.Capacity)
	dur("MEMO_TTL", &c.Cache.Memo.TTL)

	str("DB_DRIVER", &c.Database.Driver)
	str("DB_DSN", &c.Database.DSN)
	flag("DB_AUTO_MIGRATE", &c.Database.AutoMigrate)

	str("METRICS_ADDR", &c.Metrics.Addr)

	if v, ok := lookupEnv("ID_NODE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sID_NODE: %w", EnvPrefix, err))
		} else {
			c.IDNode = n
		}
	}
	return errors.Join(errs...)
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	return validation.Errors{
		"log":      c.validateLog(),
		"cache":    c.Cache.Validate(),
		"database": c.Database.Validate(),
		"id_node":  validation.Validate(c.IDNode, validation.Min(int64(0)), validation.Max(int64(1023))),
	}.Filter()
}

func (c *Config) validateLog() error {
	return validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Log.Format, validation.In("json", "console")),
	)
}

// Validate checks the cache section, including the nested Redis and memo
// sections when they are in use.
func (c CacheConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendRedis, BackendMemory)),
		validation.Field(&c.CommandTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.SenderTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.ReconcileConcurrency, validation.Min(0)),
	)
	if err != nil {
		return err
	}
	if c.Backend == BackendRedis {
		if err := c.Redis.Executor().Validate(); err != nil {
			return err
		}
	}
	if c.Memo.Enabled {
		return c.Memo.Memo().Validate()
	}
	return nil
}

// Validate checks the driver and DSN.
func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(store.DriverPostgres, store.DriverSQLite)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
	)
}

// Executor converts c into the Redis executor options.
func (c RedisConfig) Executor() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		Addrs:        c.Addrs,
		MasterName:   c.MasterName,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

// Memo converts c into the sturdyc memo options.
func (c MemoConfig) Memo() cacheinfra.MemoConfig {
	return cacheinfra.MemoConfig{
		Capacity:             c.Capacity,
		NumShards:            c.Shards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		MissingRecordStorage: c.MissingRecords,
	}
}

// Store converts c into the store options.
func (c DatabaseConfig) Store() store.Config {
	return store.Config{
		Driver:       c.Driver,
		DSN:          c.DSN,
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
	}
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
