package cacheinfra

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RedisConfig holds the connection options for the Redis executor.
type RedisConfig struct {
	// Addrs lists the Redis endpoints. A single address yields a plain
	// client, several addresses a cluster client (or a failover client when
	// MasterName is set).
	Addrs []string

	// MasterName selects sentinel failover mode.
	MasterName string

	Username string
	Password string
	DB       int

	// PoolSize caps connections per node. Zero uses the driver default.
	PoolSize int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig targets a local Redis.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addrs:        []string{"localhost:6379"},
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Validate checks the Redis options. It reports the first invalid field as
// a *ConfigError.
func (c RedisConfig) Validate() error {
	const nonNegative = "must be non-negative"
	return firstConfigError(
		checkField("Addrs", c.Addrs,
			validation.Required.Error("must list at least one address"),
			validation.By(noEmptyAddrs),
		),
		checkField("DB", c.DB, validation.Min(0).Error(nonNegative)),
		checkField("PoolSize", c.PoolSize, validation.Min(0).Error(nonNegative)),
		checkField("Timeouts", c.DialTimeout, validation.Min(time.Duration(0)).Error(nonNegative)),
		checkField("Timeouts", c.ReadTimeout, validation.Min(time.Duration(0)).Error(nonNegative)),
		checkField("Timeouts", c.WriteTimeout, validation.Min(time.Duration(0)).Error(nonNegative)),
	)
}

func noEmptyAddrs(value any) error {
	for _, addr := range value.([]string) {
		if addr == "" {
			return validation.NewError("validation_empty_addr", "must not contain empty addresses")
		}
	}
	return nil
}

// MemoConfig configures the sturdyc memo used in front of relational
// lookups.
type MemoConfig struct {
	// Capacity is the maximum number of memoized entries. Must be > 0.
	Capacity int

	// NumShards splits the memo for concurrent access. Must be > 0.
	NumShards int

	// TTL bounds how long an entry is served. Must be > 0.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when full (1-100).
	EvictionPercentage int

	// MissingRecordStorage remembers lookups that found nothing.
	MissingRecordStorage bool

	// EarlyRefresh refreshes hot entries before they expire. Nil disables it.
	EarlyRefresh *EarlyRefreshConfig

	// EvictionInterval overrides how often expired entries are swept.
	EvictionInterval time.Duration
}

// DefaultMemoConfig returns memo defaults sized for post sender lookups.
func DefaultMemoConfig() MemoConfig {
	return MemoConfig{
		Capacity:             50000,
		NumShards:            64,
		TTL:                  10 * time.Minute,
		EvictionPercentage:   10,
		MissingRecordStorage: true,
	}
}

// Validate checks the memo options. It reports the first invalid field as
// a *ConfigError.
func (c MemoConfig) Validate() error {
	const (
		positive    = "must be greater than 0"
		nonNegative = "must be non-negative"
		percentage  = "must be between 1 and 100"
	)
	checks := []error{
		checkField("Capacity", c.Capacity, validation.Required.Error(positive), validation.Min(1).Error(positive)),
		checkField("NumShards", c.NumShards, validation.Required.Error(positive), validation.Min(1).Error(positive)),
		checkField("TTL", c.TTL, validation.Required.Error(positive), validation.Min(time.Duration(1)).Error(positive)),
		checkField("EvictionPercentage", c.EvictionPercentage,
			validation.Required.Error(percentage),
			validation.Min(1).Error(percentage),
			validation.Max(100).Error(percentage),
		),
		checkField("EvictionInterval", c.EvictionInterval, validation.Min(time.Duration(0)).Error(nonNegative)),
	}
	if r := c.EarlyRefresh; r != nil {
		for _, d := range []time.Duration{r.MinAsyncRefreshTime, r.MaxAsyncRefreshTime, r.SyncRefreshTime, r.RetryBaseDelay} {
			checks = append(checks, checkField("EarlyRefresh", d, validation.Min(time.Duration(0)).Error(nonNegative)))
		}
		checks = append(checks, checkField("EarlyRefresh.MinAsyncRefreshTime", r.MinAsyncRefreshTime,
			validation.Max(r.MaxAsyncRefreshTime).Error("must not exceed MaxAsyncRefreshTime"),
		))
	}
	return firstConfigError(checks...)
}

// EarlyRefreshConfig mirrors sturdyc's early refresh window.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// checkField runs rules against value and names the field on failure.
func checkField(field string, value any, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return &ConfigError{Field: field, Message: err.Error()}
	}
	return nil
}

func firstConfigError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
