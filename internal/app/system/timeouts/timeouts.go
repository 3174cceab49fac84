// Package timeouts holds the deadlines applied to store and cache calls.
//
// Handlers wrap request contexts with one of these before touching MongoDB
// or the cache:
//   - Ping: health checks
//   - Short: single-document reads and cache round trips
//   - Medium: list queries
//   - Long: transactional writes spanning both collections
//
// Values start at their defaults and may be overridden once at startup.
package timeouts

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Config is one complete set of deadlines. In Configure, zero fields keep
// the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

func defaults() *Config {
	return &Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

// active is replaced wholesale, never mutated, so readers need no lock.
var active atomic.Pointer[Config]

func init() { active.Store(defaults()) }

func Ping() time.Duration   { return active.Load().Ping }
func Short() time.Duration  { return active.Load().Short }
func Medium() time.Duration { return active.Load().Medium }
func Long() time.Duration   { return active.Load().Long }

// Current returns a copy of the active deadlines.
func Current() Config { return *active.Load() }

// Configure merges cfg over the active deadlines.
func Configure(cfg Config) {
	for {
		old := active.Load()
		next := *old
		pick(&next.Ping, cfg.Ping)
		pick(&next.Short, cfg.Short)
		pick(&next.Medium, cfg.Medium)
		pick(&next.Long, cfg.Long)
		if active.CompareAndSwap(old, &next) {
			return
		}
	}
}

func pick(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Reset restores the defaults. Tests use it.
func Reset() { active.Store(defaults()) }

// envKeys maps each override variable to its field.
var envKeys = []struct {
	name string
	set  func(c *Config, d time.Duration)
}{
	{"TEAMGATHER_TIMEOUT_PING", func(c *Config, d time.Duration) { c.Ping = d }},
	{"TEAMGATHER_TIMEOUT_SHORT", func(c *Config, d time.Duration) { c.Short = d }},
	{"TEAMGATHER_TIMEOUT_MEDIUM", func(c *Config, d time.Duration) { c.Medium = d }},
	{"TEAMGATHER_TIMEOUT_LONG", func(c *Config, d time.Duration) { c.Long = d }},
}

// ConfigureFromEnv reads TEAMGATHER_TIMEOUT_{PING,SHORT,MEDIUM,LONG} as Go
// durations. Unset or invalid values are ignored. It returns how many were
// applied.
func ConfigureFromEnv() int {
	var cfg Config
	applied := 0
	for _, k := range envKeys {
		d, err := time.ParseDuration(os.Getenv(k.name))
		if err != nil || d <= 0 {
			continue
		}
		k.set(&cfg, d)
		applied++
	}
	Configure(cfg)
	return applied
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was hit before the caller finished.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("deadline exceeded", zap.String("operation", operation), zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
