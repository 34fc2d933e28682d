// Package ratelimit provides rate limiter configuration options.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/verdict-x/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Backend selects the rate limiter storage backend.
const (
	// BackendMemory keeps per-client windows in process memory.
	BackendMemory = "memory"
	// BackendRedis keeps per-client windows in Redis, shared across replicas.
	BackendRedis = "redis"
)

// Options configures the sliding-window rate limiter.
type Options struct {
	// Enabled toggles rate limiting.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Limit is the maximum number of requests per window per client.
	Limit int `json:"limit" mapstructure:"limit"`

	// Window is the sliding window size.
	Window time.Duration `json:"window" mapstructure:"window"`

	// Backend is the storage backend (memory, redis).
	Backend string `json:"backend" mapstructure:"backend"`

	// KeyPrefix namespaces limiter keys in shared backends.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// TrustedProxies lists proxy CIDRs whose X-Forwarded-For is honored.
	TrustedProxies []string `json:"trusted-proxies" mapstructure:"trusted-proxies"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Enabled:   true,
		Limit:     10,
		Window:    60 * time.Second,
		Backend:   BackendMemory,
		KeyPrefix: "ratelimit:",
	}
}

// AddFlags adds flags for rate limiter options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"ratelimit.enabled", o.Enabled, "Enable request rate limiting.")
	fs.IntVar(&o.Limit, options.Join(prefixes...)+"ratelimit.limit", o.Limit, "Maximum requests per window per client.")
	fs.DurationVar(&o.Window, options.Join(prefixes...)+"ratelimit.window", o.Window, "Sliding window size.")
	fs.StringVar(&o.Backend, options.Join(prefixes...)+"ratelimit.backend", o.Backend, "Rate limiter backend (memory, redis).")
	fs.StringVar(&o.KeyPrefix, options.Join(prefixes...)+"ratelimit.key-prefix", o.KeyPrefix, "Key prefix for shared backends.")
	fs.StringSliceVar(&o.TrustedProxies, options.Join(prefixes...)+"ratelimit.trusted-proxies", o.TrustedProxies, "Proxy CIDRs whose X-Forwarded-For is honored.")
}

// Validate validates the rate limiter options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Limit <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit limit must be positive"))
	}
	if o.Window <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit window must be positive"))
	}
	if o.Backend != BackendMemory && o.Backend != BackendRedis {
		errs = append(errs, fmt.Errorf("ratelimit backend must be %q or %q", BackendMemory, BackendRedis))
	}
	return errs
}
