package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 1
	defaultDelay    = 100 * time.Millisecond
	defaultMaxDelay = 2 * time.Second
)

// RetryConfig bounds retries against an external capability. Attempts=1 means
// a single call with no retry, which is the default: transient upstream
// failures surface to the caller instead of being absorbed locally.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"1"`
	Delay    time.Duration `env:"DELAY" envDefault:"100ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.LastErrorOnly(true),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}
