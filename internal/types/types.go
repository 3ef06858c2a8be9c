package types

import (
	"context"
	"time"
)

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RetryConfig configures retry behavior for the persistence mirror
type RetryConfig struct {
	MaxRetries int           `json:"maxRetries"`
	RetryWait  time.Duration `json:"retryWait"`
	MaxWait    time.Duration `json:"maxWait"`
}

// Hooks provides lifecycle hooks for store mutations and mirror flushes
type Hooks struct {
	OnMutation func(ctx context.Context, op, collection, recordID string)
	OnFlush    func(ctx context.Context, pending int, duration time.Duration)
	OnError    func(ctx context.Context, err error)
}
