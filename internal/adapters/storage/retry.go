package storage

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig configures retry behaviour for storage operations
type RetryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	InitialDelay  time.Duration `mapstructure:"initial_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
	Jitter        bool          `mapstructure:"jitter"`
}

// DefaultRetryConfig returns three attempts with exponential backoff from 100ms
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// WithRetry runs op until it succeeds, returns a non-retryable error, runs
// out of attempts, or ctx is cancelled
func WithRetry(ctx context.Context, config *RetryConfig, op func(ctx context.Context) error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == config.MaxAttempts || !IsRetryable(lastErr) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.delay(attempt)):
		}
	}
	return lastErr
}

func (c *RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	if c.Jitter {
		d += rand.Float64() * 0.1 * d
	}
	return time.Duration(d)
}

// RetryableFileStorage retries transient failures of the wrapped storage
type RetryableFileStorage struct {
	storage FileStorage
	config  *RetryConfig
	logger  *logrus.Logger
}

// NewRetryableFileStorage wraps storage
func NewRetryableFileStorage(storage FileStorage, config *RetryConfig, logger *logrus.Logger) *RetryableFileStorage {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RetryableFileStorage{storage: storage, config: config, logger: logger}
}

func (r *RetryableFileStorage) do(ctx context.Context, op, key string, fn func(ctx context.Context) error) error {
	attempt := 0
	return WithRetry(ctx, r.config, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && IsRetryable(err) {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"op":      op,
				"key":     key,
				"attempt": attempt,
			}).Warn("Storage operation failed")
		}
		return err
	})
}

func (r *RetryableFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	return r.do(ctx, "store", key, func(ctx context.Context) error {
		return r.storage.Store(ctx, key, data, opts)
	})
}

func (r *RetryableFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.do(ctx, "retrieve", key, func(ctx context.Context) error {
		var err error
		data, err = r.storage.Retrieve(ctx, key)
		return err
	})
	return data, err
}

func (r *RetryableFileStorage) Delete(ctx context.Context, key string) error {
	return r.do(ctx, "delete", key, func(ctx context.Context) error {
		return r.storage.Delete(ctx, key)
	})
}

func (r *RetryableFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.do(ctx, "exists", key, func(ctx context.Context) error {
		var err error
		exists, err = r.storage.Exists(ctx, key)
		return err
	})
	return exists, err
}

func (r *RetryableFileStorage) List(ctx context.Context, opts *ListOptions) ([]FileMetadata, error) {
	var files []FileMetadata
	err := r.do(ctx, "list", "", func(ctx context.Context) error {
		var err error
		files, err = r.storage.List(ctx, opts)
		return err
	})
	return files, err
}

func (r *RetryableFileStorage) GenerateURL(ctx context.Context, key string) (string, error) {
	var url string
	err := r.do(ctx, "url", key, func(ctx context.Context) error {
		var err error
		url, err = r.storage.GenerateURL(ctx, key)
		return err
	})
	return url, err
}

func (r *RetryableFileStorage) Close() error {
	return r.storage.Close()
}
