package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastPolicy(attempts int) Policy {
	p := Default()
	p.MaxAttempts = attempts
	p.InitialInterval = time.Millisecond
	return p
}

func TestPolicy_Retry(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		attempts := 0
		err := fastPolicy(3).Retry(context.Background(), func(ctx context.Context) error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success after retries", func(t *testing.T) {
		attempts := 0
		err := fastPolicy(3).Retry(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("fail")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error on exhaustion", func(t *testing.T) {
		attempts := 0
		last := errors.New("still down")
		err := fastPolicy(3).Retry(context.Background(), func(ctx context.Context) error {
			attempts++
			return last
		})
		assert.ErrorIs(t, err, last)
		assert.Equal(t, 3, attempts)
	})

	t.Run("context cancellation interrupts the sleep", func(t *testing.T) {
		p := Default()
		p.MaxAttempts = 5
		p.InitialInterval = 100 * time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		err := p.Retry(ctx, func(ctx context.Context) error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, attempts)
	})
}

func TestRetryWithData(t *testing.T) {
	t.Run("success returns data", func(t *testing.T) {
		val, err := RetryWithData(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "ok", val)
	})

	t.Run("failure returns zero value and error", func(t *testing.T) {
		val, err := RetryWithData(context.Background(), fastPolicy(2), func(ctx context.Context) (string, error) {
			return "", errors.New("fail")
		})
		assert.Error(t, err)
		assert.Empty(t, val)
	})
}
