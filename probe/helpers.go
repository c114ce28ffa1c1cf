package probe

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to attempts times, sleeping interval between failures. It
// returns the last error, or ctx's error if ctx ends first.
func Retry(fn Func, attempts int, interval time.Duration) Func {
	if attempts < 1 {
		attempts = 1
	}
	return func(ctx context.Context) error {
		if fn == nil {
			return nilComponentError("retry", "probe")
		}
		ctx = contextOrBackground(ctx)

		var err error
		for i := 0; i < attempts; i++ {
			if err = fn(ctx); err == nil {
				return nil
			}
			if i == attempts-1 {
				break
			}

			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		return fmt.Errorf("after %d attempts: %w", attempts, err)
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func defaultHTTPStatusExpectation(status int) bool {
	return status >= 200 && status < 300
}

func nilComponentError(name, component string) error {
	return fmt.Errorf("%s probe: %s is nil", name, component)
}
