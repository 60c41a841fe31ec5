package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger matches anything with a Ping method, notably pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping adapts a Pinger into a CheckFunc, the usual readiness check for a
// database pool.
func Ping(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// GoroutineCount reports unhealthy when the goroutine count exceeds the
// threshold. Used as a liveness check to catch goroutine leaks.
func GoroutineCount(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}
