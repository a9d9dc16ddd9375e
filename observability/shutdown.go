package observability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultShutdownTimeout bounds Shutdown when no timeout is given.
const DefaultShutdownTimeout = 10 * time.Second

// Shutdown flushes pending spans and metrics, then stops provider, all within
// timeout (DefaultShutdownTimeout when not positive). Both steps run even when
// the flush fails. A nil provider is a no-op.
//
//	p, err := observability.NewProvider(ctx, &cfg.Observability, log)
//	...
//	defer observability.Shutdown(p, 0)
func Shutdown(provider Provider, timeout time.Duration) error {
	if provider == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := errors.Join(provider.ForceFlush(ctx), provider.Shutdown(ctx)); err != nil {
		return fmt.Errorf("observability shutdown failed: %w", err)
	}
	return nil
}
