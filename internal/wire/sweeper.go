package wire

import (
	"context"
	"log/slog"
	"time"
)

const sweepInterval = 15 * time.Minute

type sweepFunc func(ctx context.Context) (int, error)

// startSweeper drops expired idempotency records on a fixed interval until
// ctx is cancelled.
func startSweeper(ctx context.Context, sweep sweepFunc, every time.Duration) {
	if sweep == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := sweep(ctx)
				if err != nil {
					slog.Error("sweeper: idempotency sweep failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("sweeper: expired idempotency records removed", "count", n)
				}
			}
		}
	}()
}
