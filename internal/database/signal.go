package database

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext returns a context that is cancelled on SIGTERM or SIGINT.
// The callback, if any, runs before cancellation so the caller can log it.
// Cancelling the returned context aborts in-flight queries; call stop to
// release the signal handler.
func NotifyContext(parent context.Context, callback func(os.Signal)) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-sigChan:
			if callback != nil {
				callback(sig)
			}
			cancel()
		case <-ctx.Done():
			// Context was cancelled elsewhere
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
