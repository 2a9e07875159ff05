package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// handleInterrupts runs onFirst on the first interrupt and cancel on the
// second. Without onFirst, or on SIGTERM, the first signal cancels.
// The returned function stops listening.
func handleInterrupts(ctx context.Context, cancel context.CancelFunc, onFirst func(), logger *slog.Logger) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go interruptLoop(ctx, sigCh, done, cancel, onFirst, logger)

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func interruptLoop(
	ctx context.Context,
	sigCh <-chan os.Signal,
	done <-chan struct{},
	cancel context.CancelFunc,
	onFirst func(),
	logger *slog.Logger,
) {
	first := true
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			if first && onFirst != nil && sig == os.Interrupt {
				first = false
				logger.Info("interrupt received, cancelling crawl")
				// onFirst may block on the network; a second signal must still get through.
				go onFirst()
				continue
			}
			logger.Info("received shutdown signal, stopping", "signal", sig.String())
			cancel()
			return
		}
	}
}
