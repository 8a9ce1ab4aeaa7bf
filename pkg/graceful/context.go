package graceful

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"routewatch/pkg/log"
)

// Context returns a context that is canceled on the first SIGINT or SIGTERM.
// The returned CancelFunc also stops the signal relay.
func Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info("Received termination signal, starting graceful shutdown", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
