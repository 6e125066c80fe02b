package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yasube/yasube/internal/common/logging"
)

// CreateContextWithShutdown returns a context that is cancelled when SIGINT or SIGTERM is received.
// In-flight requests see the cancellation through their own contexts.
func CreateContextWithShutdown() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			logging.Warnf("received %s, stopping after in-flight requests", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
