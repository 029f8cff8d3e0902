// Package sigctx ties a context to the process termination signals.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var terminate = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// NotifyContext returns a context that is canceled on the first termination
// signal. A second signal is left to the default handler.
func NotifyContext() (context.Context, context.CancelFunc) {
	return WithSignals(context.Background(), terminate...)
}

// WithSignals is NotifyContext for a parent context and a custom signal set.
func WithSignals(
	parent context.Context, sigs ...os.Signal,
) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, sigs...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
