package httpapi

import (
	"context"
)

// serverBaseCtx is a process-level context that is canceled on shutdown.
// Long-lived handlers (chat streams, log sockets) end when it is done.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context from a that is also canceled when b is done.
// Values are taken from a. The returned cancel func must be called.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// handlerContext joins the request context with the server base context.
func handlerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return joinContexts(ctx, serverBaseCtx)
}
