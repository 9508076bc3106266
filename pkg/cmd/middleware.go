package cmd

import "context"

// Middleware wraps a handler (e.g. logging, cooldowns, guild-only checks).
// The wrapped value remains a Handler.
type Middleware func(Handler) Handler

// Apply applies middlewares so that the first in the list is the outermost.
func Apply(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Wrap returns a handler that runs run with next bound to h. Use this in
// middleware to avoid declaring a type per wrapper.
func Wrap(h Handler, run func(ctx context.Context, inv *Invocation, next Handler) (any, error)) Handler {
	return HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return run(ctx, inv, h)
	})
}
