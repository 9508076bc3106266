package middleware

import (
	"context"

	"github.com/keshon/textcmd/pkg/cmd"
)

// WithGuildOnly rejects direct-message invocations of descriptors marked
// GuildOnly.
func WithGuildOnly() cmd.Middleware {
	return func(next cmd.Handler) cmd.Handler {
		return cmd.Wrap(next, func(ctx context.Context, inv *cmd.Invocation, next cmd.Handler) (any, error) {
			if inv.Descriptor != nil && inv.Descriptor.GuildOnly && inv.Message.IsDirect() {
				return nil, ErrGuildOnly
			}
			return next.Handle(ctx, inv)
		})
	}
}
