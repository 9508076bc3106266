package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/textcmd/internal/storage"
	"github.com/keshon/textcmd/pkg/cmd"
)

// HistoryWriter is the part of storage the command logger needs.
type HistoryWriter interface {
	AppendCommandHistory(guildID string, rec storage.CommandHistoryRecord) error
}

// WithCommandLogger records every handler run in the guild's command history.
// Failing to record never fails the command.
func WithCommandLogger(store HistoryWriter, log zerolog.Logger) cmd.Middleware {
	return func(next cmd.Handler) cmd.Handler {
		return cmd.Wrap(next, func(ctx context.Context, inv *cmd.Invocation, next cmd.Handler) (any, error) {
			result, err := next.Handle(ctx, inv)

			msg := inv.Message
			rec := storage.CommandHistoryRecord{
				ID:        uuid.NewString(),
				ChannelID: msg.ChannelID,
				UserID:    msg.AuthorID,
				Username:  msg.AuthorName,
				Command:   inv.Descriptor.Label,
				Args:      inv.Raw,
				Failed:    err != nil,
				Datetime:  time.Now().UTC(),
			}
			if e := store.AppendCommandHistory(msg.GuildID, rec); e != nil {
				log.Warn().Err(e).Str("label", rec.Command).Msg("Failed to log command")
			}
			return result, err
		})
	}
}
