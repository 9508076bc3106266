// Package commands holds the built-in text commands: ping, dice, prefix and
// mute management, permission grants and command history.
package commands

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/textcmd/internal/config"
	"github.com/keshon/textcmd/internal/storage"
	"github.com/keshon/textcmd/pkg/cmd"
)

// Store is the persistence the built-ins need.
type Store interface {
	SaveSettings(snap cmd.Snapshot) error
	FetchCommandHistory(guildID string) ([]storage.CommandHistoryRecord, error)
}

// Deps are the collaborators of the built-in handlers. Store, Latency and
// Rand are optional.
type Deps struct {
	Settings *cmd.Settings
	Store    Store
	Log      zerolog.Logger
	Latency  func() time.Duration
	Rand     func(n int64) int64 // uniform in [0, n)
}

type builtins struct {
	Deps
}

// Register adds every built-in command to reg.
func Register(reg *cmd.Registry, deps Deps) error {
	if deps.Settings == nil {
		return fmt.Errorf("commands: settings are required")
	}
	if deps.Rand == nil {
		deps.Rand = rand.Int63n
	}
	b := &builtins{Deps: deps}
	return reg.Register(b.descriptors()...)
}

func (b *builtins) descriptors() []*cmd.Descriptor {
	admin := config.AdminPermission
	return []*cmd.Descriptor{
		{Label: "ping", Description: "Pong!", Category: config.CategoryInformation, Handler: cmd.HandlerFunc(b.ping)},
		{Label: "history", Description: "Show recent commands.", Category: config.CategoryUtilities, Handler: cmd.HandlerFunc(b.history)},

		{Label: "roll", Description: "Roll 1-6.", Category: config.CategoryGameplay, Handler: cmd.HandlerFunc(b.roll)},
		{Label: "roll", Params: []cmd.TypeTag{cmd.TypeInt}, Description: "Roll 1-N.", Category: config.CategoryGameplay, Handler: cmd.HandlerFunc(b.roll)},
		{Label: "roll", Params: []cmd.TypeTag{cmd.TypeInt, cmd.TypeInt}, Description: "Roll between two numbers.", Category: config.CategoryGameplay, Handler: cmd.HandlerFunc(b.roll)},
		{Label: "dice", Params: []cmd.TypeTag{cmd.TypeString}, Description: "Roll a formula like `2d6+1d4*2`.", Category: config.CategoryGameplay, Handler: cmd.HandlerFunc(b.dice)},

		{Label: "prefix", Description: "Show the command prefix.", Category: config.CategorySettings, Handler: cmd.HandlerFunc(b.showPrefix)},
		{Label: "prefix", Params: []cmd.TypeTag{cmd.TypeString}, Permission: admin, GuildOnly: true, Description: "Set this server's prefix.", Category: config.CategorySettings, Handler: cmd.HandlerFunc(b.setPrefix)},
		{Label: "resetprefix", Permission: admin, GuildOnly: true, Description: "Restore the default prefix here.", Category: config.CategorySettings, Handler: cmd.HandlerFunc(b.resetPrefix)},
		{Label: "grant", Params: []cmd.TypeTag{cmd.TypeString, cmd.TypeUser}, Permission: admin, Description: "Grant a permission to a user.", Category: config.CategorySettings, Handler: cmd.HandlerFunc(b.grant)},
		{Label: "revoke", Params: []cmd.TypeTag{cmd.TypeString, cmd.TypeUser}, Permission: admin, Description: "Revoke a permission from a user.", Category: config.CategorySettings, Handler: cmd.HandlerFunc(b.revoke)},

		{Label: "mute", Params: []cmd.TypeTag{cmd.TypeChannel}, Permission: admin, Description: "Ignore commands in a channel.", Category: config.CategoryModeration, Handler: cmd.HandlerFunc(b.muteChannel)},
		{Label: "unmute", Params: []cmd.TypeTag{cmd.TypeChannel}, Permission: admin, Description: "Listen in a channel again.", Category: config.CategoryModeration, Handler: cmd.HandlerFunc(b.unmuteChannel)},
		{Label: "muteuser", Params: []cmd.TypeTag{cmd.TypeUser}, Permission: admin, Description: "Ignore commands from a user.", Category: config.CategoryModeration, Handler: cmd.HandlerFunc(b.muteUser)},
		{Label: "unmuteuser", Params: []cmd.TypeTag{cmd.TypeUser}, Permission: admin, Description: "Listen to a user again.", Category: config.CategoryModeration, Handler: cmd.HandlerFunc(b.unmuteUser)},
	}
}

// persist saves the current settings. The change already applies in memory
// when saving fails.
func (b *builtins) persist(ctx context.Context, label string) error {
	if b.Store == nil {
		return nil
	}
	if err := b.Store.SaveSettings(b.Settings.Snapshot()); err != nil {
		b.Log.Error().Err(err).Str("label", label).Msg("Failed to persist settings")
		return fmt.Errorf("the change is active but could not be saved: %w", err)
	}
	return nil
}
