package commands

import (
	"context"
	"fmt"

	"github.com/keshon/textcmd/pkg/cmd"
)

func (b *builtins) showPrefix(ctx context.Context, inv *cmd.Invocation) (any, error) {
	current := b.Settings.ResolvePrefix(inv.Message.GuildID)
	if _, ok := b.Settings.GuildPrefix(inv.Message.GuildID); ok && !inv.Message.IsDirect() {
		return fmt.Sprintf("This server uses `%s` (default is `%s`).", current, b.Settings.Prefix()), nil
	}
	return fmt.Sprintf("The command prefix is `%s`.", current), nil
}

func (b *builtins) setPrefix(ctx context.Context, inv *cmd.Invocation) (any, error) {
	applied := b.Settings.AddGuildPrefix(inv.Message.GuildID, inv.String(0))
	if err := b.persist(ctx, inv.Descriptor.Label); err != nil {
		return nil, err
	}
	b.Log.Info().Str("guild", inv.Message.GuildID).Str("prefix", applied).Msg("Guild prefix set")
	return fmt.Sprintf("Prefix set to `%s`.", applied), nil
}

func (b *builtins) resetPrefix(ctx context.Context, inv *cmd.Invocation) (any, error) {
	b.Settings.RemoveGuildPrefix(inv.Message.GuildID)
	if err := b.persist(ctx, inv.Descriptor.Label); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Prefix reset to `%s`.", b.Settings.Prefix()), nil
}

func (b *builtins) grant(ctx context.Context, inv *cmd.Invocation) (any, error) {
	perm, user := inv.String(0), inv.String(1)
	b.Settings.GrantPermission(perm, user)
	if err := b.persist(ctx, inv.Descriptor.Label); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Granted `%s` to <@%s>.", perm, user), nil
}

func (b *builtins) revoke(ctx context.Context, inv *cmd.Invocation) (any, error) {
	perm, user := inv.String(0), inv.String(1)
	b.Settings.RevokePermission(perm, user)
	if err := b.persist(ctx, inv.Descriptor.Label); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Revoked `%s` from <@%s>.", perm, user), nil
}

func (b *builtins) muteChannel(ctx context.Context, inv *cmd.Invocation) (any, error) {
	id := inv.String(0)
	b.Settings.MuteChannel(id)
	if err := b.persist(ctx, inv.Descriptor.Label); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Commands in <#%s> are now ignored.", id), nil
}

func (b *builtins) unmuteChannel(ctx context.Context, inv *cmd.Invocation) (any, error) {
	id := inv.String(0)
	b.Settings.UnmuteChannel(id)
	if err := b.persist(ctx, inv.Descriptor.Label); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Commands in <#%s> are handled again.", id), nil
}

func (b *builtins) muteUser(ctx context.Context, inv *cmd.Invocation) (any, error) {
	id := inv.String(0)
	b.Settings.MuteUser(id)
	if err := b.persist(ctx, inv.Descriptor.Label); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Commands from <@%s> are now ignored.", id), nil
}

func (b *builtins) unmuteUser(ctx context.Context, inv *cmd.Invocation) (any, error) {
	id := inv.String(0)
	b.Settings.UnmuteUser(id)
	if err := b.persist(ctx, inv.Descriptor.Label); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Commands from <@%s> are handled again.", id), nil
}
