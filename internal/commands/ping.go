package commands

import (
	"context"
	"fmt"

	"github.com/keshon/textcmd/pkg/cmd"
)

func (b *builtins) ping(ctx context.Context, inv *cmd.Invocation) (any, error) {
	if b.Latency == nil {
		return "🏓 Pong!", nil
	}
	return fmt.Sprintf("🏓 Pong! Response time: `%dms`", b.Latency().Milliseconds()), nil
}
