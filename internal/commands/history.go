package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/textcmd/pkg/cmd"
)

const historyShown = 10

func (b *builtins) history(ctx context.Context, inv *cmd.Invocation) (any, error) {
	if b.Store == nil {
		return nil, errors.New("command history is not available")
	}
	list, err := b.Store.FetchCommandHistory(inv.Message.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to read command history: %w", err)
	}
	if len(list) == 0 {
		return "No commands recorded yet.", nil
	}
	if len(list) > historyShown {
		list = list[len(list)-historyShown:]
	}

	var sb strings.Builder
	sb.WriteString("📜 Recent commands\n")
	for i := len(list) - 1; i >= 0; i-- {
		rec := list[i]
		who := rec.Username
		if who == "" {
			who = rec.UserID
		}
		line := inv.Prefix + rec.Command
		if len(rec.Args) > 0 {
			line += " " + strings.Join(rec.Args, " ")
		}
		sb.WriteString(fmt.Sprintf("`%s` by %s at %s\n", line, who, rec.Datetime.Format("2006-01-02 15:04")))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
