// Package present turns dispatch outcomes into the reply text users see.
package present

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/keshon/textcmd/internal/config"
	"github.com/keshon/textcmd/pkg/cmd"
)

const otherCategory = "Other"

// Renderer renders outcomes. Help listings come from Registry.
type Renderer struct {
	Registry  *cmd.Registry
	Settings  *cmd.Settings // label case for help topics, nil folds case
	HelpLabel string        // label suggested in corrective messages, default "help"
}

func (r *Renderer) helpLabel() string {
	if r.HelpLabel == "" {
		return "help"
	}
	return r.HelpLabel
}

// Render returns the reply for out, or "" when nothing should be sent.
func (r *Renderer) Render(out *cmd.Outcome) string {
	p := out.Prefix
	switch out.Kind {
	case cmd.KindNotACommand, cmd.KindSuppressed:
		return ""

	case cmd.KindUnknownCommand:
		hint := fmt.Sprintf("Type `%s%s` to see available commands.", p, r.helpLabel())
		if out.Label == "" {
			return hint
		}
		return fmt.Sprintf("Unknown command `%s%s`. %s", p, out.Label, hint)

	case cmd.KindAmbiguousOrWrongArity:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Wrong number of arguments for `%s%s`. Usage:", p, out.Label))
		for _, c := range out.Candidates {
			sb.WriteString(fmt.Sprintf("\n`%s`", c.Usage(p)))
		}
		return sb.String()

	case cmd.KindArgumentError:
		e := out.ArgError
		msg := fmt.Sprintf("Argument %d of `%s%s` must be a %s, got `%s`.", e.Position, p, out.Label, e.Expected, e.Raw)
		if out.Descriptor != nil {
			msg += fmt.Sprintf("\nUsage: `%s`", out.Descriptor.Usage(p))
		}
		return msg

	case cmd.KindPermissionDenied:
		return fmt.Sprintf("You can't use `%s%s`.", p, out.Label)

	case cmd.KindHelpRequested:
		return r.Help(out.Topic, p)

	case cmd.KindInvoked:
		if out.Err != nil {
			if errors.Is(out.Err, cmd.ErrHandlerPanic) {
				return fmt.Sprintf("Something went wrong while running `%s%s`.", p, out.Label)
			}
			return "⚠️ " + out.Err.Error()
		}
		return result(out.Result)
	}
	return ""
}

func result(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case fmt.Stringer:
		return r.String()
	}
	return fmt.Sprint(v)
}

// Help lists every command grouped by category, or the overloads of one
// command when topic is set.
func (r *Renderer) Help(topic, prefix string) string {
	if r.Registry == nil {
		return "No commands are registered."
	}
	if topic != "" {
		return r.topicHelp(topic, prefix)
	}

	byCategory := make(map[string][]*cmd.Descriptor)
	for _, d := range r.Registry.All() {
		cat := d.Category
		if cat == "" {
			cat = otherCategory
		}
		byCategory[cat] = append(byCategory[cat], d)
	}
	if len(byCategory) == 0 {
		return "No commands are registered."
	}

	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	config.SortCategories(cats)

	var sb strings.Builder
	sb.WriteString("📖 Available Commands\n")
	for _, cat := range cats {
		sb.WriteString(fmt.Sprintf("\n**%s**\n", cat))
		for _, d := range byCategory[cat] {
			line := fmt.Sprintf("`%s`", d.Usage(prefix))
			if d.Description != "" {
				line += " - " + d.Description
			}
			sb.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Renderer) topicHelp(topic, prefix string) string {
	topic = strings.TrimPrefix(topic, prefix)
	ignoreCase := r.Settings == nil || r.Settings.IgnoreLabelCase()
	found := r.Registry.Lookup(topic, ignoreCase)
	if len(found) == 0 {
		return fmt.Sprintf("No command named `%s`.", topic)
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Arity() < found[j].Arity() })

	var sb strings.Builder
	for i, d := range found {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("`%s`", d.Usage(prefix)))
		if d.Description != "" {
			sb.WriteString(" - " + d.Description)
		}
	}
	return sb.String()
}
