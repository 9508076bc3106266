package cmd

import (
	"sort"
	"strings"
)

// Message is one incoming chat message as seen by the core. GuildID is empty
// for direct messages. SelfID is the bot account's own ID, from which the
// mention prefixes are derived.
type Message struct {
	ID          string
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool
	Content     string
	MentionsBot bool
	SelfID      string
}

// IsDirect reports whether the message was sent outside a guild.
func (m *Message) IsDirect() bool { return m.GuildID == "" }

// Parsed is a message stripped of its prefix and split into label and arguments.
type Parsed struct {
	Prefix string
	Label  string
	Args   []string
}

// MentionPrefixes returns both mention forms of the account selfID.
func MentionPrefixes(selfID string) []string {
	if selfID == "" {
		return nil
	}
	return []string{"<@" + selfID + ">", "<@!" + selfID + ">"}
}

// AcceptedPrefixes lists the prefixes msg may start with under v, longest first.
func AcceptedPrefixes(msg *Message, v View) []string {
	prefixes := []string{v.ResolvePrefix(msg.GuildID)}
	if v.BotMentionPrefix() && msg.MentionsBot {
		prefixes = append(prefixes, MentionPrefixes(msg.SelfID)...)
	}
	sort.SliceStable(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return prefixes
}

// ParseEvent decides whether msg is a command invocation. It returns either a
// Parsed invocation and a nil outcome, or a Suppressed/NotACommand outcome.
// A bare prefix is still a command attempt and parses to an empty label.
func ParseEvent(msg *Message, v View) (Parsed, *Outcome) {
	if v.IgnoreBots() && msg.AuthorIsBot {
		return Parsed{}, suppressed(ReasonIgnoredBot)
	}
	if v.IsMuted(msg.ChannelID, msg.AuthorID) {
		return Parsed{}, suppressed(ReasonMuted)
	}

	var prefix string
	matched := false
	for _, p := range AcceptedPrefixes(msg, v) {
		if p != "" && strings.HasPrefix(msg.Content, p) {
			prefix, matched = p, true
			break
		}
	}
	if !matched {
		return Parsed{}, notACommand()
	}

	fields := strings.Fields(msg.Content[len(prefix):])
	parsed := Parsed{Prefix: prefix}
	if len(fields) > 0 {
		parsed.Label = fields[0]
		parsed.Args = fields[1:]
	}
	return parsed, nil
}
