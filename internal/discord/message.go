package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/textcmd/pkg/cmd"
)

// ToMessage converts a gateway message into the dispatcher's input.
func ToMessage(m *discordgo.Message, selfID string) *cmd.Message {
	msg := &cmd.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		SelfID:    selfID,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.AuthorIsBot = m.Author.Bot
	}
	if selfID != "" {
		for _, u := range m.Mentions {
			if u != nil && u.ID == selfID {
				msg.MentionsBot = true
				break
			}
		}
	}
	return msg
}
