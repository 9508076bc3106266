package discord

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/textcmd/internal/present"
	"github.com/keshon/textcmd/pkg/cmd"
	"github.com/keshon/textcmd/pkg/retrylimit"
)

const (
	maxMessageLen = 2000
	sendAttempts  = 3
)

// Sender posts a reply into a channel.
type Sender interface {
	Send(ctx context.Context, channelID, replyTo, content string) error
}

type sessionSender struct {
	dg *discordgo.Session
}

// SessionSender sends replies through dg without pinging anyone.
func SessionSender(dg *discordgo.Session) Sender {
	return &sessionSender{dg: dg}
}

func (s *sessionSender) Send(ctx context.Context, channelID, replyTo, content string) error {
	send := &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if replyTo != "" {
		send.Reference = &discordgo.MessageReference{MessageID: replyTo, ChannelID: channelID}
	}
	_, err := s.dg.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	return err
}

// Replier presents outcomes as channel replies, paced by an adaptive limiter.
type Replier struct {
	sender   Sender
	renderer *present.Renderer
	limiter  *retrylimit.AdaptiveLimiter
	log      zerolog.Logger
}

func NewReplier(sender Sender, renderer *present.Renderer, limiter *retrylimit.AdaptiveLimiter, log zerolog.Logger) *Replier {
	return &Replier{sender: sender, renderer: renderer, limiter: limiter, log: log}
}

// Present implements cmd.Presenter.
func (r *Replier) Present(ctx context.Context, msg *cmd.Message, out *cmd.Outcome, data interface{}) {
	text := r.renderer.Render(out)
	if text == "" {
		return
	}
	for _, chunk := range splitMessage(text, maxMessageLen) {
		err := retrylimit.WithRetryMax(ctx, func() error {
			return r.sender.Send(ctx, msg.ChannelID, msg.ID, chunk)
		}, r.limiter, sendAttempts)
		if err != nil {
			r.log.Error().Err(err).
				Str("channel", msg.ChannelID).
				Str("outcome", out.Kind.String()).
				Msg("Failed to send reply")
			return
		}
	}
}

// splitMessage cuts text into pieces of at most limit bytes, preferring line
// breaks and never splitting a UTF-8 sequence.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
