package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/textcmd/pkg/cmd"
)

// NewSession creates an unopened gateway session with the intents text
// commands need.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return dg, nil
}

// Bot feeds gateway messages into a dispatcher.
type Bot struct {
	dg         *discordgo.Session
	dispatcher *cmd.Dispatcher
	log        zerolog.Logger

	mu     sync.RWMutex
	selfID string
	ctx    context.Context
}

func NewBot(dg *discordgo.Session, dispatcher *cmd.Dispatcher, log zerolog.Logger) *Bot {
	return &Bot{dg: dg, dispatcher: dispatcher, log: log, ctx: context.Background()}
}

// Run opens the session and blocks until ctx is done. In-flight messages are
// finished before the session closes.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	b.log.Info().Msg("Shutdown signal received, draining messages")
	b.dispatcher.Close()
	return b.dg.Close()
}

// SelfID is the bot's user ID once the gateway is ready.
func (b *Bot) SelfID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selfID
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		b.log.Warn().Msg("Ready event without bot user")
		return
	}
	b.mu.Lock()
	b.selfID = r.User.ID
	b.mu.Unlock()

	b.log.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Discord bot is running")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.handle(m.Message)
}

func (b *Bot) handle(m *discordgo.Message) {
	if m == nil || m.Author == nil {
		return
	}
	selfID := b.SelfID()
	if m.Author.ID == selfID {
		return
	}

	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()

	b.dispatcher.Submit(ctx, ToMessage(m, selfID), m)
}
