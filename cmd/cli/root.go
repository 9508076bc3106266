package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/keshon/textcmd/internal/app"
	"github.com/keshon/textcmd/internal/config"
	"github.com/keshon/textcmd/internal/logging"
	"github.com/keshon/textcmd/pkg/cmd"
)

var root = &cobra.Command{
	Use:           "textcmd-cli",
	Short:         "Run text commands locally.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// author and place of every message the CLI sends.
type identity struct {
	guild   string
	channel string
	user    string
	name    string
	bot     bool
}

var (
	who      identity
	logLevel string
)

func init() {
	flags := root.PersistentFlags()
	flags.StringVar(&who.guild, "guild", "local", "guild ID, empty for a direct message")
	flags.StringVar(&who.channel, "channel", "1", "channel ID")
	flags.StringVar(&who.user, "user", "1", "author ID")
	flags.StringVar(&who.name, "name", "console", "author name")
	flags.BoolVar(&who.bot, "bot", false, "send as a bot account")
	flags.StringVar(&logLevel, "log-level", "", "overrides LOG_LEVEL")

	root.AddCommand(replCmd, parseCmd)
}

func (id identity) message(content string) *cmd.Message {
	return &cmd.Message{
		ID:          uuid.NewString(),
		GuildID:     id.guild,
		ChannelID:   id.channel,
		AuthorID:    id.user,
		AuthorName:  id.name,
		AuthorIsBot: id.bot,
		Content:     content,
	}
}

// session is an engine opened for one CLI run.
type session struct {
	app        *app.App
	dispatcher *cmd.Dispatcher
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.Init(logging.Config{Level: level, File: cfg.LogFile, MaxSizeMB: cfg.LogMaxSizeMB, Console: true})
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	d, err := a.Dispatcher(nil, nil)
	if err != nil {
		a.Close()
		return nil, err
	}
	return &session{app: a, dispatcher: d}, nil
}

// run dispatches content and writes the reply a chat user would see.
func (s *session) run(ctx context.Context, w io.Writer, content string) *cmd.Outcome {
	out := s.dispatcher.Dispatch(ctx, who.message(content), nil)
	if text := s.app.Renderer.Render(out); text != "" {
		fmt.Fprintln(w, text)
	}
	return out
}

func (s *session) close() {
	s.dispatcher.Close()
	s.app.Close()
}
