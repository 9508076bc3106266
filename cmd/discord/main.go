package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/keshon/textcmd/internal/admin"
	"github.com/keshon/textcmd/internal/app"
	"github.com/keshon/textcmd/internal/config"
	"github.com/keshon/textcmd/internal/discord"
	"github.com/keshon/textcmd/internal/logging"
	"github.com/keshon/textcmd/pkg/jobmgr"
	"github.com/keshon/textcmd/pkg/retrylimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger, err := logging.Init(logging.Config{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid config")
	}
	logger.Info().Msg("Starting bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.Close()

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		logger.Fatal().Err(err).Send()
	}

	limiter := retrylimit.NewAdaptiveLimiter(rate.Limit(cfg.ReplyRate), 1, rate.Limit(cfg.ReplyRate*4), 1, 0.5)
	replier := discord.NewReplier(discord.SessionSender(session), a.Renderer, limiter, logger)

	dispatcher, err := a.Dispatcher(replier, session.HeartbeatLatency)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build dispatcher")
	}

	jobs := jobmgr.NewManager(jobmgr.LogReporter(logger))
	defer jobs.StopAll()

	if cfg.CommandCooldown > 0 {
		_ = jobs.StartAsync(ctx, "cooldown-sweeper", func(ctx context.Context) error {
			return a.Cooldown.RunSweeper(ctx, time.Minute)
		})
	}
	if cfg.AdminHTTPAddr != "" {
		srv := admin.New(a.Settings, a.Store, cfg.AdminHTTPToken, logger).WithJobs(jobs)
		_ = jobs.StartAsync(ctx, "admin-http", func(ctx context.Context) error {
			return srv.Run(ctx, cfg.AdminHTTPAddr)
		})
	}

	bot := discord.NewBot(session, dispatcher, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("Received signal, shutting down")
		cancel()
		if err := <-errCh; err != nil {
			logger.Error().Err(err).Msg("Discord bot error")
		}
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Discord bot error")
		}
		cancel()
	}

	logger.Info().Msg("Discord bot exited cleanly")
}
