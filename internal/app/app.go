// Package app assembles the command engine shared by the Discord bot and the
// local CLI: persisted settings, the built-in commands and the middleware
// chain.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/textcmd/internal/commands"
	"github.com/keshon/textcmd/internal/config"
	"github.com/keshon/textcmd/internal/middleware"
	"github.com/keshon/textcmd/internal/present"
	"github.com/keshon/textcmd/internal/storage"
	"github.com/keshon/textcmd/pkg/cmd"
)

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Store    *storage.Storage
	Settings *cmd.Settings
	Registry *cmd.Registry
	Cooldown *middleware.Cooldown
	Renderer *present.Renderer
}

// New opens storage and resolves the startup settings. Later sources win:
// environment, settings file, persisted settings. ADMIN_IDS are granted the
// admin permission on top of whatever was loaded.
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := storage.New(cfg.StoragePath, cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	snap, err := resolveSettings(cfg, store, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	settings := cmd.NewSettings(log)
	if err := settings.Load(snap); err != nil {
		store.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	for _, id := range cfg.AdminIDs {
		settings.GrantPermission(config.AdminPermission, id)
	}

	helpLabel := "help"
	if labels := settings.HelpLabels(); len(labels) > 0 {
		helpLabel = labels[0]
	}

	reg := cmd.NewRegistry()
	return &App{
		Config:   cfg,
		Log:      log,
		Store:    store,
		Settings: settings,
		Registry: reg,
		Cooldown: middleware.NewCooldown(cfg.CommandCooldown, log),
		Renderer: &present.Renderer{Registry: reg, Settings: settings, HelpLabel: helpLabel},
	}, nil
}

func resolveSettings(cfg *config.Config, store *storage.Storage, log zerolog.Logger) (cmd.Snapshot, error) {
	snap := cfg.Snapshot()

	if cfg.SettingsFile != "" {
		fromFile, err := config.LoadSettingsFile(cfg.SettingsFile, snap)
		if err != nil {
			return snap, err
		}
		snap = fromFile
		log.Info().Str("file", cfg.SettingsFile).Msg("Settings file loaded")
	}

	persisted, err := store.LoadSettings()
	switch {
	case errors.Is(err, storage.ErrNoSettings):
		log.Debug().Msg("No persisted settings, using startup settings")
	case err != nil:
		return snap, fmt.Errorf("load persisted settings: %w", err)
	default:
		snap = persisted
		log.Info().Msg("Persisted settings restored")
	}
	return snap, nil
}

// Dispatcher registers the built-in commands and seals the engine behind a
// dispatcher that reports to presenter.
func (a *App) Dispatcher(presenter cmd.Presenter, latency func() time.Duration) (*cmd.Dispatcher, error) {
	err := commands.Register(a.Registry, commands.Deps{
		Settings: a.Settings,
		Store:    a.Store,
		Log:      a.Log,
		Latency:  latency,
	})
	if err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}

	return cmd.NewDispatcher(cmd.Config{
		Settings: a.Settings,
		Registry: a.Registry,
		Middlewares: []cmd.Middleware{
			middleware.WithGuildOnly(),
			a.Cooldown.Middleware(),
			middleware.WithCommandLogger(a.Store, a.Log),
		},
		Presenter: presenter,
		Logger:    a.Log,
	})
}

func (a *App) Close() error {
	return a.Store.Close()
}
