package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/keshon/textcmd/pkg/cmd"
)

// AdminPermission is the permission name ADMIN_IDS are granted at startup.
const AdminPermission = "admin"

var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile      string `env:"LOG_FILE"`
	LogMaxSizeMB int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`

	SettingsFile     string   `env:"SETTINGS_FILE"`
	CommandPrefix    string   `env:"COMMAND_PREFIX" envDefault:"!"`
	IgnoreBots       bool     `env:"IGNORE_BOTS" envDefault:"true"`
	IgnoreLabelCase  bool     `env:"IGNORE_LABEL_CASE" envDefault:"true"`
	BotMentionPrefix bool     `env:"BOT_MENTION_PREFIX" envDefault:"true"`
	HelpLabels       []string `env:"HELP_LABELS" envDefault:"help" envSeparator:","`
	AdminIDs         []string `env:"ADMIN_IDS" envSeparator:","`

	AdminHTTPAddr   string        `env:"ADMIN_HTTP_ADDR"`
	AdminHTTPToken  string        `env:"ADMIN_HTTP_TOKEN"`
	ReplyRate       float64       `env:"REPLY_RATE" envDefault:"5"`
	CommandCooldown time.Duration `env:"COMMAND_COOLDOWN" envDefault:"2s"`
	HistoryLimit    int           `env:"HISTORY_LIMIT" envDefault:"20"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, falling back to system environment variables")
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.AdminIDs = compact(cfg.AdminIDs)
	cfg.HelpLabels = compact(cfg.HelpLabels)
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	return &cfg, nil
}

// Validate checks what the Discord binary needs to start.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DiscordToken) == "" {
		return ErrMissingToken
	}
	if c.ReplyRate <= 0 {
		return fmt.Errorf("REPLY_RATE must be positive, got %v", c.ReplyRate)
	}
	return nil
}

// Snapshot builds the startup settings from the environment alone.
func (c *Config) Snapshot() cmd.Snapshot {
	snap := cmd.DefaultSnapshot()
	snap.Prefix = c.CommandPrefix
	snap.IgnoreBots = c.IgnoreBots
	snap.IgnoreLabelCase = c.IgnoreLabelCase
	snap.BotMentionPrefix = c.BotMentionPrefix
	if len(c.HelpLabels) > 0 {
		snap.HelpLabels = append([]string(nil), c.HelpLabels...)
	}
	return snap
}

// LoadSettingsFile reads a YAML settings snapshot on top of base. Keys absent
// from the file keep the values of base.
func LoadSettingsFile(path string, base cmd.Snapshot) (cmd.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read settings file: %w", err)
	}
	snap := deepcopy.Copy(base).(cmd.Snapshot)
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return base, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return snap, nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
