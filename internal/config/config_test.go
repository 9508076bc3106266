package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/longbridgeapp/assert"

	"github.com/keshon/textcmd/pkg/cmd"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{}})
	assert.NoError(t, err)

	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.True(t, cfg.IgnoreBots)
	assert.True(t, cfg.IgnoreLabelCase)
	assert.True(t, cfg.BotMentionPrefix)
	assert.Equal(t, []string{"help"}, cfg.HelpLabels)
	assert.Equal(t, 0, len(cfg.AdminIDs))
	assert.Equal(t, 2*time.Second, cfg.CommandCooldown)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, float64(5), cfg.ReplyRate)
	assert.Equal(t, ErrMissingToken, cfg.Validate())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"DISCORD_TOKEN":     "token",
		"COMMAND_PREFIX":    "?",
		"IGNORE_BOTS":       "false",
		"HELP_LABELS":       "help, commands ,",
		"ADMIN_IDS":         "1,2",
		"COMMAND_COOLDOWN":  "500ms",
		"HISTORY_LIMIT":     "0",
		"ADMIN_HTTP_ADDR":   ":8080",
		"IGNORE_LABEL_CASE": "0",
	}})
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, "?", cfg.CommandPrefix)
	assert.False(t, cfg.IgnoreBots)
	assert.False(t, cfg.IgnoreLabelCase)
	assert.Equal(t, []string{"help", "commands"}, cfg.HelpLabels)
	assert.Equal(t, []string{"1", "2"}, cfg.AdminIDs)
	assert.Equal(t, 500*time.Millisecond, cfg.CommandCooldown)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, ":8080", cfg.AdminHTTPAddr)
}

func TestParse_InvalidValue(t *testing.T) {
	_, err := parse(env.Options{Environment: map[string]string{"COMMAND_COOLDOWN": "soon"}})
	assert.Error(t, err)
}

func TestConfig_Snapshot(t *testing.T) {
	cfg := &Config{CommandPrefix: ">", IgnoreBots: false, IgnoreLabelCase: true, HelpLabels: []string{"h"}}
	snap := cfg.Snapshot()

	assert.Equal(t, ">", snap.Prefix)
	assert.False(t, snap.IgnoreBots)
	assert.True(t, snap.IgnoreLabelCase)
	assert.False(t, snap.BotMentionPrefix)
	assert.Equal(t, []string{"h"}, snap.HelpLabels)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
prefix: "$"
guild_prefixes:
  "42": "?"
muted_channels: ["c1"]
permission_holders:
  admin: ["u1", "u2"]
ignore_bots: false
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	base := cmd.DefaultSnapshot()
	base.GuildPrefixes = map[string]string{"7": "%"}

	snap, err := LoadSettingsFile(path, base)
	assert.NoError(t, err)
	assert.Equal(t, "$", snap.Prefix)
	assert.Equal(t, "?", snap.GuildPrefixes["42"])
	assert.Equal(t, "%", snap.GuildPrefixes["7"])
	assert.Equal(t, []string{"c1"}, snap.MutedChannels)
	assert.Equal(t, []string{"u1", "u2"}, snap.PermissionHolders["admin"])
	assert.False(t, snap.IgnoreBots)
	assert.True(t, snap.IgnoreLabelCase)
	assert.Equal(t, []string{"help"}, snap.HelpLabels)

	// base is left untouched
	_, ok := base.GuildPrefixes["42"]
	assert.False(t, ok)
}

func TestLoadSettingsFile_Errors(t *testing.T) {
	_, err := LoadSettingsFile(filepath.Join(t.TempDir(), "missing.yaml"), cmd.DefaultSnapshot())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("prefix: [unterminated"), 0o644))
	_, err = LoadSettingsFile(path, cmd.DefaultSnapshot())
	assert.Error(t, err)
}

func TestSortCategories(t *testing.T) {
	names := []string{"zzz", CategorySettings, CategoryInformation, "aaa", CategoryGameplay}
	SortCategories(names)
	assert.Equal(t, []string{CategoryInformation, CategoryGameplay, CategorySettings, "aaa", "zzz"}, names)
}
