package cmd

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"
)

// FallbackPrefix replaces any empty prefix assignment.
const FallbackPrefix = "!"

var ErrSettingsSealed = errors.New("settings are sealed")

// Snapshot is the plain, serializable form of Settings. It is what configuration
// files and persistence exchange with the store.
type Snapshot struct {
	Prefix            string              `yaml:"prefix" json:"prefix"`
	GuildPrefixes     map[string]string   `yaml:"guild_prefixes" json:"guild_prefixes"`
	MutedChannels     []string            `yaml:"muted_channels" json:"muted_channels"`
	MutedUsers        []string            `yaml:"muted_users" json:"muted_users"`
	HelpLabels        []string            `yaml:"help_labels" json:"help_labels"`
	PermissionHolders map[string][]string `yaml:"permission_holders" json:"permission_holders"`
	IgnoreBots        bool                `yaml:"ignore_bots" json:"ignore_bots"`
	IgnoreLabelCase   bool                `yaml:"ignore_label_case" json:"ignore_label_case"`
	BotMentionPrefix  bool                `yaml:"bot_mention_prefix" json:"bot_mention_prefix"`
}

// DefaultSnapshot returns the builder defaults: prefix "!", bots ignored, label
// case ignored, bot mention accepted as prefix, "help" as the only help label.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Prefix:           FallbackPrefix,
		HelpLabels:       []string{"help"},
		IgnoreBots:       true,
		IgnoreLabelCase:  true,
		BotMentionPrefix: true,
	}
}

// state is never mutated once published. Fields are exported only so deepcopy
// can clone them.
type state struct {
	Prefix           string
	GuildPrefixes    map[string]string
	MutedChannels    map[string]struct{}
	MutedUsers       map[string]struct{}
	HelpLabels       map[string]struct{}
	Holders          map[string]map[string]struct{}
	IgnoreBots       bool
	IgnoreLabelCase  bool
	BotMentionPrefix bool
}

// Settings is the shared policy store. Reads are lock-free against an immutable
// state; writers clone, modify and publish a new state under a mutex, so a reader
// sees either all of an update or none of it.
type Settings struct {
	mu     sync.Mutex
	cur    atomic.Pointer[state]
	sealed atomic.Bool
	log    zerolog.Logger
}

// NewSettings returns a store populated with DefaultSnapshot.
func NewSettings(log zerolog.Logger) *Settings {
	return NewSettingsFrom(DefaultSnapshot(), log)
}

// NewSettingsFrom returns a store populated from snap. Invalid prefixes are
// replaced by the fallback.
func NewSettingsFrom(snap Snapshot, log zerolog.Logger) *Settings {
	s := &Settings{log: log}
	s.cur.Store(s.fromSnapshot(snap))
	return s
}

// Load replaces the whole state with snap. It is meant for configuration
// overrides before dispatch starts and fails once a dispatcher owns the store.
func (s *Settings) Load(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed.Load() {
		return ErrSettingsSealed
	}
	s.cur.Store(s.fromSnapshot(snap))
	return nil
}

// Snapshot returns the current state in serializable form, with sorted slices.
func (s *Settings) Snapshot() Snapshot {
	st := s.cur.Load()
	snap := Snapshot{
		Prefix:            st.Prefix,
		GuildPrefixes:     make(map[string]string, len(st.GuildPrefixes)),
		MutedChannels:     sortedKeys(st.MutedChannels),
		MutedUsers:        sortedKeys(st.MutedUsers),
		HelpLabels:        sortedKeys(st.HelpLabels),
		PermissionHolders: make(map[string][]string, len(st.Holders)),
		IgnoreBots:        st.IgnoreBots,
		IgnoreLabelCase:   st.IgnoreLabelCase,
		BotMentionPrefix:  st.BotMentionPrefix,
	}
	for g, p := range st.GuildPrefixes {
		snap.GuildPrefixes[g] = p
	}
	for perm, users := range st.Holders {
		snap.PermissionHolders[perm] = sortedKeys(users)
	}
	return snap
}

// View returns the current immutable state. A dispatch reads a single view for
// its whole run.
func (s *Settings) View() View { return View{st: s.cur.Load()} }

func (s *Settings) seal() { s.sealed.Store(true) }

// Sealed reports whether a dispatcher owns the store.
func (s *Settings) Sealed() bool { return s.sealed.Load() }

func (s *Settings) update(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := deepcopy.Copy(s.cur.Load()).(*state)
	fn(next)
	s.cur.Store(next)
}

func (s *Settings) validatePrefix(prefix, scope string) string {
	if strings.TrimSpace(prefix) == "" {
		s.log.Warn().Str("scope", scope).Str("fallback", FallbackPrefix).
			Msg("Prefix must not be empty, switching to fallback")
		return FallbackPrefix
	}
	return prefix
}

func (s *Settings) fromSnapshot(snap Snapshot) *state {
	st := &state{
		Prefix:           s.validatePrefix(snap.Prefix, "default"),
		GuildPrefixes:    make(map[string]string, len(snap.GuildPrefixes)),
		MutedChannels:    toSet(snap.MutedChannels),
		MutedUsers:       toSet(snap.MutedUsers),
		HelpLabels:       toSet(snap.HelpLabels),
		Holders:          make(map[string]map[string]struct{}, len(snap.PermissionHolders)),
		IgnoreBots:       snap.IgnoreBots,
		IgnoreLabelCase:  snap.IgnoreLabelCase,
		BotMentionPrefix: snap.BotMentionPrefix,
	}
	for g, p := range snap.GuildPrefixes {
		st.GuildPrefixes[g] = s.validatePrefix(p, "guild:"+g)
	}
	for perm, users := range snap.PermissionHolders {
		st.Holders[perm] = toSet(users)
	}
	return st
}

// ────────────────────────────────────────────────────────────────
// READS
// ────────────────────────────────────────────────────────────────

func (s *Settings) Prefix() string                     { return s.View().Prefix() }
func (s *Settings) ResolvePrefix(guildID string) string { return s.View().ResolvePrefix(guildID) }
func (s *Settings) IsMuted(channelID, userID string) bool {
	return s.View().IsMuted(channelID, userID)
}
func (s *Settings) HasPermission(userID, permission string) bool {
	return s.View().HasPermission(userID, permission)
}
func (s *Settings) IsHelpLabel(label string) bool { return s.View().IsHelpLabel(label) }
func (s *Settings) IgnoreBots() bool              { return s.View().IgnoreBots() }
func (s *Settings) IgnoreLabelCase() bool         { return s.View().IgnoreLabelCase() }
func (s *Settings) BotMentionPrefix() bool        { return s.View().BotMentionPrefix() }

// GuildPrefix returns the override for guildID, if any.
func (s *Settings) GuildPrefix(guildID string) (string, bool) {
	p, ok := s.cur.Load().GuildPrefixes[guildID]
	return p, ok
}

// PermissionHolders returns the sorted holders of permission.
func (s *Settings) PermissionHolders(permission string) []string {
	return sortedKeys(s.cur.Load().Holders[permission])
}

func (s *Settings) MutedChannels() []string { return sortedKeys(s.cur.Load().MutedChannels) }
func (s *Settings) MutedUsers() []string    { return sortedKeys(s.cur.Load().MutedUsers) }
func (s *Settings) HelpLabels() []string    { return sortedKeys(s.cur.Load().HelpLabels) }

// ────────────────────────────────────────────────────────────────
// MUTATORS (idempotent, never fail)
// ────────────────────────────────────────────────────────────────

// SetPrefix sets the default prefix and returns the value actually applied.
func (s *Settings) SetPrefix(prefix string) string {
	applied := s.validatePrefix(prefix, "default")
	s.update(func(st *state) { st.Prefix = applied })
	return applied
}

// AddGuildPrefix overrides the default prefix for guildID and returns the value
// actually applied.
func (s *Settings) AddGuildPrefix(guildID, prefix string) string {
	applied := s.validatePrefix(prefix, "guild:"+guildID)
	s.update(func(st *state) { st.GuildPrefixes[guildID] = applied })
	return applied
}

// AddGuildPrefixes applies several overrides in one update.
func (s *Settings) AddGuildPrefixes(prefixes map[string]string) {
	applied := make(map[string]string, len(prefixes))
	for g, p := range prefixes {
		applied[g] = s.validatePrefix(p, "guild:"+g)
	}
	s.update(func(st *state) {
		for g, p := range applied {
			st.GuildPrefixes[g] = p
		}
	})
}

// RemoveGuildPrefix reactivates the default prefix for guildID.
func (s *Settings) RemoveGuildPrefix(guildID string) {
	s.update(func(st *state) { delete(st.GuildPrefixes, guildID) })
}

// ClearGuildPrefixes removes every guild override.
func (s *Settings) ClearGuildPrefixes() {
	s.update(func(st *state) { st.GuildPrefixes = map[string]string{} })
}

func (s *Settings) MuteChannel(channelID string) {
	s.update(func(st *state) { st.MutedChannels[channelID] = struct{}{} })
}

func (s *Settings) UnmuteChannel(channelID string) {
	s.update(func(st *state) { delete(st.MutedChannels, channelID) })
}

func (s *Settings) MuteUser(userID string) {
	s.update(func(st *state) { st.MutedUsers[userID] = struct{}{} })
}

func (s *Settings) UnmuteUser(userID string) {
	s.update(func(st *state) { delete(st.MutedUsers, userID) })
}

// GrantPermission adds userID to the holders of permission.
func (s *Settings) GrantPermission(permission, userID string) {
	s.update(func(st *state) {
		holders, ok := st.Holders[permission]
		if !ok {
			holders = map[string]struct{}{}
			st.Holders[permission] = holders
		}
		holders[userID] = struct{}{}
	})
}

// RevokePermission removes userID from the holders of permission. The
// permission itself stays declared, so it keeps denying everyone else.
func (s *Settings) RevokePermission(permission, userID string) {
	s.update(func(st *state) { delete(st.Holders[permission], userID) })
}

func (s *Settings) AddHelpLabel(label string) {
	if label == "" {
		return
	}
	s.update(func(st *state) { st.HelpLabels[label] = struct{}{} })
}

func (s *Settings) RemoveHelpLabel(label string) {
	s.update(func(st *state) { delete(st.HelpLabels, label) })
}

func (s *Settings) SetIgnoreBots(v bool) {
	s.update(func(st *state) { st.IgnoreBots = v })
}

func (s *Settings) SetIgnoreLabelCase(v bool) {
	s.update(func(st *state) { st.IgnoreLabelCase = v })
}

func (s *Settings) SetBotMentionPrefix(v bool) {
	s.update(func(st *state) { st.BotMentionPrefix = v })
}

// ────────────────────────────────────────────────────────────────
// VIEW
// ────────────────────────────────────────────────────────────────

// View is a consistent, read-only look at the settings at one point in time.
type View struct {
	st *state
}

func (v View) Prefix() string         { return v.st.Prefix }
func (v View) IgnoreBots() bool       { return v.st.IgnoreBots }
func (v View) IgnoreLabelCase() bool  { return v.st.IgnoreLabelCase }
func (v View) BotMentionPrefix() bool { return v.st.BotMentionPrefix }

// ResolvePrefix returns the guild override if present, else the default prefix.
func (v View) ResolvePrefix(guildID string) string {
	if p, ok := v.st.GuildPrefixes[guildID]; ok && guildID != "" {
		return p
	}
	return v.st.Prefix
}

// IsMuted reports whether the channel or the user is muted.
func (v View) IsMuted(channelID, userID string) bool {
	if _, ok := v.st.MutedChannels[channelID]; ok {
		return true
	}
	_, ok := v.st.MutedUsers[userID]
	return ok
}

// HasPermission reports whether userID holds permission. An empty permission
// declares no restriction.
func (v View) HasPermission(userID, permission string) bool {
	if permission == "" {
		return true
	}
	_, ok := v.st.Holders[permission][userID]
	return ok
}

// IsHelpLabel reports whether label is one of the help labels, honouring the
// label case setting.
func (v View) IsHelpLabel(label string) bool {
	if label == "" {
		return false
	}
	if _, ok := v.st.HelpLabels[label]; ok {
		return true
	}
	if !v.st.IgnoreLabelCase {
		return false
	}
	for l := range v.st.HelpLabels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
