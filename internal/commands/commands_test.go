package commands

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"
	"github.com/rs/zerolog"

	"github.com/keshon/textcmd/internal/middleware"
	"github.com/keshon/textcmd/internal/storage"
	"github.com/keshon/textcmd/pkg/cmd"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   []cmd.Snapshot
	history []storage.CommandHistoryRecord
	saveErr error
}

func (f *fakeStore) SaveSettings(snap cmd.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, snap)
	return nil
}

func (f *fakeStore) FetchCommandHistory(string) ([]storage.CommandHistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

func (f *fakeStore) last() cmd.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[len(f.saved)-1]
}

type env struct {
	settings *cmd.Settings
	store    *fakeStore
	d        *cmd.Dispatcher
}

func setup(t *testing.T) *env {
	t.Helper()
	settings := cmd.NewSettings(zerolog.Nop())
	settings.GrantPermission("admin", "boss")
	store := &fakeStore{}
	reg := cmd.NewRegistry()

	err := Register(reg, Deps{
		Settings: settings,
		Store:    store,
		Log:      zerolog.Nop(),
		Rand:     func(n int64) int64 { return n - 1 },
	})
	if err != nil {
		t.Fatalf("commands:commands_test - register: %v", err)
	}

	d, err := cmd.NewDispatcher(cmd.Config{
		Settings:    settings,
		Registry:    reg,
		Middlewares: []cmd.Middleware{middleware.WithGuildOnly()},
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("commands:commands_test - dispatcher: %v", err)
	}
	return &env{settings: settings, store: store, d: d}
}

func (e *env) run(guild, author, content string) *cmd.Outcome {
	return e.d.Dispatch(context.Background(), &cmd.Message{
		ID: "m", GuildID: guild, ChannelID: "c1", AuthorID: author, Content: content,
	}, nil)
}

func TestRegister_RequiresSettings(t *testing.T) {
	assert.Error(t, Register(cmd.NewRegistry(), Deps{}))
}

func TestPing(t *testing.T) {
	e := setup(t)
	out := e.run("g", "u", "!ping")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.Equal(t, "🏓 Pong!", out.Result)
}

func TestPing_WithLatency(t *testing.T) {
	b := &builtins{Deps: Deps{Latency: func() time.Duration { return 42 * time.Millisecond }}}
	res, err := b.ping(context.Background(), &cmd.Invocation{})
	assert.NoError(t, err)
	assert.Equal(t, "🏓 Pong! Response time: `42ms`", res)
}

func TestRoll(t *testing.T) {
	e := setup(t)

	tests := []struct {
		content string
		want    string
	}{
		{"!roll", "🎲 6 (1-6)"},
		{"!roll 20", "🎲 20 (1-20)"},
		{"!roll 10 5", "🎲 10 (5-10)"},
		{"!roll -3 3", "🎲 3 (-3-3)"},
	}
	for _, tt := range tests {
		out := e.run("g", "u", tt.content)
		assert.Equal(t, cmd.KindInvoked, out.Kind)
		assert.Equal(t, tt.want, out.Result)
	}

	out := e.run("g", "u", "!roll 0")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.Error(t, out.Err)

	out = e.run("g", "u", "!roll a b")
	assert.Equal(t, cmd.KindArgumentError, out.Kind)
	assert.Equal(t, 1, out.ArgError.Position)

	out = e.run("g", "u", "!roll 1 2 3")
	assert.Equal(t, cmd.KindAmbiguousOrWrongArity, out.Kind)
	assert.Equal(t, 3, len(out.Candidates))
}

func TestDice(t *testing.T) {
	b := &builtins{Deps: Deps{Rand: func(n int64) int64 { return n - 1 }}}

	total, pretty, err := b.evaluate("2d6+1d4*2-3")
	assert.NoError(t, err)
	assert.Equal(t, int64(12+8-3), total)
	assert.Equal(t, "2d6 [6, 6] + 1d4 [4] * 2 - 3", pretty)

	_, _, err = b.evaluate("10/0")
	assert.Error(t, err)
	_, _, err = b.evaluate("*2")
	assert.Error(t, err)
	_, _, err = b.evaluate("2x6")
	assert.Error(t, err)
	_, _, err = b.evaluate("500d6")
	assert.Error(t, err)

	e := setup(t)
	out := e.run("g", "u", "!dice d20")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.Equal(t, "🎲 `d20` = d20 [20] = **20**", out.Result)
}

func TestDice_Overflow(t *testing.T) {
	b := &builtins{Deps: Deps{Rand: func(n int64) int64 { return 0 }}}

	total, _, err := b.evaluate("3037000499*3037000499")
	assert.NoError(t, err)
	assert.Equal(t, int64(9223372030926249001), total)

	for _, formula := range []string{
		"3037000500*3037000500",
		"9223372036854775807+1",
		"0-9223372036854775807-9",
		"2*4611686018427387904",
	} {
		_, _, err := b.evaluate(formula)
		assert.True(t, errors.Is(err, errTooLarge))
	}
}

func TestPrefixCommands(t *testing.T) {
	e := setup(t)

	out := e.run("g", "u", "!prefix")
	assert.Equal(t, "The command prefix is `!`.", out.Result)

	out = e.run("g", "u", "!prefix ?")
	assert.Equal(t, cmd.KindPermissionDenied, out.Kind)

	out = e.run("g", "boss", "!prefix ?")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.Equal(t, "Prefix set to `?`.", out.Result)
	assert.Equal(t, "?", e.store.last().GuildPrefixes["g"])

	// the old prefix no longer addresses the bot in that guild
	out = e.run("g", "u", "!prefix")
	assert.Equal(t, cmd.KindNotACommand, out.Kind)
	out = e.run("g", "u", "?prefix")
	assert.Equal(t, "This server uses `?` (default is `!`).", out.Result)

	out = e.run("g", "boss", "?resetprefix")
	assert.Equal(t, "Prefix reset to `!`.", out.Result)
	assert.Equal(t, "!", e.settings.ResolvePrefix("g"))
}

func TestPrefix_GuildOnly(t *testing.T) {
	e := setup(t)
	out := e.run("", "boss", "!prefix ?")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.Equal(t, middleware.ErrGuildOnly, out.Err)
	assert.Equal(t, "!", e.settings.ResolvePrefix(""))
}

func TestMuteCommands(t *testing.T) {
	e := setup(t)

	out := e.run("g", "boss", "!mute <#22>")
	assert.Equal(t, "Commands in <#22> are now ignored.", out.Result)
	assert.True(t, e.settings.IsMuted("22", "u"))
	assert.Equal(t, []string{"22"}, e.store.last().MutedChannels)

	out = e.run("g", "boss", "!unmute <#22>")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.False(t, e.settings.IsMuted("22", "u"))

	out = e.run("g", "boss", "!muteuser <@!7>")
	assert.Equal(t, "Commands from <@7> are now ignored.", out.Result)
	out = e.run("g", "7", "!ping")
	assert.Equal(t, cmd.KindSuppressed, out.Kind)

	out = e.run("g", "boss", "!unmuteuser 7")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	out = e.run("g", "7", "!ping")
	assert.Equal(t, cmd.KindInvoked, out.Kind)

	out = e.run("g", "boss", "!mute general")
	assert.Equal(t, cmd.KindArgumentError, out.Kind)
}

func TestMuteCommands_MapByCase(t *testing.T) {
	e := setup(t)
	e.settings.MuteChannel("22")

	out := e.run("g", "boss", "!UNMUTE <#22>")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.Equal(t, "unmute", out.Label)
}

func TestGrantRevoke(t *testing.T) {
	e := setup(t)

	out := e.run("g", "boss", "!grant mod <@5>")
	assert.Equal(t, "Granted `mod` to <@5>.", out.Result)
	assert.True(t, e.settings.HasPermission("5", "mod"))
	assert.Equal(t, []string{"5"}, e.store.last().PermissionHolders["mod"])

	out = e.run("g", "boss", "!revoke mod <@5>")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.False(t, e.settings.HasPermission("5", "mod"))

	out = e.run("g", "5", "!grant admin <@5>")
	assert.Equal(t, cmd.KindPermissionDenied, out.Kind)
}

func TestPersistFailure(t *testing.T) {
	e := setup(t)
	e.store.saveErr = errors.New("disk full")

	out := e.run("g", "boss", "!muteuser 9")
	assert.Equal(t, cmd.KindInvoked, out.Kind)
	assert.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, e.store.saveErr))
	// applied in memory anyway
	assert.True(t, e.settings.IsMuted("c", "9"))
}

func TestHistory(t *testing.T) {
	e := setup(t)

	out := e.run("g", "u", "!history")
	assert.Equal(t, "No commands recorded yet.", out.Result)

	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	e.store.history = []storage.CommandHistoryRecord{
		{Command: "ping", Username: "alice", Datetime: at},
		{Command: "roll", Args: []string{"20"}, UserID: "42", Datetime: at},
	}
	out = e.run("g", "u", "!history")
	got, _ := out.Result.(string)
	lines := strings.Split(got, "\n")
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, "`!roll 20` by 42 at 2024-05-01 12:30", lines[1])
	assert.Equal(t, "`!ping` by alice at 2024-05-01 12:30", lines[2])
}

func TestHistory_WithoutStore(t *testing.T) {
	b := &builtins{}
	_, err := b.history(context.Background(), &cmd.Invocation{Message: &cmd.Message{}})
	assert.Error(t, err)
}
