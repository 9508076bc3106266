package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/longbridgeapp/assert"
)

func nopHandler() Handler {
	return HandlerFunc(func(context.Context, *Invocation) (any, error) { return nil, nil })
}

func mustRegistry(t *testing.T, descs ...*Descriptor) *Registry {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Register(descs...); err != nil {
		t.Fatalf("cmd:mapper_test - register: %v", err)
	}
	return reg
}

func TestRegistry_RegisterValidation(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(&Descriptor{Label: "", Handler: nopHandler()})
	assert.True(t, errors.Is(err, ErrInvalidLabel))

	err = reg.Register(&Descriptor{Label: "two words", Handler: nopHandler()})
	assert.True(t, errors.Is(err, ErrInvalidLabel))

	err = reg.Register(&Descriptor{Label: "ping"})
	assert.True(t, errors.Is(err, ErrNilHandler))

	assert.NoError(t, reg.Register(&Descriptor{Label: "ping", Handler: nopHandler()}))
	reg.seal()
	assert.Equal(t, ErrRegistrySealed, reg.Register(&Descriptor{Label: "pong", Handler: nopHandler()}))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_RegisterIsAllOrNothing(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(
		&Descriptor{Label: "ping", Handler: nopHandler()},
		&Descriptor{Label: "roll", Params: []TypeTag{TypeInt}, Handler: nopHandler()},
		&Descriptor{Label: "bad label", Handler: nopHandler()},
	)
	assert.True(t, errors.Is(err, ErrInvalidLabel))
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.Has("ping", true))
	assert.Equal(t, 0, len(reg.All()))

	// the fixed batch goes in whole
	assert.NoError(t, reg.Register(
		&Descriptor{Label: "ping", Handler: nopHandler()},
		nil,
		&Descriptor{Label: "roll", Params: []TypeTag{TypeInt}, Handler: nopHandler()},
	))
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_DescriptorIsCopied(t *testing.T) {
	params := []TypeTag{TypeInt}
	d := &Descriptor{Label: "roll", Params: params, Handler: nopHandler()}
	reg := mustRegistry(t, d)

	params[0] = TypeString
	d.Label = "changed"

	got := reg.Lookup("roll", false)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, TypeInt, got[0].Params[0])
}

func TestRegistry_AllAndLabels(t *testing.T) {
	reg := mustRegistry(t,
		&Descriptor{Label: "roll", Params: []TypeTag{TypeInt}, Handler: nopHandler()},
		&Descriptor{Label: "ping", Handler: nopHandler()},
		&Descriptor{Label: "roll", Handler: nopHandler()},
	)

	all := reg.All()
	assert.Equal(t, 3, len(all))
	assert.Equal(t, "ping", all[0].Label)
	assert.Equal(t, 1, all[1].Arity())
	assert.Equal(t, 0, all[2].Arity())
	assert.Equal(t, []string{"ping", "roll"}, reg.Labels())
}

func TestDescriptor_Usage(t *testing.T) {
	d := &Descriptor{Label: "grant", Params: []TypeTag{TypeString, TypeUser}}
	assert.Equal(t, "!grant <string> <user>", d.Usage("!"))
	assert.Equal(t, "ping", (&Descriptor{Label: "ping"}).Usage(""))
}

func TestMapper_Map(t *testing.T) {
	ping := &Descriptor{Label: "Ping", Handler: nopHandler()}
	roll1 := &Descriptor{Label: "roll", Params: []TypeTag{TypeInt}, Handler: nopHandler()}
	roll3 := &Descriptor{Label: "roll", Params: []TypeTag{TypeInt, TypeInt, TypeInt}, Handler: nopHandler()}
	m := &Mapper{Registry: mustRegistry(t, ping, roll1, roll3)}

	t.Run("exact match", func(t *testing.T) {
		d, out := m.Map("Ping", 0, false)
		assert.Nil(t, out)
		assert.Equal(t, "Ping", d.Label)
	})

	t.Run("case-insensitive match", func(t *testing.T) {
		d, out := m.Map("pING", 0, true)
		assert.Nil(t, out)
		assert.Equal(t, "Ping", d.Label)
	})

	t.Run("case-sensitive miss", func(t *testing.T) {
		_, out := m.Map("ping", 0, false)
		assert.Equal(t, KindUnknownCommand, out.Kind)
		assert.Equal(t, "ping", out.Label)
	})

	t.Run("overload by arity", func(t *testing.T) {
		d, out := m.Map("roll", 3, false)
		assert.Nil(t, out)
		assert.Equal(t, 3, d.Arity())
	})

	t.Run("no arity match lists every overload", func(t *testing.T) {
		_, out := m.Map("roll", 2, false)
		assert.Equal(t, KindAmbiguousOrWrongArity, out.Kind)
		assert.Equal(t, 2, len(out.Candidates))
		assert.Equal(t, 1, out.Candidates[0].Arity())
		assert.Equal(t, 3, out.Candidates[1].Arity())
	})

	t.Run("single candidate with wrong arity", func(t *testing.T) {
		_, out := m.Map("PING", 1, true)
		assert.Equal(t, KindAmbiguousOrWrongArity, out.Kind)
		assert.Equal(t, 1, len(out.Candidates))
		assert.Equal(t, 0, out.Candidates[0].Arity())
	})

	t.Run("unknown label regardless of case setting", func(t *testing.T) {
		for _, ignoreCase := range []bool{true, false} {
			_, out := m.Map("nope", 0, ignoreCase)
			assert.Equal(t, KindUnknownCommand, out.Kind)
		}
	})

	t.Run("empty label", func(t *testing.T) {
		_, out := m.Map("", 0, true)
		assert.Equal(t, KindUnknownCommand, out.Kind)
		assert.Equal(t, "", out.Label)
	})
}

func TestMapper_SameArityTieUsesFirstRegistered(t *testing.T) {
	first := &Descriptor{Label: "mute", Params: []TypeTag{TypeChannel}, Description: "first", Handler: nopHandler()}
	second := &Descriptor{Label: "mute", Params: []TypeTag{TypeUser}, Description: "second", Handler: nopHandler()}
	m := &Mapper{Registry: mustRegistry(t, first, second)}

	d, out := m.Map("mute", 1, false)
	assert.Nil(t, out)
	assert.Equal(t, "first", d.Description)
}

func TestMapper_CasingVariantsAreAllCandidates(t *testing.T) {
	lower := &Descriptor{Label: "echo", Params: []TypeTag{TypeString}, Handler: nopHandler()}
	upper := &Descriptor{Label: "ECHO", Params: []TypeTag{TypeString, TypeString}, Handler: nopHandler()}
	m := &Mapper{Registry: mustRegistry(t, lower, upper)}

	d, out := m.Map("Echo", 2, true)
	assert.Nil(t, out)
	assert.Equal(t, "ECHO", d.Label)

	_, out = m.Map("echo", 2, false)
	assert.Equal(t, KindAmbiguousOrWrongArity, out.Kind)
	assert.Equal(t, 1, len(out.Candidates))
}
