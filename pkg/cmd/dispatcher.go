package cmd

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

var ErrHandlerPanic = errors.New("command handler panicked")

// Presenter receives the outcome of every submitted message. It renders help
// or error text, replies with the handler result, or does nothing.
type Presenter interface {
	Present(ctx context.Context, msg *Message, out *Outcome, data interface{})
}

// PresenterFunc adapts a plain function to Presenter.
type PresenterFunc func(ctx context.Context, msg *Message, out *Outcome, data interface{})

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, msg *Message, out *Outcome, data interface{}) {
	f(ctx, msg, out, data)
}

// Config assembles a dispatcher. It is read once by NewDispatcher.
type Config struct {
	Settings    *Settings
	Registry    *Registry
	Arguments   *ArgumentParser // nil = built-in converters only
	Middlewares []Middleware    // applied to every handler, first is outermost
	Presenter   Presenter       // nil = outcomes are only logged
	Logger      zerolog.Logger
}

// Dispatcher runs the per-message pipeline: parse event, map, check permission,
// convert arguments, invoke. Messages are independent units of work.
type Dispatcher struct {
	settings  *Settings
	registry  *Registry
	args      *ArgumentParser
	mapper    Mapper
	presenter Presenter
	handlers  map[*Descriptor]Handler
	log       zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher validates cfg and seals the settings, registry and argument
// parser against further structural changes. Settings mutators keep working.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.Settings == nil {
		return nil, errors.New("dispatcher: settings are required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("dispatcher: registry is required")
	}
	if cfg.Arguments == nil {
		cfg.Arguments = NewArgumentParser()
	}

	d := &Dispatcher{
		settings:  cfg.Settings,
		registry:  cfg.Registry,
		args:      cfg.Arguments,
		mapper:    Mapper{Registry: cfg.Registry, Log: cfg.Logger},
		presenter: cfg.Presenter,
		handlers:  make(map[*Descriptor]Handler, cfg.Registry.Len()),
		log:       cfg.Logger,
	}

	for _, desc := range cfg.Registry.All() {
		for _, tag := range desc.Params {
			if !d.args.Supports(tag) {
				return nil, fmt.Errorf("dispatcher: command %s: %w: %s", desc.Label, ErrUnknownType, tag)
			}
		}
		d.handlers[desc] = Apply(desc.Handler, cfg.Middlewares...)
	}
	cfg.Registry.seal()
	cfg.Arguments.seal()
	cfg.Settings.seal()

	return d, nil
}

// Settings returns the store the dispatcher reads policy from.
func (d *Dispatcher) Settings() *Settings { return d.settings }

// Registry returns the registry the dispatcher maps labels against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch runs the pipeline for msg synchronously and returns its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message, data interface{}) *Outcome {
	out := d.run(ctx, msg, data)

	ev := d.log.Debug()
	if out.Kind == KindInvoked && out.Err != nil {
		ev = d.log.Warn().Err(out.Err)
	}
	ev.Str("message", msg.ID).
		Str("guild", msg.GuildID).
		Str("channel", msg.ChannelID).
		Str("author", msg.AuthorID).
		Str("outcome", out.Kind.String()).
		Str("stage", out.Stage.String()).
		Str("label", out.Label).
		Msg("Dispatch done")
	return out
}

func (d *Dispatcher) run(ctx context.Context, msg *Message, data interface{}) *Outcome {
	view := d.settings.View()

	parsed, out := ParseEvent(msg, view)
	if out != nil {
		return out
	}

	ignoreCase := view.IgnoreLabelCase()
	if view.IsHelpLabel(parsed.Label) && !d.registry.Has(parsed.Label, ignoreCase) {
		topic := ""
		if len(parsed.Args) > 0 {
			topic = parsed.Args[0]
		}
		out = helpRequested(parsed.Label, topic)
		out.Prefix = parsed.Prefix
		return out
	}

	desc, out := d.mapper.Map(parsed.Label, len(parsed.Args), ignoreCase)
	if out != nil {
		out.Prefix = parsed.Prefix
		return out
	}

	if !view.HasPermission(msg.AuthorID, desc.Permission) {
		out = permissionDenied(desc)
		out.Prefix = parsed.Prefix
		return out
	}

	values, argErr := d.args.Parse(desc.Params, parsed.Args)
	if argErr != nil {
		out = argumentFailure(desc, argErr)
		out.Prefix = parsed.Prefix
		return out
	}

	inv := &Invocation{
		Message:    msg,
		Descriptor: desc,
		Prefix:     parsed.Prefix,
		Args:       values,
		Raw:        parsed.Args,
		Data:       data,
	}
	result, err := d.invoke(ctx, d.handlers[desc], inv)
	out = invoked(desc, result, err)
	out.Prefix = parsed.Prefix
	return out
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, inv *Invocation) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("label", inv.Descriptor.Label).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Command handler panicked")
			result, err = nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h.Handle(ctx, inv)
}

// Submit dispatches msg on its own goroutine and hands the outcome to the
// presenter. It never blocks the caller. Messages submitted after Close are
// dropped and Submit returns false.
func (d *Dispatcher) Submit(ctx context.Context, msg *Message, data interface{}) bool {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.log.Debug().Str("message", msg.ID).Msg("Dispatcher closed, message dropped")
		return false
	}
	d.wg.Add(1)
	d.mu.RUnlock()

	go func() {
		defer d.wg.Done()
		out := d.Dispatch(ctx, msg, data)
		d.present(ctx, msg, out, data)
	}()
	return true
}

func (d *Dispatcher) present(ctx context.Context, msg *Message, out *Outcome, data interface{}) {
	if d.presenter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("message", msg.ID).Interface("panic", r).Msg("Presenter panicked")
		}
	}()
	d.presenter.Present(ctx, msg, out, data)
}

// Close stops accepting new messages and waits for in-flight ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
