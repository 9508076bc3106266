// Package cmd is a transport-agnostic text command core: it decides whether a chat
// message is a command, finds the handler it addresses, converts its arguments and
// applies mute and permission policy. Every processed message yields exactly one
// Outcome. How messages arrive and how outcomes are shown (Discord, CLI) is up to
// adapters built on top of this package.
package cmd

import (
	"context"
	"time"
)

// Invocation carries everything a handler gets once a message has been parsed,
// mapped, authorized and its arguments converted. Data is the adapter's opaque
// payload (e.g. *discordgo.Session plus the event).
type Invocation struct {
	Message    *Message
	Descriptor *Descriptor
	Prefix     string
	Args       []any
	Raw        []string
	Data       interface{}
}

// Handler executes a matched command. The returned value is handed to the
// presenter inside an Invoked outcome.
type Handler interface {
	Handle(ctx context.Context, inv *Invocation) (any, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, inv *Invocation) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, inv *Invocation) (any, error) {
	return f(ctx, inv)
}

// Arg returns the i-th converted argument (0-based), or nil when out of range.
func (inv *Invocation) Arg(i int) any {
	if i < 0 || i >= len(inv.Args) {
		return nil
	}
	return inv.Args[i]
}

func (inv *Invocation) String(i int) string {
	v, _ := inv.Arg(i).(string)
	return v
}

func (inv *Invocation) Int(i int) int64 {
	v, _ := inv.Arg(i).(int64)
	return v
}

func (inv *Invocation) Float(i int) float64 {
	v, _ := inv.Arg(i).(float64)
	return v
}

func (inv *Invocation) Bool(i int) bool {
	v, _ := inv.Arg(i).(bool)
	return v
}

func (inv *Invocation) Duration(i int) time.Duration {
	v, _ := inv.Arg(i).(time.Duration)
	return v
}
