package cmd

import (
	"fmt"
	"strings"
)

// Kind tags the variant carried by an Outcome.
type Kind int

const (
	KindNotACommand Kind = iota
	KindSuppressed
	KindUnknownCommand
	KindAmbiguousOrWrongArity
	KindArgumentError
	KindPermissionDenied
	KindHelpRequested
	KindInvoked
)

func (k Kind) String() string {
	switch k {
	case KindNotACommand:
		return "NotACommand"
	case KindSuppressed:
		return "Suppressed"
	case KindUnknownCommand:
		return "UnknownCommand"
	case KindAmbiguousOrWrongArity:
		return "AmbiguousOrWrongArity"
	case KindArgumentError:
		return "ArgumentError"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindHelpRequested:
		return "HelpRequested"
	case KindInvoked:
		return "Invoked"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// SuppressReason says why a message was dropped by policy.
type SuppressReason int

const (
	ReasonNone SuppressReason = iota
	ReasonMuted
	ReasonIgnoredBot
)

func (r SuppressReason) String() string {
	switch r {
	case ReasonMuted:
		return "Muted"
	case ReasonIgnoredBot:
		return "IgnoredBot"
	}
	return "None"
}

// State is a step of the per-message dispatch pipeline.
type State int

const (
	StateReceived State = iota
	StateParsingEvent
	StateMapping
	StateCheckingPermission
	StateParsingArguments
	StateInvoking
	StateDone
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "Received"
	case StateParsingEvent:
		return "ParsingEvent"
	case StateMapping:
		return "Mapping"
	case StateCheckingPermission:
		return "CheckingPermission"
	case StateParsingArguments:
		return "ParsingArguments"
	case StateInvoking:
		return "Invoking"
	case StateDone:
		return "Done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is the single result of dispatching one message. Only the fields of
// its Kind are set. Stage is the pipeline step the dispatch ended in.
type Outcome struct {
	Kind  Kind
	Stage State

	Prefix string
	Label  string

	// Suppressed
	Reason SuppressReason
	// AmbiguousOrWrongArity
	Candidates []*Descriptor
	// ArgumentError
	ArgError *ArgumentError
	// PermissionDenied
	Permission string
	// HelpRequested
	Topic string

	// ArgumentError, PermissionDenied, Invoked
	Descriptor *Descriptor
	// Invoked
	Result any
	Err    error
}

// Invoked reports whether a handler ran.
func (o *Outcome) Invoked() bool { return o.Kind == KindInvoked }

// Failed reports whether the outcome is a user-facing failure that deserves a
// corrective help message.
func (o *Outcome) Failed() bool {
	switch o.Kind {
	case KindUnknownCommand, KindAmbiguousOrWrongArity, KindArgumentError:
		return true
	}
	return false
}

func (o *Outcome) String() string {
	switch o.Kind {
	case KindSuppressed:
		return fmt.Sprintf("Suppressed(%s)", o.Reason)
	case KindUnknownCommand:
		return fmt.Sprintf("UnknownCommand(%q)", o.Label)
	case KindAmbiguousOrWrongArity:
		usages := make([]string, 0, len(o.Candidates))
		for _, c := range o.Candidates {
			usages = append(usages, c.Usage(""))
		}
		return fmt.Sprintf("AmbiguousOrWrongArity(%q, [%s])", o.Label, strings.Join(usages, "; "))
	case KindArgumentError:
		return fmt.Sprintf("ArgumentError(%d, %s, %q)", o.ArgError.Position, o.ArgError.Expected, o.ArgError.Raw)
	case KindPermissionDenied:
		return fmt.Sprintf("PermissionDenied(%q)", o.Permission)
	case KindHelpRequested:
		return fmt.Sprintf("HelpRequested(%q)", o.Topic)
	case KindInvoked:
		if o.Err != nil {
			return fmt.Sprintf("Invoked(%q, err=%v)", o.Label, o.Err)
		}
		return fmt.Sprintf("Invoked(%q)", o.Label)
	}
	return o.Kind.String()
}

func notACommand() *Outcome {
	return &Outcome{Kind: KindNotACommand, Stage: StateParsingEvent}
}

func suppressed(reason SuppressReason) *Outcome {
	return &Outcome{Kind: KindSuppressed, Stage: StateParsingEvent, Reason: reason}
}

func unknownCommand(label string) *Outcome {
	return &Outcome{Kind: KindUnknownCommand, Stage: StateMapping, Label: label}
}

func wrongArity(label string, candidates []*Descriptor) *Outcome {
	return &Outcome{Kind: KindAmbiguousOrWrongArity, Stage: StateMapping, Label: label, Candidates: candidates}
}

func helpRequested(label, topic string) *Outcome {
	return &Outcome{Kind: KindHelpRequested, Stage: StateMapping, Label: label, Topic: topic}
}

func permissionDenied(d *Descriptor) *Outcome {
	return &Outcome{
		Kind:       KindPermissionDenied,
		Stage:      StateCheckingPermission,
		Label:      d.Label,
		Permission: d.Permission,
		Descriptor: d,
	}
}

func argumentFailure(d *Descriptor, e *ArgumentError) *Outcome {
	return &Outcome{
		Kind:       KindArgumentError,
		Stage:      StateParsingArguments,
		Label:      d.Label,
		ArgError:   e,
		Descriptor: d,
	}
}

func invoked(d *Descriptor, result any, err error) *Outcome {
	return &Outcome{
		Kind:       KindInvoked,
		Stage:      StateInvoking,
		Label:      d.Label,
		Descriptor: d,
		Result:     result,
		Err:        err,
	}
}
