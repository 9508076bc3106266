package cmd

import "github.com/rs/zerolog"

// Mapper finds the descriptor a label and argument count address.
type Mapper struct {
	Registry *Registry
	Log      zerolog.Logger
}

// Map returns the unique descriptor for label with argc arguments, or an
// UnknownCommand / AmbiguousOrWrongArity outcome. Overloads sharing an arity
// are a registration conflict; the first registered one wins and the tie is
// logged.
func (m *Mapper) Map(label string, argc int, ignoreCase bool) (*Descriptor, *Outcome) {
	candidates := m.Registry.Lookup(label, ignoreCase)
	if len(candidates) == 0 {
		return nil, unknownCommand(label)
	}

	var match *Descriptor
	ties := 0
	for _, d := range candidates {
		if d.Arity() != argc {
			continue
		}
		if match == nil {
			match = d
		} else {
			ties++
		}
	}

	if match == nil {
		return nil, wrongArity(label, candidates)
	}
	if ties > 0 {
		m.Log.Warn().
			Str("label", label).
			Int("arity", argc).
			Int("overloads", ties+1).
			Msg("Several overloads share an arity, using the first registered")
	}
	return match, nil
}
