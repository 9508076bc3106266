package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
)

var (
	ErrRegistrySealed = errors.New("registry is sealed")
	ErrInvalidLabel   = errors.New("invalid command label")
	ErrNilHandler     = errors.New("command handler is nil")
)

// Descriptor describes one registered handler: the label it answers to, the
// types of its positional parameters and the permission it requires. Several
// descriptors may share a label (overloads); they are told apart by arity.
type Descriptor struct {
	Label       string
	Params      []TypeTag
	Permission  string
	Description string
	Category    string // help grouping only
	GuildOnly   bool
	Handler     Handler

	order int
}

// Arity is the number of positional parameters.
func (d *Descriptor) Arity() int { return len(d.Params) }

// Usage renders the descriptor as a usage line, e.g. "!roll <int> <int>".
func (d *Descriptor) Usage(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(d.Label)
	for _, p := range d.Params {
		b.WriteString(" <")
		b.WriteString(string(p))
		b.WriteString(">")
	}
	return b.String()
}

// Registry maps labels to their ordered overloads. It is filled before the
// dispatcher is built and only read afterwards, so lookups take no locks.
type Registry struct {
	mu       sync.Mutex
	sealed   atomic.Bool
	byLabel  map[string][]*Descriptor
	byFolded map[string][]*Descriptor
	all      []*Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLabel:  make(map[string][]*Descriptor),
		byFolded: make(map[string][]*Descriptor),
	}
}

// Register adds descriptors in order, all or none. Registration order decides
// ties between overloads of equal arity. Usually called from adapter setup, before any
// message is dispatched.
func (r *Registry) Register(descs ...*Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return ErrRegistrySealed
	}
	for _, d := range descs {
		if d == nil {
			continue
		}
		if err := validateDescriptor(d); err != nil {
			return err
		}
	}

	// nothing is indexed unless the whole batch is valid
	for _, d := range descs {
		if d == nil {
			continue
		}
		c := *d
		c.Params = append([]TypeTag(nil), d.Params...)
		c.order = len(r.all)

		r.all = append(r.all, &c)
		r.byLabel[c.Label] = append(r.byLabel[c.Label], &c)
		folded := foldLabel(c.Label)
		r.byFolded[folded] = append(r.byFolded[folded], &c)
	}
	return nil
}

func validateDescriptor(d *Descriptor) error {
	if d.Label == "" || strings.IndexFunc(d.Label, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, d.Label)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, d.Label)
	}
	return nil
}

// Lookup returns the overloads registered under label, in registration order.
// With ignoreCase every casing variant of the label matches.
func (r *Registry) Lookup(label string, ignoreCase bool) []*Descriptor {
	var found []*Descriptor
	if ignoreCase {
		found = r.byFolded[foldLabel(label)]
	} else {
		found = r.byLabel[label]
	}
	if len(found) == 0 {
		return nil
	}
	return append([]*Descriptor(nil), found...)
}

// Has reports whether anything is registered under label.
func (r *Registry) Has(label string, ignoreCase bool) bool {
	if ignoreCase {
		return len(r.byFolded[foldLabel(label)]) > 0
	}
	return len(r.byLabel[label]) > 0
}

// All returns every descriptor, sorted by label and then registration order.
func (r *Registry) All() []*Descriptor {
	list := append([]*Descriptor(nil), r.all...)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Label != list[j].Label {
			return list[i].Label < list[j].Label
		}
		return list[i].order < list[j].order
	})
	return list
}

// Labels returns the distinct labels, sorted.
func (r *Registry) Labels() []string {
	labels := make([]string, 0, len(r.byLabel))
	for l := range r.byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Len is the number of registered descriptors.
func (r *Registry) Len() int { return len(r.all) }

// Sealed reports whether the registry has been handed to a dispatcher.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

func (r *Registry) seal() {
	r.mu.Lock()
	r.sealed.Store(true)
	r.mu.Unlock()
}

func foldLabel(label string) string { return strings.ToLower(label) }
