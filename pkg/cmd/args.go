package cmd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TypeTag names the type a positional parameter is converted to.
type TypeTag string

const (
	TypeString   TypeTag = "string"
	TypeInt      TypeTag = "int"
	TypeFloat    TypeTag = "float"
	TypeBool     TypeTag = "bool"
	TypeUser     TypeTag = "user"
	TypeChannel  TypeTag = "channel"
	TypeRole     TypeTag = "role"
	TypeDuration TypeTag = "duration"
)

var (
	ErrUnknownType        = errors.New("no converter for type")
	ErrArgumentsSealed    = errors.New("argument parser is sealed")
	ErrMissingArgument    = errors.New("missing argument")
	ErrUnexpectedArgument = errors.New("unexpected argument")
	ErrConverterPanic     = errors.New("converter panicked")
)

// Converter turns one raw token into a typed value or reports why it cannot.
type Converter func(raw string) (any, error)

// ArgumentError reports the first token that failed to convert. Position is
// 1-based, matching the order the user typed the arguments in.
type ArgumentError struct {
	Position int
	Expected TypeTag
	Raw      string
	Err      error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %d: %q is not a valid %s: %v", e.Position, e.Raw, e.Expected, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ArgumentParser converts raw tokens by type tag. Custom converters may be
// registered until the parser is handed to a dispatcher.
type ArgumentParser struct {
	mu         sync.Mutex
	sealed     atomic.Bool
	converters map[TypeTag]Converter
}

// NewArgumentParser returns a parser with the built-in converters.
func NewArgumentParser() *ArgumentParser {
	return &ArgumentParser{
		converters: map[TypeTag]Converter{
			TypeString:   convertString,
			TypeInt:      convertInt,
			TypeFloat:    convertFloat,
			TypeBool:     convertBool,
			TypeUser:     convertUser,
			TypeChannel:  convertChannel,
			TypeRole:     convertRole,
			TypeDuration: convertDuration,
		},
	}
}

// RegisterConverter adds or replaces the converter for tag.
func (p *ArgumentParser) RegisterConverter(tag TypeTag, conv Converter) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sealed.Load() {
		return ErrArgumentsSealed
	}
	if conv == nil {
		return fmt.Errorf("%w: %s", ErrUnknownType, tag)
	}
	p.converters[tag] = conv
	return nil
}

// Supports reports whether a converter exists for tag.
func (p *ArgumentParser) Supports(tag TypeTag) bool {
	_, ok := p.converters[tag]
	return ok
}

func (p *ArgumentParser) seal() {
	p.mu.Lock()
	p.sealed.Store(true)
	p.mu.Unlock()
}

// Parse converts raw against params in lockstep. It stops at the first failure
// and returns no values in that case.
func (p *ArgumentParser) Parse(params []TypeTag, raw []string) ([]any, *ArgumentError) {
	values := make([]any, 0, len(params))
	for i, tag := range params {
		if i >= len(raw) {
			return nil, &ArgumentError{Position: i + 1, Expected: tag, Err: ErrMissingArgument}
		}
		v, err := p.convert(tag, raw[i])
		if err != nil {
			return nil, &ArgumentError{Position: i + 1, Expected: tag, Raw: raw[i], Err: err}
		}
		values = append(values, v)
	}
	if len(raw) > len(params) {
		n := len(params)
		return nil, &ArgumentError{Position: n + 1, Raw: raw[n], Err: ErrUnexpectedArgument}
	}
	return values, nil
}

func (p *ArgumentParser) convert(tag TypeTag, raw string) (v any, err error) {
	conv, ok := p.converters[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, tag)
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", ErrConverterPanic, r)
		}
	}()
	return conv(raw)
}

// ────────────────────────────────────────────────────────────────
// BUILT-IN CONVERTERS
// ────────────────────────────────────────────────────────────────

var boolLiterals = map[string]bool{
	"true": true, "yes": true, "y": true, "on": true, "1": true, "enable": true, "enabled": true,
	"false": false, "no": false, "n": false, "off": false, "0": false, "disable": false, "disabled": false,
}

func convertString(raw string) (any, error) { return raw, nil }

func convertInt(raw string) (any, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New("expected a whole number")
	}
	return n, nil
}

func convertFloat(raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.New("expected a finite number")
	}
	return f, nil
}

func convertBool(raw string) (any, error) {
	b, ok := boolLiterals[strings.ToLower(raw)]
	if !ok {
		return nil, errors.New("expected yes/no, true/false, on/off or 1/0")
	}
	return b, nil
}

func convertUser(raw string) (any, error) {
	id := raw
	if strings.HasPrefix(raw, "<@") && strings.HasSuffix(raw, ">") && !strings.HasPrefix(raw, "<@&") {
		id = strings.TrimPrefix(strings.TrimSuffix(strings.TrimPrefix(raw, "<@"), ">"), "!")
	}
	return snowflake(id, "user")
}

func convertChannel(raw string) (any, error) {
	id := raw
	if strings.HasPrefix(raw, "<#") && strings.HasSuffix(raw, ">") {
		id = strings.TrimSuffix(strings.TrimPrefix(raw, "<#"), ">")
	}
	return snowflake(id, "channel")
}

func convertRole(raw string) (any, error) {
	id := raw
	if strings.HasPrefix(raw, "<@&") && strings.HasSuffix(raw, ">") {
		id = strings.TrimSuffix(strings.TrimPrefix(raw, "<@&"), ">")
	}
	return snowflake(id, "role")
}

func convertDuration(raw string) (any, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return nil, errors.New("expected a duration such as 30s or 5m")
	}
	return d, nil
}

// snowflake accepts a bare numeric ID that fits in 64 bits.
func snowflake(id, kind string) (any, error) {
	if id == "" || strings.TrimLeft(id, "0123456789") != "" {
		return nil, fmt.Errorf("expected a %s mention or ID", kind)
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return nil, fmt.Errorf("%s ID out of range", kind)
	}
	return id, nil
}
