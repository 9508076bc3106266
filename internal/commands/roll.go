package commands

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/keshon/textcmd/pkg/cmd"
)

var errTooLarge = errors.New("the result is too large")

var (
	tokenRegex = regexp.MustCompile(`(?i)(\d*d\d+|\d+|[+\-*/])`)
	diceRegex  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
	validOps   = map[string]bool{"+": true, "-": true, "*": true, "/": true}
)

type term struct {
	value int64
	desc  string
	op    string
}

// roll covers the three overloads: no bound, an upper bound, or a range.
func (b *builtins) roll(ctx context.Context, inv *cmd.Invocation) (any, error) {
	lo, hi := int64(1), int64(6)
	switch len(inv.Args) {
	case 1:
		hi = inv.Int(0)
	case 2:
		lo, hi = inv.Int(0), inv.Int(1)
		if lo > hi {
			lo, hi = hi, lo
		}
	}
	if hi < lo || (len(inv.Args) == 1 && hi < 1) {
		return nil, errors.New("the upper bound must be at least 1")
	}
	span := hi - lo + 1
	if span <= 0 {
		return nil, errors.New("that range is too large")
	}
	return fmt.Sprintf("🎲 %d (%d-%d)", lo+b.Rand(span), lo, hi), nil
}

func (b *builtins) dice(ctx context.Context, inv *cmd.Invocation) (any, error) {
	formula := inv.String(0)
	total, pretty, err := b.evaluate(formula)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("🎲 `%s` = %s = **%d**", formula, pretty, total), nil
}

// evaluate computes a dice formula with * and / binding tighter than + and -.
func (b *builtins) evaluate(formula string) (int64, string, error) {
	tokens := tokenRegex.FindAllString(formula, -1)
	if len(tokens) == 0 || strings.Join(tokens, "") != formula {
		return 0, "", errors.New("can't parse your formula, try something like `2d6+1d4*2-3`")
	}

	var terms []term
	currentOp := "+"
	for _, token := range tokens {
		if validOps[token] {
			currentOp = token
			continue
		}
		val, desc, err := b.evaluateToken(token)
		if err != nil {
			return 0, "", fmt.Errorf("failed to evaluate `%s`: %w", token, err)
		}
		terms = append(terms, term{value: val, desc: desc, op: currentOp})
		currentOp = "+"
	}
	if len(terms) == 0 {
		return 0, "", errors.New("the formula has no numbers or dice")
	}

	var merged []term
	for _, t := range terms {
		if t.op != "*" && t.op != "/" {
			merged = append(merged, t)
			continue
		}
		if len(merged) == 0 {
			return 0, "", errors.New("syntax error: operator without left operand")
		}
		prev := merged[len(merged)-1]
		merged = merged[:len(merged)-1]

		var v int64
		switch t.op {
		case "*":
			var ok bool
			if v, ok = mulInt64(prev.value, t.value); !ok {
				return 0, "", errTooLarge
			}
		case "/":
			if t.value == 0 {
				return 0, "", errors.New("division by zero is forbidden, even in games")
			}
			v = prev.value / t.value
		}
		merged = append(merged, term{value: v, desc: fmt.Sprintf("%s %s %s", prev.desc, t.op, t.desc), op: prev.op})
	}

	var total int64
	var details []string
	for _, t := range merged {
		if len(details) > 0 {
			details = append(details, fmt.Sprintf(" %s ", t.op))
		}
		details = append(details, t.desc)
		delta := t.value
		if t.op == "-" {
			delta = -delta
		}
		var ok bool
		if total, ok = addInt64(total, delta); !ok {
			return 0, "", errTooLarge
		}
	}
	return total, strings.Join(details, ""), nil
}

func (b *builtins) evaluateToken(token string) (int64, string, error) {
	if m := diceRegex.FindStringSubmatch(token); m != nil {
		count := int64(1)
		if m[1] != "" {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return 0, "", errors.New("invalid dice count")
			}
			count = n
		}
		sides, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil || sides < 2 {
			return 0, "", errors.New("invalid dice sides")
		}
		if count < 1 || count > 100 || sides > 1000 {
			return 0, "", errors.New("too big, max 100 dice and 1000 sides")
		}

		var sum int64
		rolls := make([]string, 0, count)
		for i := int64(0); i < count; i++ {
			r := b.Rand(sides) + 1
			sum += r
			rolls = append(rolls, strconv.FormatInt(r, 10))
		}
		return sum, fmt.Sprintf("%s [%s]", token, strings.Join(rolls, ", ")), nil
	}

	num, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, "", errors.New("not a number or dice")
	}
	return num, strconv.FormatInt(num, 10), nil
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}
