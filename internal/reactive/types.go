package reactive

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/exprdash/internal/ir"
)

// Kind is the declared kind of a cell.
type Kind int

const (
	// KindSymbol cells hold one of an enumerated set of strings.
	KindSymbol Kind = iota + 1
	// KindNumber cells hold a finite Int or Float.
	KindNumber
	// KindString cells hold any String.
	KindString
)

// String returns the config spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the config spelling of a kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "symbol":
		return KindSymbol, nil
	case "number":
		return KindNumber, nil
	case "string":
		return KindString, nil
	default:
		return 0, fmt.Errorf("unknown cell kind %q: must be symbol, number, or string", s)
	}
}

// Type is the declared type of a cell. Writes are validated against it.
type Type struct {
	Kind Kind

	// Choices lists the allowed values of a symbol cell, in display order.
	Choices []string
}

// Symbol declares an enumerated symbol type.
func Symbol(choices ...string) Type {
	return Type{Kind: KindSymbol, Choices: slices.Clone(choices)}
}

// Number declares a numeric type.
func Number() Type {
	return Type{Kind: KindNumber}
}

// Text declares a free string type.
func Text() Type {
	return Type{Kind: KindString}
}

// String renders the type for error messages, e.g. "symbol{ESR1|PTEN}".
func (t Type) String() string {
	if t.Kind == KindSymbol {
		return "symbol{" + strings.Join(t.Choices, "|") + "}"
	}
	return t.Kind.String()
}

// check reports whether the type itself is well formed.
func (t Type) check() error {
	switch t.Kind {
	case KindSymbol:
		if len(t.Choices) == 0 {
			return fmt.Errorf("symbol type needs at least one choice")
		}
		seen := make(map[string]bool, len(t.Choices))
		for _, c := range t.Choices {
			if c == "" {
				return fmt.Errorf("symbol choices must be non-empty")
			}
			if seen[c] {
				return fmt.Errorf("duplicate symbol choice %q", c)
			}
			seen[c] = true
		}
		return nil
	case KindNumber, KindString:
		return nil
	default:
		return fmt.Errorf("unknown cell kind %d", int(t.Kind))
	}
}

// Validate checks that v is an acceptable value for the type.
func (t Type) Validate(v ir.Value) error {
	switch t.Kind {
	case KindSymbol:
		s, ok := v.(ir.String)
		if !ok {
			return fmt.Errorf("expected symbol, got %s", ir.TypeName(v))
		}
		if !slices.Contains(t.Choices, string(s)) {
			return fmt.Errorf("%q is not one of %v", string(s), t.Choices)
		}
		return nil
	case KindNumber:
		if _, ok := ir.AsFloat(v); !ok {
			return fmt.Errorf("expected number, got %s", ir.TypeName(v))
		}
		// Reject NaN and infinities.
		if _, err := ir.MarshalCanonical(v); err != nil {
			return err
		}
		return nil
	case KindString:
		if _, ok := v.(ir.String); !ok {
			return fmt.Errorf("expected string, got %s", ir.TypeName(v))
		}
		return nil
	default:
		return fmt.Errorf("unknown cell kind %d", int(t.Kind))
	}
}

// Parse converts user text (a CLI flag, a form field) into a value of this
// type and validates it.
func (t Type) Parse(s string) (ir.Value, error) {
	var v ir.Value
	switch t.Kind {
	case KindNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("expected number, got %q", s)
		}
		v = ir.Float(f)
	default:
		v = ir.String(s)
	}
	if err := t.Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}
