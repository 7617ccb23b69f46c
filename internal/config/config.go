// Package config loads dashboard definitions written in CUE.
//
// A definition names the dataset source and declares the input cells:
//
//	dashboard: {
//		name: "er-status"
//		dataset: { source: "sqlite", path: "expr.db", fanout: "all" }
//		cells: gene: { kind: "symbol", choices: ["ESR1", "PTEN"], default: "ESR1" }
//	}
//
// Loading unifies the file with an embedded schema (which supplies
// defaults), decodes it into Go structs, validates struct tags, and finally
// checks that every cell default satisfies the cell's declared type.
package config

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/exprdash/internal/ir"
	"github.com/roach88/exprdash/internal/lookup"
	"github.com/roach88/exprdash/internal/reactive"
)

// Config is the root of a definition file.
type Config struct {
	Dashboard Dashboard `json:"dashboard"`
}

// Dashboard describes one dashboard.
type Dashboard struct {
	Name     string             `json:"name" validate:"required"`
	Dataset  Dataset            `json:"dataset"`
	MaxDepth int                `json:"max_depth,omitempty" validate:"gte=0"`
	Cells    map[string]CellDef `json:"cells" validate:"required,min=1,dive,keys,cellname,endkeys"`
}

// Dataset says where lookups read from.
type Dataset struct {
	Source    string `json:"source" validate:"required,oneof=demo csv sqlite"`
	Path      string `json:"path,omitempty" validate:"required_unless=Source demo"`
	Fanout    string `json:"fanout" validate:"omitempty,oneof=all first"`
	LatencyMS int    `json:"latency_ms" validate:"gte=0,lte=60000"`
}

// Latency returns the simulated lookup latency.
func (d Dataset) Latency() time.Duration {
	return time.Duration(d.LatencyMS) * time.Millisecond
}

// Strategy returns the parsed fan-out strategy.
func (d Dataset) Strategy() (lookup.Strategy, error) {
	return lookup.ParseStrategy(d.Fanout)
}

// CellDef declares one input cell.
type CellDef struct {
	Kind    string   `json:"kind" validate:"required,oneof=symbol number string"`
	Choices []string `json:"choices,omitempty" validate:"required_if=Kind symbol,unique,dive,required"`
	Default any      `json:"default"`
	Policy  string   `json:"policy" validate:"omitempty,oneof=skip-equal always-invalidate"`
}

// Type returns the reactive type the cell is declared with.
func (c CellDef) Type() (reactive.Type, error) {
	kind, err := reactive.ParseKind(c.Kind)
	if err != nil {
		return reactive.Type{}, err
	}
	if kind == reactive.KindSymbol {
		return reactive.Symbol(c.Choices...), nil
	}
	return reactive.Type{Kind: kind}, nil
}

// Initial returns the default as a validated value.
func (c CellDef) Initial() (ir.Value, error) {
	typ, err := c.Type()
	if err != nil {
		return nil, err
	}
	v, err := ir.FromAny(c.Default)
	if err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}
	if err := typ.Validate(v); err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}
	return v, nil
}

// EqualityPolicy returns the cell's equal-write policy.
func (c CellDef) EqualityPolicy() reactive.EqualityPolicy {
	if c.Policy == "always-invalidate" {
		return reactive.AlwaysInvalidate
	}
	return reactive.SkipEqual
}

// CellNames returns the declared cell names in sorted order.
func (d Dashboard) CellNames() []string {
	names := make([]string, 0, len(d.Cells))
	for name := range d.Cells {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var (
	validate     *validator.Validate
	cellNameExpr = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("cellname", func(fl validator.FieldLevel) bool {
		return cellNameExpr.MatchString(fl.Field().String())
	})
}

// Validate checks struct tags, then cell defaults against their types.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return convertValidationError(err)
	}
	for _, name := range c.Dashboard.CellNames() {
		if _, err := c.Dashboard.Cells[name].Initial(); err != nil {
			return &Error{
				Field:   "dashboard.cells." + name,
				Message: err.Error(),
			}
		}
	}
	if _, err := c.Dashboard.Dataset.Strategy(); err != nil {
		return &Error{Field: "dashboard.dataset.fanout", Message: err.Error()}
	}
	return nil
}
