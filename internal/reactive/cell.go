package reactive

import (
	"fmt"

	"github.com/roach88/exprdash/internal/ir"
)

// EqualityPolicy decides what a write of an unchanged value does.
type EqualityPolicy int

const (
	// SkipEqual treats a write that is canonically equal to the current
	// value as a no-op: no version bump, no invalidation.
	SkipEqual EqualityPolicy = iota

	// AlwaysInvalidate bumps the version and invalidates dependents on
	// every write.
	AlwaysInvalidate
)

// String returns the policy name used in logs.
func (p EqualityPolicy) String() string {
	if p == AlwaysInvalidate {
		return "always-invalidate"
	}
	return "skip-equal"
}

// CellOption configures a cell at creation.
type CellOption func(*Cell)

// WithEqualityPolicy sets the cell's equal-write policy. Default SkipEqual.
func WithEqualityPolicy(p EqualityPolicy) CellOption {
	return func(c *Cell) {
		c.policy = p
	}
}

// Cell is an externally written input slot.
//
// Cells are mutated only through Set, which validates against the declared
// Type. Reading through a Tracker records a dependency; Get does not.
type Cell struct {
	sourceBase

	typ    Type
	value  ir.Value
	policy EqualityPolicy
}

// NewCell registers a cell with a declared type and initial value.
// The initial value must satisfy the type. The cell starts at version 1.
func (g *Graph) NewCell(name string, typ Type, initial ir.Value, opts ...CellOption) (*Cell, error) {
	if name == "" {
		return nil, newDefinitionError(name, "cell name is required")
	}
	if err := typ.check(); err != nil {
		return nil, newDefinitionError(name, err.Error())
	}
	if err := typ.Validate(initial); err != nil {
		return nil, NewTypeError(name, typ, initial, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nameTaken(name) {
		return nil, NewDuplicateNameError(name)
	}

	g.nextID++
	c := &Cell{
		sourceBase: newSourceBase(g, g.nextID, name),
		typ:        typ,
		value:      initial,
	}
	c.version = 1
	for _, opt := range opts {
		opt(c)
	}
	g.cells[name] = c

	g.logger.Debug("cell registered", "graph", g.id, "cell", name, "type", typ.String(), "policy", c.policy.String())
	return c, nil
}

// Type returns the cell's declared type.
func (c *Cell) Type() Type {
	return c.typ
}

// Get returns the current value without recording a dependency.
// For input and render collaborators outside any evaluation.
func (c *Cell) Get() ir.Value {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()
	return c.value
}

// Version returns the cell's write counter.
func (c *Cell) Version() int64 {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()
	return c.version
}

// Read returns the current value and records it as a dependency of the
// node evaluating through tr. A nil tracker behaves like Get.
func (c *Cell) Read(tr *Tracker) ir.Value {
	if tr == nil {
		return c.Get()
	}
	tr.mustOwn(c)

	c.graph.mu.Lock()
	v, version := c.value, c.version
	c.graph.mu.Unlock()

	tr.record(&c.sourceBase, version)
	return v
}

// Set stores v, bumps the version, and marks every dependent node dirty.
// Nothing is recomputed. A value that does not satisfy the cell's Type is
// rejected with a TYPE_MISMATCH error and the cell is left unchanged.
func (c *Cell) Set(v ir.Value) error {
	if err := c.typ.Validate(v); err != nil {
		return NewTypeError(c.name, c.typ, v, err)
	}

	g := c.graph
	g.mu.Lock()
	if c.policy == SkipEqual && ir.Equal(c.value, v) {
		version := c.version
		g.mu.Unlock()
		g.metrics.written(c.name, "skip")
		g.emit(Event{Kind: EventSkip, Source: c.name, Version: version})
		return nil
	}
	c.value = v
	c.version++
	version := c.version
	invalidated := g.invalidate(&c.sourceBase)
	g.mu.Unlock()

	g.metrics.written(c.name, "set")
	g.emit(Event{Kind: EventSet, Source: c.name, Version: version, Value: ir.Format(v)})
	for _, name := range invalidated {
		g.metrics.invalidated(name)
		g.emit(Event{Kind: EventInvalidate, Source: name})
	}
	return nil
}

// SetAny converts a decoded value (YAML, JSON) and sets it.
func (c *Cell) SetAny(v any) error {
	val, err := ir.FromAny(v)
	if err != nil {
		return NewTypeError(c.name, c.typ, nil, fmt.Errorf("convert %T: %w", v, err))
	}
	return c.Set(val)
}

// SetString parses user text according to the cell's Type and sets it.
func (c *Cell) SetString(s string) error {
	v, err := c.typ.Parse(s)
	if err != nil {
		return NewTypeError(c.name, c.typ, ir.String(s), err)
	}
	return c.Set(v)
}
