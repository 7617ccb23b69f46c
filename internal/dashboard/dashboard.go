package dashboard

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/exprdash/internal/config"
	"github.com/roach88/exprdash/internal/ir"
	"github.com/roach88/exprdash/internal/lookup"
	"github.com/roach88/exprdash/internal/reactive"
)

// Cell names every dashboard definition must declare.
const (
	CellGene  = "gene"
	CellColor = "color"
	CellAlpha = "alpha"

	// CellTitle is optional. When declared as a string cell it overrides
	// the plot title.
	CellTitle = "title"
)

// Node names.
const (
	NodeExpression = "expression"
	NodeGroups     = "groups"
	NodeTTest      = "ttest"
	NodePlot       = "plot"
	NodeDownload   = "download"
)

// Dashboard is a reactive graph over one lookup service.
type Dashboard struct {
	name  string
	graph *reactive.Graph
	svc   lookup.Service

	gene  *reactive.Cell
	color *reactive.Cell
	alpha *reactive.Cell
	title *reactive.Cell

	expression *reactive.Node
	groups     *reactive.Node
	ttest      *reactive.Node
	plot       *reactive.Node
	download   *reactive.Node
}

// New builds the dashboard described by def. Every declared cell is
// registered with its default; gene and color must be symbol cells and
// alpha a number cell. Options are passed to the graph after the
// definition's own max depth, so they take precedence.
func New(def config.Dashboard, svc lookup.Service, opts ...reactive.GraphOption) (*Dashboard, error) {
	if svc == nil {
		return nil, fmt.Errorf("dashboard %q: lookup service is required", def.Name)
	}
	if err := requireCell(def, CellGene, reactive.KindSymbol); err != nil {
		return nil, err
	}
	if err := requireCell(def, CellColor, reactive.KindSymbol); err != nil {
		return nil, err
	}
	if err := requireCell(def, CellAlpha, reactive.KindNumber); err != nil {
		return nil, err
	}

	var graphOpts []reactive.GraphOption
	if def.MaxDepth > 0 {
		graphOpts = append(graphOpts, reactive.WithMaxDepth(def.MaxDepth))
	}
	graphOpts = append(graphOpts, opts...)

	d := &Dashboard{
		name:  def.Name,
		graph: reactive.NewGraph(graphOpts...),
		svc:   svc,
	}

	for _, name := range def.CellNames() {
		cell, err := newCell(d.graph, name, def.Cells[name])
		if err != nil {
			return nil, fmt.Errorf("dashboard %q: %w", def.Name, err)
		}
		switch name {
		case CellGene:
			d.gene = cell
		case CellColor:
			d.color = cell
		case CellAlpha:
			d.alpha = cell
		case CellTitle:
			if cell.Type().Kind == reactive.KindString {
				d.title = cell
			}
		}
	}

	titleDeps := []string{NodeGroups, CellColor}
	if d.title != nil {
		titleDeps = append(titleDeps, CellTitle)
	}
	nodes := []struct {
		name string
		fn   reactive.ComputeFunc
		deps []string
		dst  **reactive.Node
	}{
		{NodeExpression, d.computeExpression, []string{CellGene}, &d.expression},
		{NodeGroups, d.computeGroups, []string{NodeExpression}, &d.groups},
		{NodeTTest, d.computeTTest, []string{NodeGroups, CellAlpha}, &d.ttest},
		{NodePlot, d.computePlot, titleDeps, &d.plot},
		{NodeDownload, d.computeDownload, []string{NodeExpression}, &d.download},
	}
	for _, spec := range nodes {
		n, err := d.graph.NewNode(spec.name, spec.fn, reactive.DependsOn(spec.deps...))
		if err != nil {
			return nil, fmt.Errorf("dashboard %q: %w", def.Name, err)
		}
		*spec.dst = n
	}
	return d, nil
}

func requireCell(def config.Dashboard, name string, kind reactive.Kind) error {
	cd, ok := def.Cells[name]
	if !ok {
		return fmt.Errorf("dashboard %q: cell %q is required", def.Name, name)
	}
	if cd.Kind != kind.String() {
		return fmt.Errorf("dashboard %q: cell %q must be a %s cell, got %s", def.Name, name, kind, cd.Kind)
	}
	return nil
}

func newCell(g *reactive.Graph, name string, cd config.CellDef) (*reactive.Cell, error) {
	typ, err := cd.Type()
	if err != nil {
		return nil, fmt.Errorf("cell %q: %w", name, err)
	}
	initial, err := cd.Initial()
	if err != nil {
		return nil, fmt.Errorf("cell %q: %w", name, err)
	}
	return g.NewCell(name, typ, initial, reactive.WithEqualityPolicy(cd.EqualityPolicy()))
}

// Name returns the dashboard name.
func (d *Dashboard) Name() string { return d.name }

// Graph returns the underlying graph, for introspection and observers.
func (d *Dashboard) Graph() *reactive.Graph { return d.graph }

// Set parses s according to the named cell's type and writes it.
func (d *Dashboard) Set(name, s string) error {
	c, ok := d.graph.Cell(name)
	if !ok {
		return fmt.Errorf("set %q: %w", name, reactive.ErrUnknownName)
	}
	return c.SetString(s)
}

// Expression returns the lookup result for the selected gene.
func (d *Dashboard) Expression(ctx context.Context) (lookup.Result, error) {
	return reactive.EvaluateAs[lookup.Result](ctx, d.expression)
}

// Groups returns the per-probe boxplot input.
func (d *Dashboard) Groups(ctx context.Context) (Groups, error) {
	return reactive.EvaluateAs[Groups](ctx, d.groups)
}

// Test returns the per-probe Welch tests.
func (d *Dashboard) Test(ctx context.Context) (Tests, error) {
	return reactive.EvaluateAs[Tests](ctx, d.ttest)
}

// Plot returns the plot spec.
func (d *Dashboard) Plot(ctx context.Context) (Plot, error) {
	return reactive.EvaluateAs[Plot](ctx, d.plot)
}

// Download returns the selected gene's rows as CSV text.
func (d *Dashboard) Download(ctx context.Context) (string, error) {
	return reactive.EvaluateAs[string](ctx, d.download)
}

// Evaluate evaluates any node by name.
func (d *Dashboard) Evaluate(ctx context.Context, name string) (any, error) {
	return d.graph.Evaluate(ctx, name)
}

// Runs reports how many times each node's function has run.
func (d *Dashboard) Runs() map[string]int64 {
	runs := make(map[string]int64)
	for _, name := range d.graph.NodeNames() {
		n, _ := d.graph.Node(name)
		runs[name] = n.Runs()
	}
	return runs
}

// NodeNames lists the dashboard's nodes in dependency order.
func NodeNames() []string {
	return []string{NodeExpression, NodeGroups, NodeTTest, NodePlot, NodeDownload}
}

func (d *Dashboard) computeExpression(tr *reactive.Tracker) (any, error) {
	gene, _ := ir.AsString(d.gene.Read(tr))
	res, err := d.svc.Lookup(tr.Context(), gene)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (d *Dashboard) computeGroups(tr *reactive.Tracker) (any, error) {
	res, err := reactive.ReadAs[lookup.Result](tr, d.expression)
	if err != nil {
		return nil, err
	}
	return groupByLabel(res)
}

func (d *Dashboard) computeTTest(tr *reactive.Tracker) (any, error) {
	groups, err := reactive.ReadAs[Groups](tr, d.groups)
	if err != nil {
		return nil, err
	}
	alpha, _ := ir.AsFloat(d.alpha.Read(tr))
	return welchTests(groups, alpha)
}

func (d *Dashboard) computePlot(tr *reactive.Tracker) (any, error) {
	groups, err := reactive.ReadAs[Groups](tr, d.groups)
	if err != nil {
		return nil, err
	}
	color, _ := ir.AsString(d.color.Read(tr))

	title := fmt.Sprintf("%s expression by ER status", groups.Key)
	if d.title != nil {
		if t, _ := ir.AsString(d.title.Read(tr)); t != "" {
			title = t
		}
	}
	return Plot{
		Title:  title,
		Color:  color,
		Series: slices.Clone(groups.Probes),
	}, nil
}

func (d *Dashboard) computeDownload(tr *reactive.Tracker) (any, error) {
	res, err := reactive.ReadAs[lookup.Result](tr, d.expression)
	if err != nil {
		return nil, err
	}
	return downloadCSV(res)
}
