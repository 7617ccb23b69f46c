package cli

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/exprdash/internal/dashboard"
	"github.com/roach88/exprdash/internal/reactive"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	DefinitionFlags
	Sets    []string // name=value cell writes, applied in order
	Trace   bool
	Metrics bool
}

// NodeOutput is one evaluated node.
type NodeOutput struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// MetricSample is one collected series: a counter value, or a
// histogram's observation count.
type MetricSample struct {
	Name   string  `json:"name"`
	Labels string  `json:"labels,omitempty"`
	Value  float64 `json:"value"`
}

// EvalResult is what eval prints.
type EvalResult struct {
	Dashboard string           `json:"dashboard"`
	GraphID   string           `json:"graph_id"`
	Nodes     []NodeOutput     `json:"nodes"`
	Runs      map[string]int64 `json:"runs"`
	Trace     []reactive.Event `json:"trace,omitempty"`
	Metrics   []MetricSample   `json:"metrics,omitempty"`
}

// String renders each node under a heading, then the trace and metrics
// when they were collected.
func (r EvalResult) String() string {
	var b strings.Builder
	for i, n := range r.Nodes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "== %s ==\n", n.Name)
		fmt.Fprintln(&b, strings.TrimRight(fmt.Sprint(n.Value), "\n"))
	}
	if len(r.Trace) > 0 {
		b.WriteString("\n== trace ==\n")
		for _, e := range r.Trace {
			fmt.Fprintf(&b, "  [%d] %s:%s", e.Seq, e.Kind, e.Source)
			if e.Value != "" {
				fmt.Fprintf(&b, " = %s", e.Value)
			}
			if len(e.Deps) > 0 {
				fmt.Fprintf(&b, " deps=%s", strings.Join(e.Deps, ","))
			}
			if e.Error != "" {
				fmt.Fprintf(&b, " (%s)", e.Error)
			}
			b.WriteString("\n")
		}
	}
	if len(r.Metrics) > 0 {
		b.WriteString("\n== metrics ==\n")
		for _, m := range r.Metrics {
			fmt.Fprintf(&b, "  %s{%s} %g\n", m.Name, m.Labels, m.Value)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval [node...]",
		Short: "Evaluate dashboard nodes",
		Long: fmt.Sprintf(`Build a dashboard, apply cell writes, and evaluate nodes.

Nodes: %s. Without arguments the plot is evaluated.
Cell writes are parsed according to the cell's declared kind.

Example:
  exprdash eval
  exprdash eval ttest --set gene=PTEN --set alpha=0.01
  exprdash eval download --db expr.db --set gene=ERBB2
  exprdash eval plot --set color=firebrick --trace --metrics`, strings.Join(dashboard.NodeNames(), ", ")),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{dashboard.NodePlot}
			}
			return runEval(opts, args, cmd)
		},
	}

	opts.DefinitionFlags.register(cmd)
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "cell write as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include graph events in the output")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "include graph metrics in the output")

	return cmd
}

func runEval(opts *EvalOptions, nodes []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()

	writes, err := parseSets(opts.Sets)
	if err != nil {
		_ = formatter.Error(ErrCodeCellWrite, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --set", err)
	}

	def, err := opts.DefinitionFlags.Load()
	if err != nil {
		return formatter.Fail("failed to load definition", err)
	}

	svc, closeFn, err := dashboard.OpenService(ctx, def.Dataset, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open dataset", err)
	}
	defer func() { _ = closeFn() }()

	var trace []reactive.Event
	graphOpts := []reactive.GraphOption{reactive.WithLogger(logger)}
	if opts.Trace {
		graphOpts = append(graphOpts, reactive.WithObserver(reactive.ObserverFunc(func(e reactive.Event) {
			trace = append(trace, e)
		})))
	}
	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		graphOpts = append(graphOpts, reactive.WithMetrics(reactive.NewMetrics(reg)))
	}

	dash, err := dashboard.New(def, svc, graphOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build dashboard", err)
	}
	formatter.VerboseLog("dashboard %s (graph %s)", dash.Name(), dash.Graph().ID())

	for _, w := range writes {
		if err := dash.Set(w.name, w.value); err != nil {
			return formatter.Fail(fmt.Sprintf("set %s", w.name), err)
		}
		formatter.VerboseLog("set %s = %s", w.name, w.value)
	}

	result := EvalResult{
		Dashboard: dash.Name(),
		GraphID:   dash.Graph().ID(),
	}
	for _, name := range nodes {
		v, err := dash.Evaluate(ctx, name)
		if err != nil {
			return formatter.Fail(fmt.Sprintf("evaluate %s", name), err)
		}
		result.Nodes = append(result.Nodes, NodeOutput{Name: name, Value: v})
	}
	result.Runs = dash.Runs()
	result.Trace = trace
	if reg != nil {
		samples, err := gatherMetrics(reg)
		if err != nil {
			return formatter.Fail("gather metrics", err)
		}
		result.Metrics = samples
	}

	return formatter.Success(result)
}

type cellWrite struct {
	name  string
	value string
}

// parseSets splits name=value flags. The value may itself contain '='.
func parseSets(sets []string) ([]cellWrite, error) {
	writes := make([]cellWrite, 0, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%q: want name=value", s)
		}
		writes = append(writes, cellWrite{name: name, value: value})
	}
	return writes, nil
}

// gatherMetrics flattens the registry into one sample per series.
func gatherMetrics(reg *prometheus.Registry) ([]MetricSample, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	var samples []MetricSample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			samples = append(samples, MetricSample{
				Name:   mf.GetName(),
				Labels: strings.Join(labels, ","),
				Value:  value,
			})
		}
	}
	return samples, nil
}
