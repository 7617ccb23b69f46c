package dashboard

import (
	"context"
	"errors"
	"maps"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprdash/internal/config"
	"github.com/roach88/exprdash/internal/dataset"
	"github.com/roach88/exprdash/internal/lookup"
	"github.com/roach88/exprdash/internal/reactive"
	"github.com/roach88/exprdash/internal/store"
	"github.com/roach88/exprdash/internal/testutil"
)

// countingService counts lookups that reach the backing service.
type countingService struct {
	next  lookup.Service
	calls atomic.Int64
}

func (c *countingService) Lookup(ctx context.Context, key string) (lookup.Result, error) {
	c.calls.Add(1)
	return c.next.Lookup(ctx, key)
}

func newTestDashboard(t *testing.T, def config.Dashboard, strategy lookup.Strategy) (*Dashboard, *countingService) {
	t.Helper()
	svc := &countingService{next: lookup.NewMemory(dataset.Demo(), strategy)}
	d, err := New(def, svc,
		reactive.WithIDGenerator(testutil.NewFixedIDGenerator("dashboard-test")),
		reactive.WithClock(testutil.NewDeterministicClock()),
	)
	require.NoError(t, err)
	return d, svc
}

func defaultDef() config.Dashboard {
	def := config.Default().Dashboard
	def.Cells = maps.Clone(def.Cells)
	return def
}

func TestDashboard_ColorChangeSkipsLookup(t *testing.T) {
	ctx := context.Background()
	d, svc := newTestDashboard(t, defaultDef(), lookup.StrategyAll)

	plot, err := d.Plot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "steelblue", plot.Color)
	assert.Equal(t, "ESR1 expression by ER status", plot.Title)

	require.NoError(t, d.Set(CellColor, "firebrick"))
	assert.False(t, d.Graph().IsDirty(NodeExpression))
	assert.False(t, d.Graph().IsDirty(NodeGroups))
	assert.True(t, d.Graph().IsDirty(NodePlot))

	plot, err = d.Plot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "firebrick", plot.Color)

	runs := d.Runs()
	assert.Equal(t, int64(1), runs[NodeExpression])
	assert.Equal(t, int64(1), runs[NodeGroups])
	assert.Equal(t, int64(2), runs[NodePlot])
	assert.Equal(t, int64(1), svc.calls.Load())
}

func TestDashboard_GeneChangeFansOut(t *testing.T) {
	ctx := context.Background()
	d, svc := newTestDashboard(t, defaultDef(), lookup.StrategyAll)

	res, err := d.Expression(ctx)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "205225_at", res.Rows[0].ProbeID)
	assert.Equal(t, []float64{11.8, 6.2, 12.4, 10.9, 5.8, 7.1, 11.2, 6.5, 12.9, 6.0, 10.6, 6.9}, res.Rows[0].Values)

	require.NoError(t, d.Set(CellGene, "PTEN"))
	assert.True(t, d.Graph().IsDirty(NodeExpression))
	assert.Equal(t, int64(1), d.Runs()[NodeExpression], "write must not recompute")

	res, err = d.Expression(ctx)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "211711_s_at", res.Rows[0].ProbeID)
	assert.Equal(t, "204053_x_at", res.Rows[1].ProbeID)
	assert.Equal(t, int64(2), d.Runs()[NodeExpression])
	assert.Equal(t, int64(2), svc.calls.Load())

	groups, err := d.Groups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups.Probes, 2)
}

func TestDashboard_FirstStrategy(t *testing.T) {
	d, _ := newTestDashboard(t, defaultDef(), lookup.StrategyFirst)
	require.NoError(t, d.Set(CellGene, "PTEN"))

	res, err := d.Expression(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "211711_s_at", res.Rows[0].ProbeID)
}

func TestDashboard_Groups(t *testing.T) {
	d, _ := newTestDashboard(t, defaultDef(), lookup.StrategyAll)

	groups, err := d.Groups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ESR1", groups.Key)
	require.Len(t, groups.Probes, 1)

	pg := groups.Probes[0]
	require.Len(t, pg.Groups, 2)

	neg, pos := pg.Groups[0], pg.Groups[1]
	assert.Equal(t, dataset.LabelNegative, neg.Label)
	assert.Equal(t, []float64{6.2, 5.8, 7.1, 6.5, 6.0, 6.9}, neg.Values)
	assert.Equal(t, 6, neg.Summary.N)
	assert.InDelta(t, 5.8, neg.Summary.Min, 1e-9)
	assert.InDelta(t, 6.0, neg.Summary.Lower, 1e-9)
	assert.InDelta(t, 6.35, neg.Summary.Median, 1e-9)
	assert.InDelta(t, 6.9, neg.Summary.Upper, 1e-9)
	assert.InDelta(t, 7.1, neg.Summary.Max, 1e-9)

	assert.Equal(t, dataset.LabelPositive, pos.Label)
	assert.InDelta(t, 11.5, pos.Summary.Median, 1e-9)
	assert.InDelta(t, 10.6, pos.Summary.Min, 1e-9)
	assert.InDelta(t, 12.9, pos.Summary.Max, 1e-9)
}

func TestDashboard_AlphaChangeOnlyRetests(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDashboard(t, defaultDef(), lookup.StrategyAll)

	tests, err := d.Test(ctx)
	require.NoError(t, err)
	require.Len(t, tests.Results, 1)

	r := tests.Results[0]
	assert.Equal(t, [2]string{"negative", "positive"}, r.Groups)
	assert.Less(t, r.Welch.MeanDiff, 0.0)
	assert.Less(t, r.Welch.P, 0.001)
	assert.True(t, r.Significant)
	assert.Equal(t, 0.05, tests.Alpha)

	require.NoError(t, d.Set(CellAlpha, "0"))
	tests, err = d.Test(ctx)
	require.NoError(t, err)
	assert.False(t, tests.Results[0].Significant, "p is never below zero")

	runs := d.Runs()
	assert.Equal(t, int64(2), runs[NodeTTest])
	assert.Equal(t, int64(1), runs[NodeGroups])
	assert.Equal(t, int64(1), runs[NodeExpression])
	assert.Equal(t, int64(0), runs[NodePlot], "never read")
}

func TestDashboard_Download(t *testing.T) {
	d, _ := newTestDashboard(t, defaultDef(), lookup.StrategyAll)
	require.NoError(t, d.Set(CellGene, "PTEN"))

	csv, err := d.Download(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "sample,label,211711_s_at,204053_x_at", lines[0])
	assert.Equal(t, "S01,positive,8.4,9.2", lines[1])
	assert.Equal(t, "S12,negative,7.4,8.2", lines[12])
}

func TestDashboard_EqualWriteKeepsCache(t *testing.T) {
	ctx := context.Background()
	d, svc := newTestDashboard(t, defaultDef(), lookup.StrategyAll)

	_, err := d.Plot(ctx)
	require.NoError(t, err)

	require.NoError(t, d.Set(CellGene, "ESR1"))
	assert.False(t, d.Graph().IsDirty(NodeExpression))

	_, err = d.Plot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), svc.calls.Load())
}

func TestDashboard_NotFound(t *testing.T) {
	ctx := context.Background()
	def := defaultDef()
	gene := def.Cells[CellGene]
	gene.Choices = append([]string{"BRCA1"}, gene.Choices...)
	def.Cells[CellGene] = gene

	d, _ := newTestDashboard(t, def, lookup.StrategyAll)
	require.NoError(t, d.Set(CellGene, "BRCA1"))

	_, err := d.Plot(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lookup.ErrNotFound))
	assert.True(t, reactive.IsEvaluationError(err))

	var nf *lookup.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "BRCA1", nf.Key)

	assert.True(t, d.Graph().IsDirty(NodeExpression), "failed node stays dirty")
	assert.True(t, d.Graph().IsDirty(NodePlot))

	require.NoError(t, d.Set(CellGene, "GATA3"))
	plot, err := d.Plot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GATA3 expression by ER status", plot.Title)
}

func TestDashboard_RejectsBadWrites(t *testing.T) {
	d, _ := newTestDashboard(t, defaultDef(), lookup.StrategyAll)

	err := d.Set(CellGene, "BRCA1")
	assert.True(t, reactive.IsTypeError(err))

	err = d.Set(CellAlpha, "high")
	assert.True(t, reactive.IsTypeError(err))

	err = d.Set("missing", "x")
	assert.ErrorIs(t, err, reactive.ErrUnknownName)
}

func TestDashboard_TitleCell(t *testing.T) {
	def := defaultDef()
	def.Cells[CellTitle] = config.CellDef{Kind: "string", Default: "ER panel"}

	d, _ := newTestDashboard(t, def, lookup.StrategyAll)
	plot, err := d.Plot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ER panel", plot.Title)

	require.NoError(t, d.Set(CellTitle, ""))
	plot, err = d.Plot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ESR1 expression by ER status", plot.Title)
	assert.Equal(t, int64(1), d.Runs()[NodeGroups])
}

func TestNew_Errors(t *testing.T) {
	svc := lookup.NewMemory(dataset.Demo(), lookup.StrategyAll)

	t.Run("missing cell", func(t *testing.T) {
		def := defaultDef()
		delete(def.Cells, CellColor)
		_, err := New(def, svc)
		assert.ErrorContains(t, err, `cell "color" is required`)
	})

	t.Run("wrong kind", func(t *testing.T) {
		def := defaultDef()
		def.Cells[CellAlpha] = config.CellDef{Kind: "string", Default: "0.05"}
		_, err := New(def, svc)
		assert.ErrorContains(t, err, "must be a number cell")
	})

	t.Run("nil service", func(t *testing.T) {
		_, err := New(defaultDef(), nil)
		assert.ErrorContains(t, err, "lookup service is required")
	})
}

func TestNew_MaxDepth(t *testing.T) {
	def := defaultDef()
	def.MaxDepth = 2

	d, _ := newTestDashboard(t, def, lookup.StrategyAll)
	_, err := d.Plot(context.Background())
	require.Error(t, err)
	assert.True(t, reactive.IsDepthError(err))

	_, err = d.Expression(context.Background())
	assert.NoError(t, err)
}

func TestDashboard_Dependencies(t *testing.T) {
	d, _ := newTestDashboard(t, defaultDef(), lookup.StrategyAll)
	_, err := d.Plot(context.Background())
	require.NoError(t, err)

	g := d.Graph()
	assert.Equal(t, []string{CellGene}, g.Dependencies(NodeExpression))
	assert.ElementsMatch(t, []string{NodeGroups, CellColor}, g.Dependencies(NodePlot))
	assert.Equal(t, []string{NodePlot}, g.Dependents(CellColor))
	assert.Empty(t, g.Check())
}

func TestOpenService(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	csvDir := filepath.Join(dir, "csv")
	require.NoError(t, dataset.WriteDir(csvDir, dataset.Demo()))

	dbPath := filepath.Join(dir, "expr.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.ImportDataset(ctx, dataset.Demo())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	tests := []struct {
		name string
		ds   config.Dataset
		rows int
	}{
		{"demo", config.Dataset{Source: "demo"}, 2},
		{"csv", config.Dataset{Source: "csv", Path: csvDir}, 2},
		{"sqlite", config.Dataset{Source: "sqlite", Path: dbPath}, 2},
		{"sqlite first", config.Dataset{Source: "sqlite", Path: dbPath, Fanout: "first"}, 1},
		{"delayed", config.Dataset{Source: "demo", LatencyMS: 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, closeFn, err := OpenService(ctx, tt.ds, nil)
			require.NoError(t, err)
			defer func() { require.NoError(t, closeFn()) }()

			res, err := svc.Lookup(ctx, "pten")
			require.NoError(t, err)
			assert.Equal(t, "PTEN", res.Key)
			assert.Len(t, res.Rows, tt.rows)
		})
	}

	t.Run("unknown source", func(t *testing.T) {
		_, closeFn, err := OpenService(ctx, config.Dataset{Source: "parquet"}, nil)
		assert.Error(t, err)
		assert.NoError(t, closeFn())
	})

	t.Run("empty store", func(t *testing.T) {
		_, _, err := OpenService(ctx, config.Dataset{Source: "sqlite", Path: filepath.Join(dir, "empty.db")}, nil)
		assert.ErrorIs(t, err, store.ErrEmpty)
	})
}

func TestDashboard_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	ids := testutil.NewSequentialIDGenerator("session")
	svc := &countingService{next: lookup.NewMemory(dataset.Demo(), lookup.StrategyAll)}

	a, err := New(defaultDef(), svc, reactive.WithIDGenerator(ids))
	require.NoError(t, err)
	b, err := New(defaultDef(), svc, reactive.WithIDGenerator(ids))
	require.NoError(t, err)
	assert.Equal(t, "session-1", a.Graph().ID())
	assert.Equal(t, "session-2", b.Graph().ID())

	_, err = a.Plot(ctx)
	require.NoError(t, err)
	_, err = b.Plot(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Set(CellGene, "PTEN"))
	assert.True(t, a.Graph().IsDirty(NodeExpression))
	assert.False(t, b.Graph().IsDirty(NodeExpression))

	res, err := b.Expression(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ESR1", res.Key)
	assert.Equal(t, int64(2), svc.calls.Load())
}
