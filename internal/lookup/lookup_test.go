package lookup

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprdash/internal/dataset"
	"github.com/roach88/exprdash/internal/store"
)

// backends returns every Service implementation over the demo dataset.
func backends(t *testing.T, strategy Strategy) map[string]Service {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "lookup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, err = st.ImportDataset(ctx, dataset.Demo())
	require.NoError(t, err)

	sqlSvc, err := NewSQLService(ctx, st, strategy)
	require.NoError(t, err)

	return map[string]Service{
		"memory": NewMemory(dataset.Demo(), strategy),
		"sql":    sqlSvc,
	}
}

func TestLookup_SingleProbe(t *testing.T) {
	for name, svc := range backends(t, StrategyAll) {
		t.Run(name, func(t *testing.T) {
			res, err := svc.Lookup(context.Background(), "ESR1")
			require.NoError(t, err)

			assert.Equal(t, "ESR1", res.Key)
			require.Len(t, res.Rows, 1)
			assert.Equal(t, "205225_at", res.Rows[0].ProbeID)
			assert.Equal(t, dataset.Demo().Probes[0].Values, res.Rows[0].Values)
			assert.Len(t, res.Samples, 12)
			assert.Equal(t, dataset.Demo().Labels(), res.Labels)
		})
	}
}

func TestLookup_FanOutAll(t *testing.T) {
	for name, svc := range backends(t, StrategyAll) {
		t.Run(name, func(t *testing.T) {
			res, err := svc.Lookup(context.Background(), "PTEN")
			require.NoError(t, err)
			require.Len(t, res.Rows, 2)
			assert.Equal(t, "211711_s_at", res.Rows[0].ProbeID)
			assert.Equal(t, "204053_x_at", res.Rows[1].ProbeID)
		})
	}
}

func TestLookup_FanOutFirst(t *testing.T) {
	for name, svc := range backends(t, StrategyFirst) {
		t.Run(name, func(t *testing.T) {
			res, err := svc.Lookup(context.Background(), "PTEN")
			require.NoError(t, err)
			require.Len(t, res.Rows, 1)
			assert.Equal(t, "211711_s_at", res.Rows[0].ProbeID)
		})
	}
}

func TestLookup_NormalizesKey(t *testing.T) {
	for name, svc := range backends(t, StrategyAll) {
		t.Run(name, func(t *testing.T) {
			res, err := svc.Lookup(context.Background(), " esr1 ")
			require.NoError(t, err)
			assert.Equal(t, "ESR1", res.Key)
		})
	}
}

func TestLookup_NotFound(t *testing.T) {
	for name, svc := range backends(t, StrategyAll) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"BRCA1", "", "   "} {
				res, err := svc.Lookup(context.Background(), key)
				require.Error(t, err, key)
				assert.ErrorIs(t, err, ErrNotFound)

				var nf *NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, key, nf.Key)
				assert.Empty(t, res.Rows)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyAll, false},
		{"all", StrategyAll, false},
		{" First ", StrategyFirst, false},
		{"any", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewSQLService_EmptyStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer st.Close()

	_, err = NewSQLService(context.Background(), st, StrategyAll)
	assert.ErrorIs(t, err, store.ErrEmpty)
}

func TestMemory_CanonicalOrderIgnoresInputOrder(t *testing.T) {
	d := &dataset.Dataset{
		Name:    "shuffled",
		Samples: []dataset.Sample{{ID: "A", Label: "positive"}},
		Probes: []dataset.Probe{
			{ID: "z", Symbol: "G", Ordinal: 2, Values: []float64{1}},
			{ID: "b", Symbol: "G", Ordinal: 1, Values: []float64{2}},
			{ID: "B", Symbol: "g", Ordinal: 1, Values: []float64{3}},
		},
	}
	res, err := NewMemory(d, StrategyAll).Lookup(context.Background(), "G")
	require.NoError(t, err)

	ids := make([]string, len(res.Rows))
	for i, r := range res.Rows {
		ids[i] = r.ProbeID
	}
	// "B" < "b" bytewise.
	assert.Equal(t, []string{"B", "b", "z"}, ids)
}

func TestDelayed(t *testing.T) {
	svc := NewDelayed(NewMemory(dataset.Demo(), StrategyAll), 20*time.Millisecond)

	start := time.Now()
	_, err := svc.Lookup(context.Background(), "ESR1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDelayed_HonorsCancellation(t *testing.T) {
	svc := NewDelayed(NewMemory(dataset.Demo(), StrategyAll), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Lookup(ctx, "ESR1")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewDelayed_ZeroIsPassthrough(t *testing.T) {
	mem := NewMemory(dataset.Demo(), StrategyAll)
	assert.Same(t, mem, NewDelayed(mem, 0))
}

func TestResult_String(t *testing.T) {
	res, err := NewMemory(dataset.Demo(), StrategyAll).Lookup(context.Background(), "PTEN")
	require.NoError(t, err)

	lines := strings.Split(res.String(), "\n")
	require.Len(t, lines, len(res.Samples)+1)
	assert.Equal(t, []string{"sample", "label", "211711_s_at", "204053_x_at"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{res.Samples[0], res.Labels[0]}, strings.Fields(lines[1])[:2])
}
