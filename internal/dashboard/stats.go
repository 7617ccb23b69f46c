package dashboard

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary is Tukey's five-number summary of one group.
type Summary struct {
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Lower  float64 `json:"lower"`
	Median float64 `json:"median"`
	Upper  float64 `json:"upper"`
	Max    float64 `json:"max"`
}

// ErrNoData is returned when a statistic is asked of an empty group.
var ErrNoData = errors.New("no data")

// FiveNumber returns the minimum, lower hinge, median, upper hinge and
// maximum of xs. Hinges are the medians of the lower and upper halves,
// each half including the median when n is odd.
func FiveNumber(xs []float64) (Summary, error) {
	n := len(xs)
	if n == 0 {
		return Summary{}, ErrNoData
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	// 1-based depths: min, lower hinge, median, upper hinge, max.
	n4 := math.Floor(float64(n+3)/2) / 2
	at := func(depth float64) float64 {
		lo := sorted[int(math.Floor(depth))-1]
		hi := sorted[int(math.Ceil(depth))-1]
		return (lo + hi) / 2
	}
	return Summary{
		N:      n,
		Min:    sorted[0],
		Lower:  at(n4),
		Median: at(float64(n+1) / 2),
		Upper:  at(float64(n+1) - n4),
		Max:    sorted[n-1],
	}, nil
}

// Welch holds the result of Welch's unequal-variance two-sample t-test.
type Welch struct {
	MeanDiff float64 `json:"mean_diff"`
	T        float64 `json:"t"`
	DF       float64 `json:"df"`
	P        float64 `json:"p"`
}

// WelchTest compares the means of a and b. MeanDiff is mean(a) - mean(b)
// and P is two-sided. Each sample needs at least two values, and at least
// one of them must vary.
func WelchTest(a, b []float64) (Welch, error) {
	if len(a) < 2 || len(b) < 2 {
		return Welch{}, fmt.Errorf("t-test needs at least 2 values per group, got %d and %d", len(a), len(b))
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	sa, sb := va/na, vb/nb
	se2 := sa + sb
	if se2 == 0 {
		return Welch{}, errors.New("t-test is undefined when both groups are constant")
	}

	t := (ma - mb) / math.Sqrt(se2)
	df := se2 * se2 / (sa*sa/(na-1) + sb*sb/(nb-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return Welch{
		MeanDiff: ma - mb,
		T:        t,
		DF:       df,
		P:        2 * dist.Survival(math.Abs(t)),
	}, nil
}
