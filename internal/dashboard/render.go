package dashboard

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// String renders the boxplot input as a table, one line per group.
func (g Groups) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", g.Key)
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "probe\tgroup\tn\tmin\tlower\tmedian\tupper\tmax")
	for _, pg := range g.Probes {
		for _, grp := range pg.Groups {
			s := grp.Summary
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.3g\t%.3g\t%.3g\t%.3g\t%.3g\n",
				pg.ProbeID, grp.Label, s.N, s.Min, s.Lower, s.Median, s.Upper, s.Max)
		}
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// String renders the test results as a table.
func (t Tests) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (alpha=%g)\n", t.Key, t.Alpha)
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "probe\tcomparison\tdiff\tt\tdf\tp\tsignificant")
	for _, r := range t.Results {
		fmt.Fprintf(tw, "%s\t%s - %s\t%.3f\t%.3f\t%.2f\t%.3g\t%t\n",
			r.ProbeID, r.Groups[0], r.Groups[1], r.Welch.MeanDiff, r.Welch.T, r.Welch.DF, r.Welch.P, r.Significant)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// String renders a one-line-per-box description of the plot.
func (p Plot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", p.Title, p.Color)
	for _, pg := range p.Series {
		for _, grp := range pg.Groups {
			s := grp.Summary
			fmt.Fprintf(&b, "\n  %s/%s: |%.2f [%.2f | %.2f | %.2f] %.2f|",
				pg.ProbeID, grp.Label, s.Min, s.Lower, s.Median, s.Upper, s.Max)
		}
	}
	return b.String()
}
