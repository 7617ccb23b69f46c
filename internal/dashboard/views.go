package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/exprdash/internal/lookup"
)

// Group is one label's values for a probe.
type Group struct {
	Label   string    `json:"label"`
	Values  []float64 `json:"values"`
	Summary Summary   `json:"summary"`
}

// ProbeGroups is the boxplot input for one probe: its values split by
// label, groups in label order.
type ProbeGroups struct {
	ProbeID string  `json:"probe_id"`
	Groups  []Group `json:"groups"`
}

// Groups is the output of the groups node.
type Groups struct {
	Key    string        `json:"key"`
	Probes []ProbeGroups `json:"probes"`
}

// TestResult is the Welch test for one probe, comparing the first label
// group against the second.
type TestResult struct {
	ProbeID     string    `json:"probe_id"`
	Groups      [2]string `json:"groups"`
	Welch       Welch     `json:"welch"`
	Significant bool      `json:"significant"`
}

// Tests is the output of the ttest node.
type Tests struct {
	Key     string       `json:"key"`
	Alpha   float64      `json:"alpha"`
	Results []TestResult `json:"results"`
}

// Plot is what a renderer needs to draw the boxplot.
type Plot struct {
	Title  string        `json:"title"`
	Color  string        `json:"color"`
	Series []ProbeGroups `json:"series"`
}

// groupByLabel splits every row of res by sample label.
func groupByLabel(res lookup.Result) (Groups, error) {
	if len(res.Labels) != len(res.Samples) {
		return Groups{}, fmt.Errorf("%d labels for %d samples", len(res.Labels), len(res.Samples))
	}
	labels := slices.Clone(res.Labels)
	slices.Sort(labels)
	labels = slices.Compact(labels)

	out := Groups{Key: res.Key, Probes: make([]ProbeGroups, 0, len(res.Rows))}
	for _, row := range res.Rows {
		if len(row.Values) != len(res.Labels) {
			return Groups{}, fmt.Errorf("probe %s: %d values for %d samples", row.ProbeID, len(row.Values), len(res.Labels))
		}
		byLabel := make(map[string][]float64, len(labels))
		for i, v := range row.Values {
			byLabel[res.Labels[i]] = append(byLabel[res.Labels[i]], v)
		}

		pg := ProbeGroups{ProbeID: row.ProbeID, Groups: make([]Group, 0, len(labels))}
		for _, label := range labels {
			values := byLabel[label]
			summary, err := FiveNumber(values)
			if err != nil {
				return Groups{}, fmt.Errorf("probe %s, group %s: %w", row.ProbeID, label, err)
			}
			pg.Groups = append(pg.Groups, Group{Label: label, Values: values, Summary: summary})
		}
		out.Probes = append(out.Probes, pg)
	}
	return out, nil
}

// welchTests runs one test per probe. Every probe must have exactly two
// groups.
func welchTests(groups Groups, alpha float64) (Tests, error) {
	out := Tests{Key: groups.Key, Alpha: alpha, Results: make([]TestResult, 0, len(groups.Probes))}
	for _, pg := range groups.Probes {
		if len(pg.Groups) != 2 {
			return Tests{}, fmt.Errorf("probe %s: t-test needs exactly 2 groups, got %d", pg.ProbeID, len(pg.Groups))
		}
		a, b := pg.Groups[0], pg.Groups[1]
		w, err := WelchTest(a.Values, b.Values)
		if err != nil {
			return Tests{}, fmt.Errorf("probe %s: %w", pg.ProbeID, err)
		}
		out.Results = append(out.Results, TestResult{
			ProbeID:     pg.ProbeID,
			Groups:      [2]string{a.Label, b.Label},
			Welch:       w,
			Significant: w.P < alpha,
		})
	}
	return out, nil
}

// downloadCSV renders res as one line per sample with a column per probe.
func downloadCSV(res lookup.Result) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"sample", "label"}
	for _, row := range res.Rows {
		header = append(header, row.ProbeID)
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, sample := range res.Samples {
		record := []string{sample, res.Labels[i]}
		for _, row := range res.Rows {
			record = append(record, strconv.FormatFloat(row.Values[i], 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
