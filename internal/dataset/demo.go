package dataset

// Demo returns a small breast-cancer style dataset: twelve samples split
// by ER status and five probes over four genes. PTEN maps to two probes.
func Demo() *Dataset {
	samples := []Sample{
		{ID: "S01", Label: LabelPositive},
		{ID: "S02", Label: LabelNegative},
		{ID: "S03", Label: LabelPositive},
		{ID: "S04", Label: LabelPositive},
		{ID: "S05", Label: LabelNegative},
		{ID: "S06", Label: LabelNegative},
		{ID: "S07", Label: LabelPositive},
		{ID: "S08", Label: LabelNegative},
		{ID: "S09", Label: LabelPositive},
		{ID: "S10", Label: LabelNegative},
		{ID: "S11", Label: LabelPositive},
		{ID: "S12", Label: LabelNegative},
	}
	probes := []Probe{
		{
			ID: "205225_at", Symbol: "ESR1", Ordinal: 1,
			Values: []float64{11.8, 6.2, 12.4, 10.9, 5.8, 7.1, 11.2, 6.5, 12.9, 6.0, 10.6, 6.9},
		},
		{
			ID: "209604_s_at", Symbol: "GATA3", Ordinal: 2,
			Values: []float64{13.1, 9.4, 13.6, 12.8, 8.9, 10.2, 12.5, 9.8, 13.9, 9.1, 12.2, 10.0},
		},
		{
			ID: "211711_s_at", Symbol: "PTEN", Ordinal: 3,
			Values: []float64{8.4, 7.9, 8.8, 8.1, 7.2, 8.0, 8.6, 7.5, 8.3, 7.7, 8.9, 7.4},
		},
		{
			ID: "204053_x_at", Symbol: "PTEN", Ordinal: 4,
			Values: []float64{9.2, 8.8, 9.5, 9.0, 8.1, 8.7, 9.4, 8.3, 9.1, 8.6, 9.6, 8.2},
		},
		{
			ID: "216836_s_at", Symbol: "ERBB2", Ordinal: 5,
			Values: []float64{9.8, 12.7, 10.1, 9.5, 13.4, 11.9, 10.4, 12.2, 9.9, 13.1, 10.0, 12.5},
		},
	}
	return &Dataset{Name: "demo", Samples: samples, Probes: probes}
}
