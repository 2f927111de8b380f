package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeturrell/deploy-api/internal/config"
)

func TestSheetSelectorSelect(t *testing.T) {
	selector := NewSheetSelector(config.Default().Transform)

	tests := []struct {
		name   string
		sheets []string
		want   string
	}{
		{name: "numeric data sheet", sheets: []string{"Cover", "1", "Notes"}, want: "1"},
		{name: "numeric sheet beats exact target", sheets: []string{"Figures", "1"}, want: "1"},
		{name: "closest to target", sheets: []string{"Cover", "Figures 2020", "Notes"}, want: "Figures 2020"},
		{name: "longer title still qualifies", sheets: []string{"Contents", "Table 1", "Figures for 2019"}, want: "Figures for 2019"},
		{name: "best of several", sheets: []string{"Figures for 2019", "Figure 1"}, want: "Figure 1"},
		{name: "tie goes to greater name", sheets: []string{"Figures B", "Figures A"}, want: "Figures B"},
		{name: "tie independent of order", sheets: []string{"Figures A", "Figures B"}, want: "Figures B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selector.Select(tt.sheets)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSheetSelectorNoMatch(t *testing.T) {
	selector := &SheetSelector{Preferred: "1", Target: "Figures", Cutoff: 0.6}

	tests := []struct {
		name   string
		sheets []string
	}{
		{name: "empty workbook", sheets: nil},
		{name: "nothing similar", sheets: []string{"Contents", "Notes", "Table 2"}},
		{name: "case sensitive", sheets: []string{"FIGURES"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := selector.Select(tt.sheets)
			var noMatch *NoMatchingSheetError
			require.ErrorAs(t, err, &noMatch)
			assert.Equal(t, "Figures", noMatch.Target)
			assert.Equal(t, len(tt.sheets), len(noMatch.Candidates))
		})
	}
}

func TestSheetSelectorCutoff(t *testing.T) {
	strict := &SheetSelector{Preferred: "1", Target: "Figures", Cutoff: 0.9}
	_, err := strict.Select([]string{"Figures 2020"})
	assert.Error(t, err)

	loose := &SheetSelector{Preferred: "1", Target: "Figures", Cutoff: 0.3}
	got, err := loose.Select([]string{"Notes", "Cover"})
	require.NoError(t, err)
	assert.Equal(t, "Notes", got)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{a: "Figures", b: "Figures", want: 1},
		{a: "Figures 2020", b: "Figures", want: 14.0 / 19.0},
		{a: "Notes", b: "Figures", want: 4.0 / 12.0},
		{a: "", b: "Figures", want: 0},
		{a: "abc", b: "xyz", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.a, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}
