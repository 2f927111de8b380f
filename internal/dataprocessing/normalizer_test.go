package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeturrell/deploy-api/internal/config"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(config.Default().Transform)
}

func deathsOf(observations []domain.Observation) []*float32 {
	out := make([]*float32, len(observations))
	for i, o := range observations {
		out[i] = o.Deaths
	}
	return out
}

func f32(v float32) *float32 { return &v }

func TestNormalizeSingleRow(t *testing.T) {
	raw := [][]string{
		{"Area code", "Area name", "Oct", "Nov", "Dec"},
		{"E06000047", "City X", "10", "12", "9"},
	}

	got, err := newTestNormalizer().Normalize(raw, 2020)
	require.NoError(t, err)
	require.Len(t, got, 3)

	months := []string{"october", "november", "december"}
	for i, o := range got {
		assert.Equal(t, "E06000047", o.GeoCode)
		assert.Equal(t, "city x", o.PlaceName)
		assert.Equal(t, months[i], o.Month)
		assert.Equal(t, 2020, o.Year)
		assert.True(t, o.Datetime.IsZero())
	}
	assert.Equal(t, []*float32{f32(10), f32(12), f32(9)}, deathsOf(got))
}

func TestNormalizeFiltersRows(t *testing.T) {
	raw := [][]string{
		{"Monthly deaths by area of usual residence"},
		{},
		{"", "Figures include late registrations", ""},
		{"Area code", "Area name", "Jan", "Feb"},
		{"K04000001", "ENGLAND AND WALES", "40000", "38000"},
		{"E06000001", "Hartlepool", "100", "90"},
		{"Total", "All areas", "1", "2"},
		{"E0600001", "Too short", "1", "2"},
		{"E060000010", "Too long", "1", "2"},
		{" W06000015 ", "  Cardiff ", "300", "280"},
		{"Notes:", "", "", ""},
	}

	got, err := NewNormalizer(config.TransformConfig{MinNonEmpty: 3, GeoCodeLength: 9, MaxMonths: 24}).Normalize(raw, 2016)
	require.NoError(t, err)
	require.Len(t, got, 6)

	geos := map[string]string{}
	for _, o := range got {
		assert.Len(t, o.GeoCode, 9)
		geos[o.GeoCode] = o.PlaceName
	}
	assert.Equal(t, map[string]string{
		"K04000001": "england and wales",
		"E06000001": "hartlepool",
		"W06000015": "cardiff",
	}, geos)

	assert.Equal(t, "november", got[0].Month)
	assert.Equal(t, "december", got[1].Month)
}

func TestNormalizeMissingDeaths(t *testing.T) {
	raw := [][]string{
		{"Area code", "Area name", "m1", "m2", "m3", "m4", "m5", "m6"},
		{"E06000047", "County Durham", "", ":", "x", "1,234", " 7 ", "NaN"},
		{"E06000005", "Darlington", "3"},
	}

	got, err := newTestNormalizer().Normalize(raw, 2020)
	require.NoError(t, err)
	require.Len(t, got, 12)

	assert.Equal(t, []*float32{nil, nil, nil, f32(1234), f32(7), nil}, deathsOf(got[:6]))
	// short rows are padded with missing values
	assert.Equal(t, []*float32{f32(3), nil, nil, nil, nil, nil}, deathsOf(got[6:]))
	for _, o := range got {
		if o.Deaths != nil {
			assert.NotZero(t, *o.Deaths)
		}
	}
}

func TestNormalizeBackfilledMonths(t *testing.T) {
	header := []string{"Area code", "Area name"}
	row := []string{"E06000001", "Hartlepool"}
	for i := 0; i < 13; i++ {
		header = append(header, "m")
		row = append(row, "5")
	}

	got, err := newTestNormalizer().Normalize([][]string{header, row}, 2021)
	require.NoError(t, err)
	require.Len(t, got, 13)

	assert.Equal(t, "december", got[0].Month)
	assert.Equal(t, 2020, got[0].Year)
	assert.Equal(t, "january", got[1].Month)
	assert.Equal(t, 2021, got[1].Year)
	assert.Equal(t, "december", got[12].Month)
	assert.Equal(t, 2021, got[12].Year)
}

func TestNormalizeColumnBounds(t *testing.T) {
	n := &Normalizer{MinNonEmpty: 3, GeoCodeLength: 9, MaxMonths: 4}

	wide := [][]string{
		{"Area code", "Area name", "1", "2", "3", "4", "5"},
		{"E06000001", "Hartlepool", "1", "2", "3", "4", "5"},
	}
	_, err := n.Normalize(wide, 2020)
	var countErr *ColumnCountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 5, countErr.Columns)
	assert.Equal(t, 4, countErr.Max)

	// a data row wider than the header widens the table
	ragged := [][]string{
		{"Area code", "Area name", "1"},
		{"E06000001", "Hartlepool", "1", "2", "3", "4", "5"},
	}
	_, err = n.Normalize(ragged, 2020)
	require.ErrorAs(t, err, &countErr)
}

func TestNormalizeEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  [][]string
	}{
		{name: "no rows", raw: nil},
		{name: "only blank rows", raw: [][]string{{}, {"", " "}, {}}},
		{name: "only sparse rows", raw: [][]string{{"Monthly deaths"}, {"", "Source", ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestNormalizer().Normalize(tt.raw, 2020)
			assert.ErrorIs(t, err, ErrNoDataRegion)
			assert.Nil(t, got)
		})
	}

	headerOnly := [][]string{{"Area code", "Area name", "Jan"}}
	got, err := newTestNormalizer().Normalize(headerOnly, 2020)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseDeaths(t *testing.T) {
	tests := []struct {
		in   string
		want *float32
	}{
		{in: "10", want: f32(10)},
		{in: "0", want: f32(0)},
		{in: "12.5", want: f32(12.5)},
		{in: "1,024", want: f32(1024)},
		{in: "", want: nil},
		{in: "  ", want: nil},
		{in: "z", want: nil},
		{in: "Inf", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDeaths(tt.in))
		})
	}
}
