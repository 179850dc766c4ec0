package rates

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
)

const (
	areaField = "Geographic Area"
	popField  = "Total Resident Population"
)

func populationRows() []dataset.Row {
	return []dataset.Row{
		{areaField: "Texas", popField: "1000"},
		{areaField: " Ohio ", popField: "2000"},
		{areaField: "Nevada", popField: "n/a"},
		{areaField: "", popField: "5"},
		{areaField: "Maine", popField: "0"},
	}
}

func lookupOf(t *testing.T) *Lookup {
	t.Helper()
	l, err := BuildPopulationLookup(populationRows(), areaField, popField, nil)
	require.NoError(t, err)
	return l
}

func TestBuildPopulationLookup(t *testing.T) {
	var buf bytes.Buffer
	l, err := BuildPopulationLookup(populationRows(), areaField, popField, log.New(&buf))
	require.NoError(t, err)

	assert.Equal(t, []string{"Texas", "Ohio", "Maine"}, l.Entities())
	p, ok := l.Get("Ohio")
	assert.True(t, ok)
	assert.Equal(t, int64(2000), p)
	_, ok = l.Get("Nevada")
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "invalid population row")
}

func TestBuildPopulationLookupErrors(t *testing.T) {
	_, err := BuildPopulationLookup(nil, areaField, popField, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeEmptyDataset), "got %v", err)
	assert.Equal(t, errors.StageJoin, errors.StageOf(err))

	_, err = BuildPopulationLookup(populationRows(), "", popField, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestJoinExample(t *testing.T) {
	l := NewLookup()
	l.Set("Texas", 1000)
	rows := []dataset.Row{{"States": "Texas", "2020": "10"}}

	tbl, err := Join(rows, "States", l, YearRange{Start: 2020, End: 2020})
	require.NoError(t, err)

	rec, ok := tbl.Get("Texas", 2020)
	require.True(t, ok)
	assert.Equal(t, Record{Entity: "Texas", Year: 2020, Rate: 10.00, DerivedCount: 100}, rec)
	assert.Equal(t, 1, tbl.Len())
	assert.Empty(t, tbl.Misses)
}

func TestJoinNonNumericRateIsAbsent(t *testing.T) {
	l := NewLookup()
	l.Set("Texas", 1000)
	rows := []dataset.Row{{"States": "Texas", "2020": "abc", "2021": "7"}}

	tbl, err := Join(rows, "States", l, YearRange{Start: 2020, End: 2021})
	require.NoError(t, err)

	_, ok := tbl.Get("Texas", 2020)
	assert.False(t, ok, "non-numeric rate must be absent, not zero")
	_, ok = tbl.Get("Texas", 2021)
	assert.True(t, ok)
	assert.Equal(t, []Miss{{Entity: "Texas", Year: 2020, Reason: MissRate}}, tbl.Misses)
}

func TestJoin(t *testing.T) {
	rows := []dataset.Row{
		{"States": "  Texas ", "2018": "9", "2019": "10.375", "2020": "11", "2023": "12", "Notes": "x"},
		{"States": "Ohio", "2019": "", "2020": "8.125"},
		{"States": "Nevada", "2019": "5"},
		{"States": "Maine", "2019": "5"},
		{"States": "", "2019": "99"},
	}

	tbl, err := Join(rows, "States", lookupOf(t), YearRange{Start: 2019, End: 2022})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ohio", "Texas"}, tbl.Entities())
	assert.Equal(t, []int{2019, 2020}, tbl.Years())

	rec, _ := tbl.Get("Texas", 2019)
	assert.Equal(t, 10.38, rec.Rate)
	assert.Equal(t, int64(104), rec.DerivedCount, "round(1000 * 10.375 / 100)")

	rec, _ = tbl.Get("Ohio", 2020)
	assert.Equal(t, 8.13, rec.Rate, "half away from zero")
	assert.Equal(t, int64(163), rec.DerivedCount, "round(2000 * 8.125 / 100)")

	_, ok := tbl.Get("Texas", 2018)
	assert.False(t, ok, "outside range")
	_, ok = tbl.Get("Texas", 2023)
	assert.False(t, ok, "outside range")

	assert.ElementsMatch(t, []Miss{
		{Entity: "Ohio", Year: 2019, Reason: MissRate},
		{Entity: "Nevada", Year: 2019, Reason: MissPopulation},
		{Entity: "Maine", Year: 2019, Reason: MissPopulation},
	}, tbl.Misses)
}

func TestJoinDuplicateEntity(t *testing.T) {
	l := NewLookup()
	l.Set("Texas", 1000)
	l.Set("Ohio", 2000)
	rows := []dataset.Row{
		{"States": "Texas", "2019": "abc", "2020": "5"},
		{"States": "Ohio", "2019": "", "2020": "4"},
		{"States": " Texas", "2019": "10", "2020": "20"},
	}

	tbl, err := Join(rows, "States", l, YearRange{Start: 2019, End: 2020})
	require.NoError(t, err)

	rec, ok := tbl.Get("Texas", 2019)
	require.True(t, ok)
	assert.Equal(t, int64(100), rec.DerivedCount)
	rec, ok = tbl.Get("Texas", 2020)
	require.True(t, ok)
	assert.Equal(t, 20.0, rec.Rate, "later row wins")
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []Miss{{Entity: "Ohio", Year: 2019, Reason: MissRate}}, tbl.Misses,
		"misses of the replaced Texas row are dropped")
}

func TestJoinDuplicateEntityKeepsLaterMisses(t *testing.T) {
	l := NewLookup()
	l.Set("Texas", 1000)
	rows := []dataset.Row{
		{"States": "Texas", "2019": "10"},
		{"States": "Texas", "2019": "n/a"},
	}

	tbl, err := Join(rows, "States", l, YearRange{Start: 2019, End: 2019})
	require.NoError(t, err)

	_, ok := tbl.Get("Texas", 2019)
	assert.False(t, ok)
	assert.Equal(t, []Miss{{Entity: "Texas", Year: 2019, Reason: MissRate}}, tbl.Misses)
}

func TestJoinErrors(t *testing.T) {
	l := lookupOf(t)

	_, err := Join(nil, "States", l, YearRange{Start: 2019, End: 2022})
	assert.True(t, errors.Is(err, errors.ErrCodeEmptyDataset), "got %v", err)
	assert.Equal(t, errors.StageJoin, errors.StageOf(err))

	_, err = Join([]dataset.Row{{"States": "Texas"}}, "States", l, YearRange{Start: 2022, End: 2019})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestJoinNilLookup(t *testing.T) {
	tbl, err := Join([]dataset.Row{{"States": "Texas", "2020": "1"}}, "States", nil, YearRange{Start: 2020, End: 2020})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Len(t, tbl.Misses, 1)
}

func TestSummarize(t *testing.T) {
	l := NewLookup()
	l.Set("A", 100)
	l.Set("B", 100)
	l.Set("C", 100)
	l.Set("D", 100)
	rows := []dataset.Row{
		{"S": "A", "2020": "1"},
		{"S": "B", "2020": "2"},
		{"S": "C", "2020": "3"},
		{"S": "D", "2020": "10"},
	}
	tbl, err := Join(rows, "S", l, YearRange{Start: 2020, End: 2021})
	require.NoError(t, err)

	s, err := Summarize(tbl, 2020)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
	assert.Equal(t, 4.0, s.Mean)
	assert.Equal(t, 2.5, s.Median)
	assert.Equal(t, 1.5, s.Q1)
	assert.Equal(t, 6.5, s.Q3)
	assert.Equal(t, int64(16), s.Total)

	_, err = Summarize(tbl, 2021)
	assert.True(t, errors.Is(err, errors.ErrCodeEmptyDataset), "got %v", err)

	all, err := SummarizeAll(tbl)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSnapshot(t *testing.T) {
	l := lookupOf(t)
	tbl, err := Join([]dataset.Row{{"States": "Ohio", "2020": "5"}}, "States", l, YearRange{Start: 2020, End: 2020})
	require.NoError(t, err)

	snap := Snapshot(l, tbl, 2020)
	require.Len(t, snap, 3)
	assert.Equal(t, "Texas", snap[0].Entity)
	assert.False(t, snap[0].Available())
	assert.Equal(t, int64(1000), snap[0].Population)
	assert.True(t, snap[1].Available())
	assert.Equal(t, int64(100), snap[1].Record.DerivedCount)
}

func TestSeries(t *testing.T) {
	l := lookupOf(t)
	rows := []dataset.Row{
		{"States": "Texas", "2021": "3", "2019": "1", "2020": "2"},
		{"States": "Ohio", "2020": "4"},
	}
	tbl, err := Join(rows, "States", l, YearRange{Start: 2019, End: 2022})
	require.NoError(t, err)

	lines := Series(tbl)
	require.Len(t, lines, 2)
	assert.Equal(t, "Ohio", lines[0].Entity)
	assert.Equal(t, "Texas", lines[1].Entity)

	var years []int
	for _, p := range lines[1].Points {
		years = append(years, p.Year)
	}
	assert.Equal(t, []int{2019, 2020, 2021}, years)
}
