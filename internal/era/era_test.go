package era

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mischooldata/pkg/contracts/domain"
)

func TestClassify(t *testing.T) {
	table := Default()

	tests := []struct {
		endYear  int
		wantEra  string
		wantSkip int
	}{
		{1996, "legacy", 3},
		{2000, "legacy", 3},
		{2002, "legacy", 3},
		{2003, "transition", 0},
		{2010, "transition", 0},
		{2013, "transition", 0},
		{2014, "modern", 0},
		{2025, "modern", 0},
	}

	for _, tt := range tests {
		profile, err := table.Classify(tt.endYear)
		require.NoError(t, err, "year %d", tt.endYear)
		assert.Equal(t, tt.wantEra, profile.Name, "year %d", tt.endYear)
		assert.Equal(t, tt.wantSkip, profile.HeaderSkip, "year %d", tt.endYear)
	}
}

func TestClassifyOutOfRange(t *testing.T) {
	table := Default()

	for _, year := range []int{1995, 2026, 0, -1} {
		_, err := table.Classify(year)
		require.Error(t, err, "year %d", year)

		var yearErr *ErrYearOutOfRange
		require.ErrorAs(t, err, &yearErr)
		assert.Equal(t, year, yearErr.EndYear)
	}
}

func TestClassifySyntheticTable(t *testing.T) {
	table := Table{
		{Name: "one", StartYear: 2000, EndYear: 2004, HeaderSkip: 1},
		{Name: "two", StartYear: 2005, EndYear: 2009, HeaderSkip: 0},
	}

	p, err := table.Classify(2004)
	require.NoError(t, err)
	assert.Equal(t, "one", p.Name)

	p, err = table.Classify(2005)
	require.NoError(t, err)
	assert.Equal(t, "two", p.Name)

	_, err = table.Classify(2010)
	assert.Error(t, err)
}

func TestBinaryYear(t *testing.T) {
	table := Default()

	profile, err := table.Classify(2003)
	require.NoError(t, err)
	assert.True(t, profile.IsBinaryYear(2003))
	assert.False(t, profile.IsBinaryYear(2004))

	modern, err := table.Classify(2020)
	require.NoError(t, err)
	assert.False(t, modern.IsBinaryYear(2020))
}

func TestHasCategory(t *testing.T) {
	table := Default()

	legacy, err := table.Classify(1998)
	require.NoError(t, err)
	assert.True(t, legacy.HasCategory(domain.SubgroupWhite))
	assert.False(t, legacy.HasCategory(domain.SubgroupMultiracial))
	assert.False(t, legacy.HasCategory(domain.SubgroupPacificIslander))
	assert.True(t, legacy.LooseTolerance)

	modern, err := table.Classify(2020)
	require.NoError(t, err)
	assert.True(t, modern.HasCategory(domain.SubgroupMultiracial))
	assert.False(t, modern.LooseTolerance)
}

func TestYears(t *testing.T) {
	years := Default().Years()
	require.NotEmpty(t, years)
	assert.Equal(t, 1996, years[0])
	assert.Equal(t, 2025, years[len(years)-1])
	assert.Len(t, years, 30)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		cell    string
		pattern string
		want    bool
	}{
		{"District Code", "district code", true},
		{"DISTRICT CODE", "District Code", true},
		{"District  Code", "district code", true},
		{"District Code (5 digit)", "district code", true},
		{"Male", "male", true},
		{"Female", "male", false},
		{"Total Male", "male", true},
		{"Grade 10", "grade 1", false},
		{"Grade 1", "grade 1", true},
		{"", "male", false},
		{"Male", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.cell, tt.pattern),
			"cell %q pattern %q", tt.cell, tt.pattern)
	}
}

func TestFindSheet(t *testing.T) {
	available := []string{"Cover", "Building Data", "District Data", "Statewide"}

	tests := []struct {
		name     string
		patterns []string
		want     string
		wantOK   bool
	}{
		{name: "district", patterns: []string{"district", "districts"}, want: "District Data", wantOK: true},
		{name: "building", patterns: []string{"building", "school"}, want: "Building Data", wantOK: true},
		{name: "state", patterns: []string{"state", "statewide"}, want: "Statewide", wantOK: true},
		{name: "absent is not an error", patterns: []string{"county"}, want: "", wantOK: false},
		{name: "pattern priority over list order", patterns: []string{"statewide", "building"}, want: "Statewide", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindSheet(available, tt.patterns)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectHeaderSkip(t *testing.T) {
	headerRow := []string{"District Code", "District Name", "Total Enrollment"}
	banner := []string{"Fall Headcount Report"}

	tests := []struct {
		name string
		rows [][]string
		want int
	}{
		{name: "header on first row", rows: [][]string{headerRow, {"82010", "Detroit", "48000"}}, want: 0},
		{name: "header after three banner rows", rows: [][]string{banner, {}, {}, headerRow, {"82010"}}, want: 3},
		{name: "no recognizable header defaults to zero", rows: [][]string{{"mystery"}, {"rows"}}, want: 0},
		{name: "empty grid", rows: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectHeaderSkip(tt.rows))
		})
	}
}

func TestResolveSkip(t *testing.T) {
	headerRow := []string{"DCODE", "DNAME", "Total"}

	t.Run("declared depth confirmed", func(t *testing.T) {
		rows := [][]string{{"banner"}, {}, {}, headerRow, {"82010"}}
		assert.Equal(t, 3, ResolveSkip(rows, 3))
	})

	t.Run("probe overrides a wrong declaration", func(t *testing.T) {
		rows := [][]string{headerRow, {"82010"}}
		assert.Equal(t, 0, ResolveSkip(rows, 3))
	})

	t.Run("probe overrides zero declaration on banner file", func(t *testing.T) {
		rows := [][]string{{"banner"}, {}, {}, headerRow, {"82010"}}
		assert.Equal(t, 3, ResolveSkip(rows, 0))
	})
}
