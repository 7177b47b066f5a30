package enrollment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mischooldata/internal/config"
	"mischooldata/internal/era"
	"mischooldata/internal/fetch"
	"mischooldata/pkg/contracts/domain"
)

// fakeWorkbook serves in-memory grids in place of a decoded file.
type fakeWorkbook struct {
	sheets map[string][][]string
	order  []string
	closed bool
}

func (w *fakeWorkbook) SheetNames() []string {
	return w.order
}

func (w *fakeWorkbook) Rows(name string) ([][]string, error) {
	rows, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", name)
	}
	return rows, nil
}

func (w *fakeWorkbook) Close() error {
	w.closed = true
	return nil
}

// fakeSource hands out canned workbooks or errors per year.
type fakeSource struct {
	workbooks map[int]*fakeWorkbook
	errs      map[int]error
	binary    map[int]bool
}

func (s *fakeSource) FetchWorkbook(_ context.Context, endYear int, binary bool) (Workbook, error) {
	if s.binary == nil {
		s.binary = make(map[int]bool)
	}
	s.binary[endYear] = binary
	if err, ok := s.errs[endYear]; ok {
		return nil, err
	}
	wb, ok := s.workbooks[endYear]
	if !ok {
		return nil, &fetch.RetrievalError{EndYear: endYear, Reason: "HTTP 404"}
	}
	return wb, nil
}

var testHeader = []string{
	"District Code", "District Name", "Building Code", "Building Name",
	"Total Enrollment", "White", "Black or African American", "Male", "Female",
	"Kindergarten", "Grade 12",
}

func districtRow(code, name, total, white, black string) []string {
	return []string{code, name, "", "", total, white, black, "", "", "", ""}
}

func testWorkbook(withState bool) *fakeWorkbook {
	wb := &fakeWorkbook{
		sheets: map[string][][]string{
			"District Data": {
				testHeader,
				districtRow("82010", "Detroit Public Schools", "48000", "2000", "38000"),
				districtRow("03030", "Alpena Public Schools", "3500", "3200", "100"),
			},
			"Building Data": {
				testHeader,
				{"82010", "Detroit Public Schools", "82015", "Cass Technical High School", "2400", "100", "2000", "", "", "", "600"},
			},
		},
		order: []string{"District Data", "Building Data"},
	}
	if withState {
		wb.sheets["Statewide"] = [][]string{
			testHeader,
			{"", "Statewide", "", "", "1400000", "900000", "250000", "", "", "", ""},
		}
		wb.order = append(wb.order, "Statewide")
	}
	return wb
}

func newTestService(source WorkbookSource) *Service {
	return NewService(source, era.Default(), config.ValidationConfig{}, nil)
}

func TestFetchYear(t *testing.T) {
	source := &fakeSource{workbooks: map[int]*fakeWorkbook{2024: testWorkbook(true)}}
	service := newTestService(source)

	ds, err := service.FetchYear(context.Background(), 2024)
	require.NoError(t, err)

	wide := ds.Wide()
	require.Len(t, wide, 4)

	assert.Equal(t, domain.LevelState, wide[0].Type)
	require.NotNil(t, wide[0].RowTotal)
	assert.Equal(t, 1400000.0, *wide[0].RowTotal)

	assert.Equal(t, domain.LevelDistrict, wide[1].Type)
	assert.Equal(t, "82010", wide[1].DistrictID)
	assert.Equal(t, domain.LevelBuilding, wide[3].Type)
	assert.Equal(t, "82015", wide[3].BuildingID)

	tidy := ds.Tidy()
	assert.Len(t, tidy, 4*23)
}

func TestFetchYearStateFallback(t *testing.T) {
	source := &fakeSource{workbooks: map[int]*fakeWorkbook{2024: testWorkbook(false)}}
	service := newTestService(source)

	ds, err := service.FetchYear(context.Background(), 2024)
	require.NoError(t, err)

	wide := ds.Wide()
	require.NotEmpty(t, wide)
	state := wide[0]
	require.Equal(t, domain.LevelState, state.Type)

	// 48000 + 3500 from the two district rows.
	require.NotNil(t, state.RowTotal)
	assert.Equal(t, 51500.0, *state.RowTotal)
	require.NotNil(t, state.White)
	assert.Equal(t, 5200.0, *state.White)
	assert.Empty(t, state.DistrictID)
}

func TestFetchYearMissingLevelIsNotFatal(t *testing.T) {
	wb := testWorkbook(true)
	delete(wb.sheets, "Building Data")
	wb.order = []string{"District Data", "Statewide"}

	source := &fakeSource{workbooks: map[int]*fakeWorkbook{2024: wb}}
	service := newTestService(source)

	ds, err := service.FetchYear(context.Background(), 2024)
	require.NoError(t, err)

	for _, r := range ds.Wide() {
		assert.NotEqual(t, domain.LevelBuilding, r.Type)
	}
	assert.Len(t, ds.Wide(), 3)
}

func TestFetchYearInputValidation(t *testing.T) {
	source := &fakeSource{}
	service := newTestService(source)

	_, err := service.FetchYear(context.Background(), 1950)
	require.Error(t, err)

	var yearErr *era.ErrYearOutOfRange
	assert.ErrorAs(t, err, &yearErr)
	assert.Empty(t, source.binary, "validation failures must precede any I/O")
}

func TestFetchYearNoDataRows(t *testing.T) {
	wb := &fakeWorkbook{
		sheets: map[string][][]string{"Notes": {{"nothing here"}}},
		order:  []string{"Notes"},
	}
	source := &fakeSource{workbooks: map[int]*fakeWorkbook{2024: wb}}
	service := newTestService(source)

	_, err := service.FetchYear(context.Background(), 2024)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFetchYearBinaryFlag(t *testing.T) {
	source := &fakeSource{errs: map[int]error{2003: &fetch.RetrievalError{EndYear: 2003, Reason: "decode failure: BIFF container"}}}
	service := newTestService(source)

	_, err := service.FetchYear(context.Background(), 2003)
	require.Error(t, err, "the binary sub-format year propagates the reader's failure")
	assert.True(t, source.binary[2003], "2003 must be requested as a binary workbook")

	source2 := &fakeSource{workbooks: map[int]*fakeWorkbook{2024: testWorkbook(true)}}
	_, err = newTestService(source2).FetchYear(context.Background(), 2024)
	require.NoError(t, err)
	assert.False(t, source2.binary[2024])
}

func TestFetchYearsPartialFailure(t *testing.T) {
	source := &fakeSource{
		workbooks: map[int]*fakeWorkbook{
			2024: testWorkbook(true),
			2023: testWorkbook(true),
		},
		errs: map[int]error{
			2022: &fetch.RetrievalError{EndYear: 2022, Reason: "HTTP 503"},
		},
	}
	service := newTestService(source)

	ds, diagnostics := service.FetchYears(context.Background(), []int{2024, 2022, 2023})

	require.Len(t, diagnostics, 1)
	assert.Equal(t, 2022, diagnostics[0].EndYear)
	assert.Equal(t, "retrieval", diagnostics[0].Stage)
	assert.Contains(t, diagnostics[0].Message, "HTTP 503")

	years := make(map[int]bool)
	for _, r := range ds.Wide() {
		years[r.EndYear] = true
	}
	assert.Equal(t, map[int]bool{2023: true, 2024: true}, years)

	// Combined records arrive sorted by year.
	assert.Equal(t, 2023, ds.Wide()[0].EndYear)
	assert.Equal(t, 2024, ds.Wide()[len(ds.Wide())-1].EndYear)
}

func TestFetchYearsAllFail(t *testing.T) {
	source := &fakeSource{}
	service := newTestService(source)

	ds, diagnostics := service.FetchYears(context.Background(), []int{2024, 1950})
	assert.Empty(t, ds.Wide())
	require.Len(t, diagnostics, 2)
	assert.Equal(t, "validate", diagnostics[0].Stage) // 1950
	assert.Equal(t, "retrieval", diagnostics[1].Stage)
}

func TestAvailableYears(t *testing.T) {
	service := newTestService(&fakeSource{})
	years := service.AvailableYears()
	require.NotEmpty(t, years)
	assert.Equal(t, 1996, years[0])
	assert.Equal(t, 2025, years[len(years)-1])
}
