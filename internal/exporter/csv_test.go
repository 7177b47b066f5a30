package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mischooldata/internal/config"
	"mischooldata/pkg/contracts/domain"
)

func f(v float64) *float64 {
	return &v
}

func testWriter(t *testing.T) (*CSVWriter, *config.PathsConfig) {
	t.Helper()
	paths := &config.PathsConfig{ExportDir: t.TempDir()}
	return NewCSVWriter(paths, nil), paths
}

func readExport(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(string(data), "\xef\xbb\xbf"), "export must start with a UTF-8 BOM")

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\xef\xbb\xbf"))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteWideCSV(t *testing.T) {
	writer, paths := testWriter(t)

	records := []domain.WideRecord{
		{
			EndYear: 2024, Type: domain.LevelDistrict,
			DistrictID: "82010", DistrictName: "Detroit Public Schools",
			RowTotal: f(48000), Black: f(38000), GradeK: f(3500),
		},
		{
			EndYear: 2024, Type: domain.LevelState,
			RowTotal: f(1400000),
		},
	}

	require.NoError(t, writer.WriteWideCSV("wide.csv", records))
	rows := readExport(t, paths.ExportPath("wide.csv"))

	require.Len(t, rows, 3)
	assert.Equal(t, WideHeader, rows[0])
	require.Len(t, rows[1], len(WideHeader))

	detroit := rows[1]
	assert.Equal(t, "2024", detroit[0])
	assert.Equal(t, "District", detroit[1])
	assert.Equal(t, "82010", detroit[2])
	assert.Equal(t, "48000", detroit[6], "whole counts render without a decimal point")
	assert.Equal(t, "", detroit[7], "unknown counts render as empty cells")
	assert.Equal(t, "38000", detroit[8])
	assert.Equal(t, "3500", detroit[16])

	state := rows[2]
	assert.Equal(t, "State", state[1])
	assert.Equal(t, "", state[2])
	assert.Equal(t, "1400000", state[6])
}

func TestWriteTidyCSV(t *testing.T) {
	writer, paths := testWriter(t)

	records := []domain.TidyRecord{
		{
			EndYear: 2024, Type: domain.LevelDistrict,
			DistrictID: "82010", DistrictName: "Detroit Public Schools",
			Subgroup: "black", GradeLevel: domain.GradeTotal,
			NStudents: f(38000), Pct: f(0.791667),
			IsDistrict: true,
		},
		{
			EndYear: 2024, Type: domain.LevelDistrict,
			DistrictID: "82010", DistrictName: "Detroit Public Schools",
			Subgroup: "multiracial", GradeLevel: domain.GradeTotal,
			IsDistrict: true,
		},
	}

	require.NoError(t, writer.WriteTidyCSV("tidy.csv", records))
	rows := readExport(t, paths.ExportPath("tidy.csv"))

	require.Len(t, rows, 3)
	assert.Equal(t, TidyHeader, rows[0])

	black := rows[1]
	assert.Equal(t, "black", black[6])
	assert.Equal(t, "TOTAL", black[7])
	assert.Equal(t, "38000", black[8])
	assert.Equal(t, "0.791667", black[9])
	assert.Equal(t, "false", black[10])
	assert.Equal(t, "true", black[11])
	assert.Equal(t, "false", black[12])

	unknown := rows[2]
	assert.Equal(t, "", unknown[8])
	assert.Equal(t, "", unknown[9])
}

func TestWriteCreatesExportDir(t *testing.T) {
	paths := &config.PathsConfig{ExportDir: filepath.Join(t.TempDir(), "nested", "exports")}
	writer := NewCSVWriter(paths, nil)

	require.NoError(t, writer.WriteWideCSV("wide.csv", nil))

	rows := readExport(t, paths.ExportPath("wide.csv"))
	require.Len(t, rows, 1, "empty dataset still writes the header")
	assert.Equal(t, WideHeader, rows[0])
}
