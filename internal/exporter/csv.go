// Package exporter writes fetched datasets to CSV in the stable wide and
// tidy export schemas consumed downstream.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"mischooldata/internal/config"
	"mischooldata/pkg/contracts/domain"
)

// WideHeader is the persisted wide-format column order.
var WideHeader = []string{
	"end_year", "type", "district_id", "district_name", "building_id", "building_name",
	"row_total",
	"white", "black", "hispanic", "asian", "native_american", "pacific_islander", "multiracial",
	"male", "female",
	"grade_k", "grade_01", "grade_02", "grade_03", "grade_04", "grade_05", "grade_06",
	"grade_07", "grade_08", "grade_09", "grade_10", "grade_11", "grade_12",
}

// TidyHeader is the persisted tidy-format column order.
var TidyHeader = []string{
	"end_year", "type", "district_id", "district_name", "building_id", "building_name",
	"subgroup", "grade_level", "n_students", "pct",
	"is_state", "is_district", "is_building",
}

// CSVWriter exports datasets under the configured export directory.
type CSVWriter struct {
	paths  *config.PathsConfig
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer. A nil logger falls back to slog.Default.
func NewCSVWriter(paths *config.PathsConfig, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteWideCSV writes wide records to the named file in the export directory.
func (w *CSVWriter) WriteWideCSV(name string, records []domain.WideRecord) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, wideRow(&records[i]))
	}
	return w.write(name, WideHeader, rows)
}

// WriteTidyCSV writes tidy records to the named file in the export directory.
func (w *CSVWriter) WriteTidyCSV(name string, records []domain.TidyRecord) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, tidyRow(&records[i]))
	}
	return w.write(name, TidyHeader, rows)
}

func (w *CSVWriter) write(name string, header []string, rows [][]string) error {
	fullPath := w.paths.ExportPath(name)

	w.logger.Info("writing CSV export",
		slog.String("path", fullPath),
		slog.Int("record_count", len(rows)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// UTF-8 BOM so Excel opens the export cleanly.
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return writer.Error()
}

func wideRow(r *domain.WideRecord) []string {
	row := []string{
		strconv.Itoa(r.EndYear),
		string(r.Type),
		r.DistrictID,
		r.DistrictName,
		r.BuildingID,
		r.BuildingName,
		formatCount(r.RowTotal),
	}
	for _, sub := range domain.DemographicSubgroups {
		row = append(row, formatCount(r.Demographic(sub)))
	}
	row = append(row, formatCount(r.Male), formatCount(r.Female))
	for _, label := range domain.GradeLevels {
		row = append(row, formatCount(r.Grade(label)))
	}
	return row
}

func tidyRow(r *domain.TidyRecord) []string {
	return []string{
		strconv.Itoa(r.EndYear),
		string(r.Type),
		r.DistrictID,
		r.DistrictName,
		r.BuildingID,
		r.BuildingName,
		r.Subgroup,
		r.GradeLevel,
		formatCount(r.NStudents),
		formatPct(r.Pct),
		strconv.FormatBool(r.IsState),
		strconv.FormatBool(r.IsDistrict),
		strconv.FormatBool(r.IsBuilding),
	}
}

// formatCount renders a nullable count: empty for unknown, integer form for
// whole values.
func formatCount(v *float64) string {
	if v == nil {
		return ""
	}
	if *v == float64(int64(*v)) {
		return strconv.FormatInt(int64(*v), 10)
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatPct(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
