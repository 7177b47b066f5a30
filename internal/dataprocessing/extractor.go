package dataprocessing

import (
	"log/slog"
	"strings"

	"mischooldata/internal/era"
	"mischooldata/pkg/contracts/domain"
)

// gradeFields pairs the wide-schema grade labels with their column-pattern keys.
var gradeFields = []struct {
	Label string
	Key   string
}{
	{"K", "grade_k"},
	{"01", "grade_01"}, {"02", "grade_02"}, {"03", "grade_03"},
	{"04", "grade_04"}, {"05", "grade_05"}, {"06", "grade_06"},
	{"07", "grade_07"}, {"08", "grade_08"}, {"09", "grade_09"},
	{"10", "grade_10"}, {"11", "grade_11"}, {"12", "grade_12"},
}

// footerMarkers identify the boilerplate lines some sheets append below the
// data rows. A row whose identifier text starts with one of these is dropped.
var footerMarkers = []string{
	"return to",
	"end of",
	"source:",
	"prepared by",
	"note:",
}

// Extractor builds wide records from raw sheets for one aggregation level.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor. A nil logger falls back to slog.Default.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractLevel produces one WideRecord per data row of the sheet. A column
// that cannot be resolved leaves the corresponding field nil for every row;
// it is never fatal to the extraction, let alone the fetch.
func (e *Extractor) ExtractLevel(sheet *domain.RawSheet, level domain.Level, profile *era.Profile, endYear int) []domain.WideRecord {
	if sheet == nil || len(sheet.Rows) == 0 {
		return nil
	}

	cols := e.resolveColumns(sheet, profile, level)

	records := make([]domain.WideRecord, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if !e.isDataRow(row, level, cols) {
			continue
		}

		rec := domain.WideRecord{EndYear: endYear, Type: level}
		if level != domain.LevelState {
			rec.DistrictID = domain.FormatCode(cellAt(row, cols, era.FieldDistrictID))
			rec.DistrictName = strings.TrimSpace(cellAt(row, cols, era.FieldDistrictName))
		}
		if level == domain.LevelBuilding {
			rec.BuildingID = domain.FormatCode(cellAt(row, cols, era.FieldBuildingID))
			rec.BuildingName = strings.TrimSpace(cellAt(row, cols, era.FieldBuildingName))
		}

		rec.RowTotal = e.fieldValue(row, era.FieldRowTotal, cols, profile)
		for _, sub := range domain.DemographicSubgroups {
			rec.SetDemographic(sub, e.demographicValue(row, sub, cols, profile))
		}
		rec.Male = e.genderValue(row, domain.SubgroupMale, cols, profile)
		rec.Female = e.genderValue(row, domain.SubgroupFemale, cols, profile)
		for _, g := range gradeFields {
			rec.SetGrade(g.Label, e.fieldValue(row, g.Key, cols, profile))
		}

		records = append(records, rec)
	}

	e.logger.Debug("level extracted",
		slog.String("sheet", sheet.Name),
		slog.String("level", string(level)),
		slog.Int("end_year", endYear),
		slog.Int("rows_in", len(sheet.Rows)),
		slog.Int("records_out", len(records)))

	return records
}

// resolveColumns maps every logical field the era declares to a header index.
// Misses are logged and simply absent from the map.
func (e *Extractor) resolveColumns(sheet *domain.RawSheet, profile *era.Profile, level domain.Level) map[string]int {
	cols := make(map[string]int, len(profile.ColumnPatterns))
	for field, patterns := range profile.ColumnPatterns {
		if _, idx, ok := ResolveColumn(sheet.Header, patterns); ok {
			cols[field] = idx
		} else {
			e.logger.Debug("column not resolved",
				slog.String("sheet", sheet.Name),
				slog.String("level", string(level)),
				slog.String("field", field))
		}
	}
	return cols
}

// isDataRow drops blank-identifier rows and sheet-footer boilerplate.
func (e *Extractor) isDataRow(row []string, level domain.Level, cols map[string]int) bool {
	id := e.primaryIdentifier(row, level, cols)
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	lower := strings.ToLower(id)
	for _, marker := range footerMarkers {
		if strings.HasPrefix(lower, marker) {
			return false
		}
	}
	return true
}

// primaryIdentifier picks the cell that decides whether a row is data: the
// building code for building sheets, the district code for district sheets,
// and the first non-empty descriptive cell for the single-row state sheet.
func (e *Extractor) primaryIdentifier(row []string, level domain.Level, cols map[string]int) string {
	switch level {
	case domain.LevelBuilding:
		if idx, ok := cols[era.FieldBuildingID]; ok {
			return cell(row, idx)
		}
	case domain.LevelDistrict:
		if idx, ok := cols[era.FieldDistrictID]; ok {
			return cell(row, idx)
		}
	case domain.LevelState:
		if idx, ok := cols[era.FieldDistrictName]; ok && strings.TrimSpace(cell(row, idx)) != "" {
			return cell(row, idx)
		}
		if idx, ok := cols[era.FieldRowTotal]; ok {
			return cell(row, idx)
		}
	}
	if len(row) > 0 {
		return row[0]
	}
	return ""
}

// fieldValue coerces the cell for a directly resolved column, nil otherwise.
func (e *Extractor) fieldValue(row []string, field string, cols map[string]int, _ *era.Profile) *float64 {
	if idx, ok := cols[field]; ok {
		return Coerce(cell(row, idx))
	}
	return nil
}

// demographicValue resolves a race/ethnicity count, falling back on the
// legacy male/female column pair when no combined column exists. Both parts
// unknown stays unknown; one known part sums with unknown-as-zero.
func (e *Extractor) demographicValue(row []string, subgroup string, cols map[string]int, profile *era.Profile) *float64 {
	if v := e.fieldValue(row, subgroup, cols, profile); v != nil {
		return v
	}
	if _, direct := cols[subgroup]; direct {
		// Column exists but the cell was suppressed; do not fabricate a sum.
		return nil
	}
	if !profile.SplitRaceByGender {
		return nil
	}
	m := e.fieldValue(row, subgroup+"_male", cols, profile)
	f := e.fieldValue(row, subgroup+"_female", cols, profile)
	return sumKnown(m, f)
}

// genderValue resolves a male/female total, falling back on summing the
// legacy per-race gender columns.
func (e *Extractor) genderValue(row []string, gender string, cols map[string]int, profile *era.Profile) *float64 {
	if v := e.fieldValue(row, gender, cols, profile); v != nil {
		return v
	}
	if _, direct := cols[gender]; direct {
		return nil
	}
	if !profile.SplitRaceByGender {
		return nil
	}
	var parts []*float64
	for _, sub := range profile.Categories {
		parts = append(parts, e.fieldValue(row, sub+"_"+gender, cols, profile))
	}
	return sumKnown(parts...)
}

// SynthesizeState builds the state aggregate by summing district records.
// Used only when the workbook carries no state sheet; unknown district values
// count as zero in this aggregation path only, so a year with partial
// suppression still yields a nonzero state total. A field unknown in every
// district stays unknown.
func SynthesizeState(districts []domain.WideRecord, endYear int) domain.WideRecord {
	state := domain.WideRecord{EndYear: endYear, Type: domain.LevelState}
	targets := state.NumericFields()
	for i, target := range targets {
		var sum float64
		known := false
		for j := range districts {
			src := *districts[j].NumericFields()[i]
			if src != nil {
				sum += *src
				known = true
			}
		}
		if known {
			v := sum
			*target = &v
		}
	}
	return state
}

func cell(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

func cellAt(row []string, cols map[string]int, field string) string {
	if idx, ok := cols[field]; ok {
		return cell(row, idx)
	}
	return ""
}

// sumKnown adds the known parts, returning nil when every part is unknown.
func sumKnown(parts ...*float64) *float64 {
	var sum float64
	known := false
	for _, p := range parts {
		if p != nil {
			sum += *p
			known = true
		}
	}
	if !known {
		return nil
	}
	return &sum
}
