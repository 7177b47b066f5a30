package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Level identifies the aggregation level of an enrollment record.
type Level string

const (
	LevelState    Level = "State"
	LevelDistrict Level = "District"
	LevelBuilding Level = "Building"
)

// Valid reports whether the level is one of the known aggregation levels.
func (l Level) Valid() bool {
	switch l {
	case LevelState, LevelDistrict, LevelBuilding:
		return true
	}
	return false
}

// Flags returns the exclusive is_state/is_district/is_building triple for the level.
// Exactly one flag is true for every valid level.
func (l Level) Flags() (isState, isDistrict, isBuilding bool) {
	switch l {
	case LevelState:
		return true, false, false
	case LevelDistrict:
		return false, true, false
	case LevelBuilding:
		return false, false, true
	}
	return false, false, false
}

// Subgroup labels used in the tidy schema.
const (
	SubgroupTotal           = "total_enrollment"
	SubgroupWhite           = "white"
	SubgroupBlack           = "black"
	SubgroupHispanic        = "hispanic"
	SubgroupAsian           = "asian"
	SubgroupNativeAmerican  = "native_american"
	SubgroupPacificIslander = "pacific_islander"
	SubgroupMultiracial     = "multiracial"
	SubgroupMale            = "male"
	SubgroupFemale          = "female"
)

// DemographicSubgroups lists the race/ethnicity categories in export column order.
var DemographicSubgroups = []string{
	SubgroupWhite,
	SubgroupBlack,
	SubgroupHispanic,
	SubgroupAsian,
	SubgroupNativeAmerican,
	SubgroupPacificIslander,
	SubgroupMultiracial,
}

// GradeTotal is the grade_level label for whole-entity rows.
const GradeTotal = "TOTAL"

// GradeLevels lists the thirteen grade labels in export column order.
var GradeLevels = []string{"K", "01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"}

// RawSheet is a rectangular text grid handed over by the workbook reader.
// The header row has already been separated from the data rows; ownership is
// transient and the grid is discarded after extraction.
type RawSheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// NewRawSheet slices a raw row grid into header and data rows at the given
// header-skip depth. Returns nil when the grid has no header row at that depth.
func NewRawSheet(name string, rows [][]string, skip int) *RawSheet {
	if skip < 0 || skip >= len(rows) {
		return nil
	}
	return &RawSheet{
		Name:   name,
		Header: rows[skip],
		Rows:   rows[skip+1:],
	}
}

// WideRecord is one enrollment row per (entity, level). Counts are pointers
// because a missing or suppressed value is distinct from zero.
type WideRecord struct {
	EndYear      int      `json:"end_year" validate:"required"`
	Type         Level    `json:"type" validate:"required"`
	DistrictID   string   `json:"district_id,omitempty"`
	DistrictName string   `json:"district_name,omitempty"`
	BuildingID   string   `json:"building_id,omitempty"`
	BuildingName string   `json:"building_name,omitempty"`
	RowTotal     *float64 `json:"row_total,omitempty"`

	White           *float64 `json:"white,omitempty"`
	Black           *float64 `json:"black,omitempty"`
	Hispanic        *float64 `json:"hispanic,omitempty"`
	Asian           *float64 `json:"asian,omitempty"`
	NativeAmerican  *float64 `json:"native_american,omitempty"`
	PacificIslander *float64 `json:"pacific_islander,omitempty"`
	Multiracial     *float64 `json:"multiracial,omitempty"`

	Male   *float64 `json:"male,omitempty"`
	Female *float64 `json:"female,omitempty"`

	GradeK  *float64 `json:"grade_k,omitempty"`
	Grade01 *float64 `json:"grade_01,omitempty"`
	Grade02 *float64 `json:"grade_02,omitempty"`
	Grade03 *float64 `json:"grade_03,omitempty"`
	Grade04 *float64 `json:"grade_04,omitempty"`
	Grade05 *float64 `json:"grade_05,omitempty"`
	Grade06 *float64 `json:"grade_06,omitempty"`
	Grade07 *float64 `json:"grade_07,omitempty"`
	Grade08 *float64 `json:"grade_08,omitempty"`
	Grade09 *float64 `json:"grade_09,omitempty"`
	Grade10 *float64 `json:"grade_10,omitempty"`
	Grade11 *float64 `json:"grade_11,omitempty"`
	Grade12 *float64 `json:"grade_12,omitempty"`
}

// Demographic returns a pointer to the named race/ethnicity field, or nil for
// an unknown subgroup name.
func (w *WideRecord) Demographic(subgroup string) *float64 {
	switch subgroup {
	case SubgroupWhite:
		return w.White
	case SubgroupBlack:
		return w.Black
	case SubgroupHispanic:
		return w.Hispanic
	case SubgroupAsian:
		return w.Asian
	case SubgroupNativeAmerican:
		return w.NativeAmerican
	case SubgroupPacificIslander:
		return w.PacificIslander
	case SubgroupMultiracial:
		return w.Multiracial
	}
	return nil
}

// Grade returns the count for the given grade label ("K", "01".."12").
func (w *WideRecord) Grade(label string) *float64 {
	switch label {
	case "K":
		return w.GradeK
	case "01":
		return w.Grade01
	case "02":
		return w.Grade02
	case "03":
		return w.Grade03
	case "04":
		return w.Grade04
	case "05":
		return w.Grade05
	case "06":
		return w.Grade06
	case "07":
		return w.Grade07
	case "08":
		return w.Grade08
	case "09":
		return w.Grade09
	case "10":
		return w.Grade10
	case "11":
		return w.Grade11
	case "12":
		return w.Grade12
	}
	return nil
}

// SetGrade stores a count under the given grade label.
func (w *WideRecord) SetGrade(label string, v *float64) {
	switch label {
	case "K":
		w.GradeK = v
	case "01":
		w.Grade01 = v
	case "02":
		w.Grade02 = v
	case "03":
		w.Grade03 = v
	case "04":
		w.Grade04 = v
	case "05":
		w.Grade05 = v
	case "06":
		w.Grade06 = v
	case "07":
		w.Grade07 = v
	case "08":
		w.Grade08 = v
	case "09":
		w.Grade09 = v
	case "10":
		w.Grade10 = v
	case "11":
		w.Grade11 = v
	case "12":
		w.Grade12 = v
	}
}

// SetDemographic stores a count under the given subgroup name.
func (w *WideRecord) SetDemographic(subgroup string, v *float64) {
	switch subgroup {
	case SubgroupWhite:
		w.White = v
	case SubgroupBlack:
		w.Black = v
	case SubgroupHispanic:
		w.Hispanic = v
	case SubgroupAsian:
		w.Asian = v
	case SubgroupNativeAmerican:
		w.NativeAmerican = v
	case SubgroupPacificIslander:
		w.PacificIslander = v
	case SubgroupMultiracial:
		w.Multiracial = v
	}
}

// NumericFields returns pointers to every count field in a fixed order, used
// by the state-aggregate synthesis and the validators.
func (w *WideRecord) NumericFields() []**float64 {
	return []**float64{
		&w.RowTotal,
		&w.White, &w.Black, &w.Hispanic, &w.Asian,
		&w.NativeAmerican, &w.PacificIslander, &w.Multiracial,
		&w.Male, &w.Female,
		&w.GradeK, &w.Grade01, &w.Grade02, &w.Grade03, &w.Grade04,
		&w.Grade05, &w.Grade06, &w.Grade07, &w.Grade08, &w.Grade09,
		&w.Grade10, &w.Grade11, &w.Grade12,
	}
}

// TidyRecord is one row per (entity, subgroup, grade_level) triple.
type TidyRecord struct {
	EndYear      int      `json:"end_year"`
	Type         Level    `json:"type"`
	DistrictID   string   `json:"district_id,omitempty"`
	DistrictName string   `json:"district_name,omitempty"`
	BuildingID   string   `json:"building_id,omitempty"`
	BuildingName string   `json:"building_name,omitempty"`
	Subgroup     string   `json:"subgroup"`
	GradeLevel   string   `json:"grade_level"`
	NStudents    *float64 `json:"n_students,omitempty"`
	Pct          *float64 `json:"pct,omitempty"`
	IsState      bool     `json:"is_state"`
	IsDistrict   bool     `json:"is_district"`
	IsBuilding   bool     `json:"is_building"`
}

// Diagnostic records a per-year failure or degradation in a batch fetch.
type Diagnostic struct {
	EndYear int    `json:"end_year"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("year %d [%s]: %s", d.EndYear, d.Stage, d.Message)
}

// FormatCode normalizes a district or building code to the 5-digit zero-padded
// form. Blank, zero, and non-numeric inputs normalize to "" (absent); a code
// is never rendered as "00000".
func FormatCode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	// Spreadsheet readers hand numeric cells back as "82015.0" on occasion.
	s = strings.TrimSuffix(s, ".0")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return ""
	}
	return fmt.Sprintf("%05d", n)
}

// Float returns a pointer to v. Convenience for literal record construction.
func Float(v float64) *float64 {
	return &v
}
