// Package era holds the file-format era table for the state's published
// enrollment workbooks and the logic that picks parsing parameters for a
// requested school year. The table encodes discovered facts about the
// published files (header depths, sheet and column naming dialects), not an
// algorithm; new eras are added as data.
package era

import (
	"fmt"
	"strings"

	"mischooldata/pkg/contracts/domain"
)

// Logical field keys used by the column-pattern dialect tables. These match
// the wide export schema; the *_male/*_female keys exist only for the legacy
// split-by-gender fallback.
const (
	FieldDistrictID   = "district_id"
	FieldDistrictName = "district_name"
	FieldBuildingID   = "building_id"
	FieldBuildingName = "building_name"
	FieldRowTotal     = "row_total"
)

// Profile is the immutable parsing configuration for one era. Looked up by
// year, never mutated.
type Profile struct {
	Name      string
	StartYear int
	EndYear   int

	// HeaderSkip is the number of banner rows above the header row.
	HeaderSkip int

	// BinaryYears lists years inside this era published in the legacy BIFF
	// (.xls) container instead of OOXML. The workbook reader either handles
	// them or its failure surfaces as a retrieval diagnostic.
	BinaryYears []int

	// SheetPatterns holds ordered candidate sheet-name patterns per level.
	SheetPatterns map[domain.Level][]string

	// ColumnPatterns holds ordered candidate header patterns per logical field.
	ColumnPatterns map[string][]string

	// SplitRaceByGender marks eras that publish race counts only as separate
	// male/female column pairs.
	SplitRaceByGender bool

	// Categories lists the demographic subgroups the era's files carry at all.
	Categories []string

	// LooseTolerance marks eras whose incomplete category sets make the
	// sum-to-total invariants advisory.
	LooseTolerance bool
}

// Contains reports whether the year falls inside the era's range.
func (p *Profile) Contains(endYear int) bool {
	return endYear >= p.StartYear && endYear <= p.EndYear
}

// IsBinaryYear reports whether the year uses the BIFF sub-format.
func (p *Profile) IsBinaryYear(endYear int) bool {
	for _, y := range p.BinaryYears {
		if y == endYear {
			return true
		}
	}
	return false
}

// HasCategory reports whether the era's files carry the given subgroup.
func (p *Profile) HasCategory(subgroup string) bool {
	for _, c := range p.Categories {
		if c == subgroup {
			return true
		}
	}
	return false
}

// Table is an ordered, immutable set of era profiles.
type Table []Profile

// ErrYearOutOfRange is returned when a requested year is covered by no era.
type ErrYearOutOfRange struct {
	EndYear int
	Min     int
	Max     int
}

func (e *ErrYearOutOfRange) Error() string {
	return fmt.Sprintf("end year %d outside supported range %d-%d", e.EndYear, e.Min, e.Max)
}

// Classify returns the era profile covering the given end year.
func (t Table) Classify(endYear int) (*Profile, error) {
	for i := range t {
		if t[i].Contains(endYear) {
			return &t[i], nil
		}
	}
	min, max := t.Span()
	return nil, &ErrYearOutOfRange{EndYear: endYear, Min: min, Max: max}
}

// Span returns the lowest and highest year covered by any era in the table.
func (t Table) Span() (min, max int) {
	for _, p := range t {
		if min == 0 || p.StartYear < min {
			min = p.StartYear
		}
		if p.EndYear > max {
			max = p.EndYear
		}
	}
	return min, max
}

// Years returns every year covered by the table, ascending.
func (t Table) Years() []int {
	min, max := t.Span()
	years := make([]int, 0, max-min+1)
	for y := min; y <= max; y++ {
		if _, err := t.Classify(y); err == nil {
			years = append(years, y)
		}
	}
	return years
}

// normalize lowercases a cell and collapses runs of whitespace, so pattern
// matching is insensitive to case and spacing drift between files.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matches reports whether the candidate pattern matches the cell: equal after
// normalization, or the pattern's words appear as a contiguous word sequence
// inside the cell. Word-wise matching keeps "male" from matching "Female".
func matches(cell, pattern string) bool {
	c := normalize(cell)
	p := normalize(pattern)
	if p == "" {
		return false
	}
	if c == p {
		return true
	}
	cw := strings.Fields(c)
	pw := strings.Fields(p)
	if len(pw) > len(cw) {
		return false
	}
	for i := 0; i+len(pw) <= len(cw); i++ {
		ok := true
		for j := range pw {
			if cw[i+j] != pw[j] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// FindSheet returns the first available sheet name matched by the ordered
// candidate patterns. Pattern order is priority order; within one pattern the
// first matching name wins. Absence is not an error.
func FindSheet(available []string, patterns []string) (string, bool) {
	for _, pat := range patterns {
		for _, name := range available {
			if matches(name, pat) {
				return name, true
			}
		}
	}
	return "", false
}

// Matches exposes the pattern predicate for the column resolver.
func Matches(cell, pattern string) bool {
	return matches(cell, pattern)
}

// fieldNamePatterns are header spellings that identify a row as the header
// row when probing for skip depth.
var fieldNamePatterns = []string{
	"district code", "dcode", "district", "isd code", "building code", "bcode",
}

func rowLooksLikeHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	for _, pat := range fieldNamePatterns {
		if matches(row[0], pat) {
			return true
		}
	}
	return false
}

// DetectHeaderSkip probes a raw row grid for the header row. The era table's
// declared skip is the primary signal; this probe corroborates it when a
// specific file does not match its era. Only the two observed depths (0 and 3)
// are considered; anything else defaults to 0.
func DetectHeaderSkip(rows [][]string) int {
	if len(rows) > 0 && rowLooksLikeHeader(rows[0]) {
		return 0
	}
	if len(rows) > 3 && rowLooksLikeHeader(rows[3]) {
		return 3
	}
	return 0
}

// ResolveSkip reconciles the era's declared skip with the probe for one file.
// The declared depth stands when it lands on a plausible header row; otherwise
// the probe's answer is used.
func ResolveSkip(rows [][]string, declared int) int {
	if declared >= 0 && declared < len(rows) && rowLooksLikeHeader(rows[declared]) {
		return declared
	}
	return DetectHeaderSkip(rows)
}
