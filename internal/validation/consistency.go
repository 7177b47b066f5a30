// Package validation holds the consistency checks applied to fetched
// enrollment datasets. Checks never mutate data and never fail a fetch: they
// return findings the caller may escalate. Historical years with known
// category gaps are validated in advisory mode.
package validation

import (
	"fmt"
	"math"
	"sort"

	"mischooldata/pkg/contracts/domain"
)

// Finding is the outcome of one named check.
type Finding struct {
	Check    string
	Passed   bool
	Advisory bool
	Message  string
}

func (f Finding) String() string {
	status := "PASS"
	if !f.Passed {
		status = "FAIL"
		if f.Advisory {
			status = "WARN"
		}
	}
	return fmt.Sprintf("%s %s: %s", status, f.Check, f.Message)
}

// Band is an inclusive numeric range.
type Band struct {
	Min float64
	Max float64
}

func (b Band) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Options tunes the check set. Tolerances are caller-tunable rather than
// hardcoded: the publisher documents a persistent discrepancy of up to ~5%
// between summed district totals and the official state total, attributed to
// entities outside standard district accounting.
type Options struct {
	// AbsoluteTolerance bounds how far demographic and gender sums may drift
	// from an entity's row total.
	AbsoluteTolerance float64

	// StateSumTolerance is the relative slack allowed between the summed
	// district totals and the official state total.
	StateSumTolerance float64

	// Advisory downgrades sum-check failures to warnings, used for legacy
	// eras whose files lack some demographic categories.
	Advisory bool

	// StateTotalBand is the historically plausible statewide enrollment.
	StateTotalBand Band

	// LargeEntityID / LargeEntityBand pin a named large district's total to
	// its documented expected range.
	LargeEntityID   string
	LargeEntityBand Band

	// DistrictCountBand and BuildingCountBand are the documented historical
	// entity-count ranges.
	DistrictCountBand Band
	BuildingCountBand Band
}

// DefaultOptions returns the documented default bands and tolerances.
func DefaultOptions() Options {
	return Options{
		AbsoluteTolerance: 1500,
		StateSumTolerance: 0.05,
		StateTotalBand:    Band{Min: 1_300_000, Max: 1_500_000},
		LargeEntityID:     "82010", // Detroit
		LargeEntityBand:   Band{Min: 40_000, Max: 160_000},
		DistrictCountBand: Band{Min: 500, Max: 900},
		BuildingCountBand: Band{Min: 2500, Max: 4500},
	}
}

// RunChecks applies the full wide-format check set and returns every finding.
func RunChecks(wide []domain.WideRecord, opts Options) []Finding {
	return []Finding{
		CheckStateTotal(wide, opts),
		CheckLargeEntity(wide, opts),
		CheckDemographicSums(wide, opts),
		CheckGenderSums(wide, opts),
		CheckNonNegative(wide),
		CheckFinite(wide),
		CheckEntityCounts(wide, opts),
	}
}

// Failed filters findings down to non-advisory failures.
func Failed(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if !f.Passed && !f.Advisory {
			out = append(out, f)
		}
	}
	return out
}

// yearGroup holds one school year's slice of a dataset. The banded checks are
// defined per year; a combined multi-year batch must not pool entities across
// years, or counts double and later years hide behind the first match.
type yearGroup struct {
	endYear int
	records []domain.WideRecord
}

func groupByYear(wide []domain.WideRecord) []yearGroup {
	index := make(map[int]int)
	var groups []yearGroup
	for i := range wide {
		y := wide[i].EndYear
		j, ok := index[y]
		if !ok {
			j = len(groups)
			index[y] = j
			groups = append(groups, yearGroup{endYear: y})
		}
		groups[j].records = append(groups[j].records, wide[i])
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].endYear < groups[j].endYear })
	return groups
}

// CheckStateTotal verifies each year's state row total sits inside the
// historical band.
func CheckStateTotal(wide []domain.WideRecord, opts Options) Finding {
	f := Finding{Check: "state_total_band", Advisory: opts.Advisory}
	groups := groupByYear(wide)
	if len(groups) == 0 {
		f.Passed = false
		f.Message = "no state record with a known total"
		return f
	}
	for _, g := range groups {
		var total *float64
		for i := range g.records {
			if g.records[i].Type == domain.LevelState && g.records[i].RowTotal != nil {
				total = g.records[i].RowTotal
				break
			}
		}
		if total == nil {
			f.Passed = false
			f.Message = fmt.Sprintf("year %d: no state record with a known total", g.endYear)
			return f
		}
		if !opts.StateTotalBand.contains(*total) {
			f.Passed = false
			f.Message = fmt.Sprintf("year %d: state total %.0f, band [%.0f, %.0f]",
				g.endYear, *total, opts.StateTotalBand.Min, opts.StateTotalBand.Max)
			return f
		}
	}
	f.Passed = true
	f.Message = fmt.Sprintf("%d years inside band [%.0f, %.0f]",
		len(groups), opts.StateTotalBand.Min, opts.StateTotalBand.Max)
	return f
}

// CheckLargeEntity verifies the named large district's total against its band
// in every year it appears.
func CheckLargeEntity(wide []domain.WideRecord, opts Options) Finding {
	f := Finding{Check: "large_entity_band", Advisory: opts.Advisory}
	if opts.LargeEntityID == "" {
		f.Passed = true
		f.Message = "no large entity configured"
		return f
	}
	groups := groupByYear(wide)
	checked := 0
	for _, g := range groups {
		for i := range g.records {
			r := &g.records[i]
			if r.Type != domain.LevelDistrict || r.DistrictID != opts.LargeEntityID || r.RowTotal == nil {
				continue
			}
			checked++
			if !opts.LargeEntityBand.contains(*r.RowTotal) {
				f.Passed = false
				f.Message = fmt.Sprintf("year %d: district %s total %.0f, band [%.0f, %.0f]",
					g.endYear, opts.LargeEntityID, *r.RowTotal, opts.LargeEntityBand.Min, opts.LargeEntityBand.Max)
				return f
			}
			break
		}
	}
	// A year without the entity is a gap, not a failure.
	f.Passed = true
	if checked == 0 {
		f.Message = fmt.Sprintf("district %s not present", opts.LargeEntityID)
	} else {
		f.Message = fmt.Sprintf("district %s inside band [%.0f, %.0f] in %d years",
			opts.LargeEntityID, opts.LargeEntityBand.Min, opts.LargeEntityBand.Max, checked)
	}
	return f
}

// CheckDemographicSums verifies that per-entity demographic sums stay within
// the absolute tolerance of the row total.
func CheckDemographicSums(wide []domain.WideRecord, opts Options) Finding {
	return checkSums(wide, opts, "demographic_sum", func(w *domain.WideRecord) (float64, bool) {
		var sum float64
		known := false
		for _, sub := range domain.DemographicSubgroups {
			if v := w.Demographic(sub); v != nil {
				sum += *v
				known = true
			}
		}
		return sum, known
	})
}

// CheckGenderSums verifies male+female stays within tolerance of the row total.
func CheckGenderSums(wide []domain.WideRecord, opts Options) Finding {
	return checkSums(wide, opts, "gender_sum", func(w *domain.WideRecord) (float64, bool) {
		if w.Male == nil && w.Female == nil {
			return 0, false
		}
		var sum float64
		if w.Male != nil {
			sum += *w.Male
		}
		if w.Female != nil {
			sum += *w.Female
		}
		return sum, true
	})
}

func checkSums(wide []domain.WideRecord, opts Options, name string, sum func(*domain.WideRecord) (float64, bool)) Finding {
	f := Finding{Check: name, Advisory: opts.Advisory, Passed: true}
	checked := 0
	for i := range wide {
		w := &wide[i]
		if w.RowTotal == nil {
			continue
		}
		s, known := sum(w)
		if !known {
			continue
		}
		checked++
		if diff := math.Abs(s - *w.RowTotal); diff > opts.AbsoluteTolerance {
			f.Passed = false
			f.Message = fmt.Sprintf("entity %s/%s year %d: sum %.0f vs total %.0f (diff %.0f > tolerance %.0f)",
				w.DistrictID, w.BuildingID, w.EndYear, s, *w.RowTotal, diff, opts.AbsoluteTolerance)
			return f
		}
	}
	f.Message = fmt.Sprintf("%d entities within tolerance %.0f", checked, opts.AbsoluteTolerance)
	return f
}

// CheckNonNegative verifies no numeric field went negative.
func CheckNonNegative(wide []domain.WideRecord) Finding {
	f := Finding{Check: "non_negative", Passed: true, Message: "no negative values"}
	for i := range wide {
		for _, field := range wide[i].NumericFields() {
			if *field != nil && **field < 0 {
				f.Passed = false
				f.Message = fmt.Sprintf("negative value %.0f in entity %s/%s year %d",
					**field, wide[i].DistrictID, wide[i].BuildingID, wide[i].EndYear)
				return f
			}
		}
	}
	return f
}

// CheckFinite verifies no numeric field is NaN or infinite.
func CheckFinite(wide []domain.WideRecord) Finding {
	f := Finding{Check: "finite", Passed: true, Message: "all values finite"}
	for i := range wide {
		for _, field := range wide[i].NumericFields() {
			if *field != nil && (math.IsNaN(**field) || math.IsInf(**field, 0)) {
				f.Passed = false
				f.Message = fmt.Sprintf("non-finite value in entity %s/%s year %d",
					wide[i].DistrictID, wide[i].BuildingID, wide[i].EndYear)
				return f
			}
		}
	}
	return f
}

// CheckEntityCounts verifies each year's district and building counts against
// their documented historical ranges.
func CheckEntityCounts(wide []domain.WideRecord, opts Options) Finding {
	f := Finding{Check: "entity_counts", Advisory: opts.Advisory}
	groups := groupByYear(wide)
	for _, g := range groups {
		var districts, buildings int
		for i := range g.records {
			switch g.records[i].Type {
			case domain.LevelDistrict:
				districts++
			case domain.LevelBuilding:
				buildings++
			}
		}
		if !opts.DistrictCountBand.contains(float64(districts)) ||
			!opts.BuildingCountBand.contains(float64(buildings)) {
			f.Passed = false
			f.Message = fmt.Sprintf("year %d: %d districts (band [%.0f, %.0f]), %d buildings (band [%.0f, %.0f])",
				g.endYear, districts, opts.DistrictCountBand.Min, opts.DistrictCountBand.Max,
				buildings, opts.BuildingCountBand.Min, opts.BuildingCountBand.Max)
			return f
		}
	}
	f.Passed = true
	f.Message = fmt.Sprintf("%d years inside district band [%.0f, %.0f] and building band [%.0f, %.0f]",
		len(groups), opts.DistrictCountBand.Min, opts.DistrictCountBand.Max,
		opts.BuildingCountBand.Min, opts.BuildingCountBand.Max)
	return f
}

// CheckStateDistrictSum compares, year by year, the summed district totals
// against the official state total using the relative tolerance. Entities
// outside standard district accounting keep the two from agreeing exactly.
func CheckStateDistrictSum(wide []domain.WideRecord, opts Options) Finding {
	f := Finding{Check: "state_district_sum", Advisory: opts.Advisory}
	groups := groupByYear(wide)
	if len(groups) == 0 {
		f.Passed = false
		f.Message = "no state total to compare against"
		return f
	}
	for _, g := range groups {
		var stateTotal *float64
		var districtSum float64
		for i := range g.records {
			switch g.records[i].Type {
			case domain.LevelState:
				stateTotal = g.records[i].RowTotal
			case domain.LevelDistrict:
				if g.records[i].RowTotal != nil {
					districtSum += *g.records[i].RowTotal
				}
			}
		}
		if stateTotal == nil || *stateTotal == 0 {
			f.Passed = false
			f.Message = fmt.Sprintf("year %d: no state total to compare against", g.endYear)
			return f
		}
		rel := math.Abs(districtSum-*stateTotal) / *stateTotal
		if rel > opts.StateSumTolerance {
			f.Passed = false
			f.Message = fmt.Sprintf("year %d: district sum %.0f vs state total %.0f (relative diff %.3f, tolerance %.3f)",
				g.endYear, districtSum, *stateTotal, rel, opts.StateSumTolerance)
			return f
		}
	}
	f.Passed = true
	f.Message = fmt.Sprintf("%d years within relative tolerance %.3f", len(groups), opts.StateSumTolerance)
	return f
}

// CheckFlagExclusivity verifies every tidy record carries exactly one level
// flag and that it matches the record's type.
func CheckFlagExclusivity(tidy []domain.TidyRecord) Finding {
	f := Finding{Check: "flag_exclusivity", Passed: true, Message: "flags exclusive and consistent"}
	for i := range tidy {
		r := &tidy[i]
		set := 0
		for _, b := range []bool{r.IsState, r.IsDistrict, r.IsBuilding} {
			if b {
				set++
			}
		}
		wantState, wantDistrict, wantBuilding := r.Type.Flags()
		if set != 1 || r.IsState != wantState || r.IsDistrict != wantDistrict || r.IsBuilding != wantBuilding {
			f.Passed = false
			f.Message = fmt.Sprintf("record %d type %s has inconsistent flags", i, r.Type)
			return f
		}
	}
	return f
}
