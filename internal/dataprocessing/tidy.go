package dataprocessing

import (
	"mischooldata/pkg/contracts/domain"
)

// RowsPerWideRecord is the fixed tidy fan-out: total_enrollment, seven
// demographic subgroups, male and female at grade TOTAL, plus the thirteen
// grade rows under total_enrollment. Callers rely on exact counts when
// testing round-trip fidelity.
const RowsPerWideRecord = 10 + 13

// Tidy pivots wide records into the long format, one row per
// (entity, subgroup, grade_level). Transformations never mutate their input;
// the result is a fresh record set.
func Tidy(wide []domain.WideRecord) []domain.TidyRecord {
	out := make([]domain.TidyRecord, 0, len(wide)*RowsPerWideRecord)
	for i := range wide {
		out = append(out, tidyOne(&wide[i])...)
	}
	return out
}

func tidyOne(w *domain.WideRecord) []domain.TidyRecord {
	isState, isDistrict, isBuilding := w.Type.Flags()
	base := domain.TidyRecord{
		EndYear:      w.EndYear,
		Type:         w.Type,
		DistrictID:   w.DistrictID,
		DistrictName: w.DistrictName,
		BuildingID:   w.BuildingID,
		BuildingName: w.BuildingName,
		IsState:      isState,
		IsDistrict:   isDistrict,
		IsBuilding:   isBuilding,
	}

	emit := func(subgroup, gradeLevel string, n *float64) domain.TidyRecord {
		rec := base
		rec.Subgroup = subgroup
		rec.GradeLevel = gradeLevel
		rec.NStudents = copyCount(n)
		rec.Pct = pct(n, w.RowTotal)
		return rec
	}

	rows := make([]domain.TidyRecord, 0, RowsPerWideRecord)
	rows = append(rows, emit(domain.SubgroupTotal, domain.GradeTotal, w.RowTotal))
	for _, sub := range domain.DemographicSubgroups {
		rows = append(rows, emit(sub, domain.GradeTotal, w.Demographic(sub)))
	}
	rows = append(rows, emit(domain.SubgroupMale, domain.GradeTotal, w.Male))
	rows = append(rows, emit(domain.SubgroupFemale, domain.GradeTotal, w.Female))
	for _, label := range domain.GradeLevels {
		rows = append(rows, emit(domain.SubgroupTotal, label, w.Grade(label)))
	}
	return rows
}

// pct computes n/total, nil when either side is unknown or the denominator
// is zero.
func pct(n, total *float64) *float64 {
	if n == nil || total == nil || *total == 0 {
		return nil
	}
	v := *n / *total
	return &v
}

func copyCount(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
