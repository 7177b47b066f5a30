package era

import "mischooldata/pkg/contracts/domain"

// The dialect tables below transcribe column spellings observed across the
// published files. Order within each list is match priority.

var modernColumns = map[string][]string{
	FieldDistrictID:   {"district code", "dcode"},
	FieldDistrictName: {"district official name", "district name"},
	FieldBuildingID:   {"building code", "bcode"},
	FieldBuildingName: {"building official name", "building name"},
	FieldRowTotal:     {"total enrollment", "total of all students"},

	domain.SubgroupWhite:           {"white"},
	domain.SubgroupBlack:           {"black or african american", "african american", "black"},
	domain.SubgroupHispanic:        {"hispanic or latino", "hispanic"},
	domain.SubgroupAsian:           {"asian"},
	domain.SubgroupNativeAmerican:  {"american indian or alaska native", "american indian", "native american"},
	domain.SubgroupPacificIslander: {"native hawaiian or other pacific islander", "pacific islander", "hawaiian"},
	domain.SubgroupMultiracial:     {"two or more races", "multiracial", "multi-racial"},

	domain.SubgroupMale:   {"male"},
	domain.SubgroupFemale: {"female"},

	"grade_k":  {"kindergarten", "grade k", "kdg"},
	"grade_01": {"grade 1", "1st grade"},
	"grade_02": {"grade 2", "2nd grade"},
	"grade_03": {"grade 3", "3rd grade"},
	"grade_04": {"grade 4", "4th grade"},
	"grade_05": {"grade 5", "5th grade"},
	"grade_06": {"grade 6", "6th grade"},
	"grade_07": {"grade 7", "7th grade"},
	"grade_08": {"grade 8", "8th grade"},
	"grade_09": {"grade 9", "9th grade"},
	"grade_10": {"grade 10", "10th grade"},
	"grade_11": {"grade 11", "11th grade"},
	"grade_12": {"grade 12", "12th grade"},
}

var transitionColumns = map[string][]string{
	FieldDistrictID:   {"district code", "dcode", "dist code"},
	FieldDistrictName: {"district name", "dname"},
	FieldBuildingID:   {"building code", "bcode", "bldg code"},
	FieldBuildingName: {"building name", "bname"},
	FieldRowTotal:     {"total enrollment", "all students", "total students"},

	domain.SubgroupWhite:           {"white"},
	domain.SubgroupBlack:           {"black", "african american"},
	domain.SubgroupHispanic:        {"hispanic"},
	domain.SubgroupAsian:           {"asian", "asian or pacific islander"},
	domain.SubgroupNativeAmerican:  {"american indian", "native american"},
	domain.SubgroupPacificIslander: {"hawaiian", "pacific islander"},
	domain.SubgroupMultiracial:     {"two or more races", "multiracial"},

	domain.SubgroupMale:   {"male", "males", "total male"},
	domain.SubgroupFemale: {"female", "females", "total female"},

	"grade_k":  {"kdg", "kindergarten", "grade k"},
	"grade_01": {"grade 1", "gr 1"},
	"grade_02": {"grade 2", "gr 2"},
	"grade_03": {"grade 3", "gr 3"},
	"grade_04": {"grade 4", "gr 4"},
	"grade_05": {"grade 5", "gr 5"},
	"grade_06": {"grade 6", "gr 6"},
	"grade_07": {"grade 7", "gr 7"},
	"grade_08": {"grade 8", "gr 8"},
	"grade_09": {"grade 9", "gr 9"},
	"grade_10": {"grade 10", "gr 10"},
	"grade_11": {"grade 11", "gr 11"},
	"grade_12": {"grade 12", "gr 12"},
}

// The legacy files publish race counts only as male/female column pairs; the
// combined spellings are listed first so a file that does carry them still
// resolves directly, with the split pair as the extractor's fallback.
var legacyColumns = map[string][]string{
	FieldDistrictID:   {"dcode", "district code", "dist"},
	FieldDistrictName: {"dname", "district name"},
	FieldBuildingID:   {"bcode", "building code", "bldg"},
	FieldBuildingName: {"bname", "building name"},
	// No bare "total" candidate: it would word-match the "Total Male" and
	// "Total Female" gender columns in files lacking a combined total.
	FieldRowTotal:     {"k-12 total", "grand total", "total enrollment", "total students"},

	domain.SubgroupWhite:          {"white total"},
	domain.SubgroupBlack:          {"black total"},
	domain.SubgroupHispanic:       {"hispanic total"},
	domain.SubgroupAsian:          {"asian total"},
	domain.SubgroupNativeAmerican: {"am indian total", "american indian total"},

	"white_male":             {"white male", "wht male"},
	"white_female":           {"white female", "wht female"},
	"black_male":             {"black male", "blk male"},
	"black_female":           {"black female", "blk female"},
	"hispanic_male":          {"hispanic male", "hisp male"},
	"hispanic_female":        {"hispanic female", "hisp female"},
	"asian_male":             {"asian male"},
	"asian_female":           {"asian female"},
	"native_american_male":   {"am indian male", "american indian male", "indian male"},
	"native_american_female": {"am indian female", "american indian female", "indian female"},

	domain.SubgroupMale:   {"total male", "male total"},
	domain.SubgroupFemale: {"total female", "female total"},

	"grade_k":  {"kdg", "kindergarten"},
	"grade_01": {"gr 1", "grade 1"},
	"grade_02": {"gr 2", "grade 2"},
	"grade_03": {"gr 3", "grade 3"},
	"grade_04": {"gr 4", "grade 4"},
	"grade_05": {"gr 5", "grade 5"},
	"grade_06": {"gr 6", "grade 6"},
	"grade_07": {"gr 7", "grade 7"},
	"grade_08": {"gr 8", "grade 8"},
	"grade_09": {"gr 9", "grade 9"},
	"grade_10": {"gr 10", "grade 10"},
	"grade_11": {"gr 11", "grade 11"},
	"grade_12": {"gr 12", "grade 12"},
}

var defaultTable = Table{
	{
		Name:       "legacy",
		StartYear:  1996,
		EndYear:    2002,
		HeaderSkip: 3,
		SheetPatterns: map[domain.Level][]string{
			domain.LevelState:    {"state", "statewide", "michigan"},
			domain.LevelDistrict: {"district", "districts", "dist"},
			domain.LevelBuilding: {"building", "buildings", "school", "bldg"},
		},
		ColumnPatterns:    legacyColumns,
		SplitRaceByGender: true,
		Categories: []string{
			domain.SubgroupWhite, domain.SubgroupBlack, domain.SubgroupHispanic,
			domain.SubgroupAsian, domain.SubgroupNativeAmerican,
		},
		LooseTolerance: true,
	},
	{
		Name:        "transition",
		StartYear:   2003,
		EndYear:     2013,
		HeaderSkip:  0,
		BinaryYears: []int{2003},
		SheetPatterns: map[domain.Level][]string{
			domain.LevelState:    {"state", "statewide"},
			domain.LevelDistrict: {"district", "districts"},
			domain.LevelBuilding: {"building", "buildings", "school"},
		},
		ColumnPatterns: transitionColumns,
		Categories: []string{
			domain.SubgroupWhite, domain.SubgroupBlack, domain.SubgroupHispanic,
			domain.SubgroupAsian, domain.SubgroupNativeAmerican,
			domain.SubgroupPacificIslander, domain.SubgroupMultiracial,
		},
	},
	{
		Name:       "modern",
		StartYear:  2014,
		EndYear:    2025,
		HeaderSkip: 0,
		SheetPatterns: map[domain.Level][]string{
			domain.LevelState:    {"state", "statewide"},
			domain.LevelDistrict: {"district", "districts"},
			domain.LevelBuilding: {"building", "buildings", "school"},
		},
		ColumnPatterns: modernColumns,
		Categories: []string{
			domain.SubgroupWhite, domain.SubgroupBlack, domain.SubgroupHispanic,
			domain.SubgroupAsian, domain.SubgroupNativeAmerican,
			domain.SubgroupPacificIslander, domain.SubgroupMultiracial,
		},
	},
}

// Default returns the built-in era table. The table is constructed once and
// treated as immutable; callers needing synthetic eras for tests build their
// own Table instead of mutating this one.
func Default() Table {
	return defaultTable
}
