// Package dataprocessing turns raw spreadsheet grids into the normalized wide
// and tidy enrollment schemas. The publisher never standardized column names
// across thirty years of files, so every field is located by trying an
// ordered list of candidate patterns against the header row.
package dataprocessing

import (
	"mischooldata/internal/era"
)

// ResolveColumn finds the first header cell matched by the ordered candidate
// patterns. Patterns are tried in priority order; the first pattern with any
// match wins, and within that pattern the leftmost matching cell wins.
// Matching is case-insensitive. A miss returns ok=false, never an error:
// callers treat the field as entirely missing for the dataset, not as zero.
func ResolveColumn(header []string, candidates []string) (name string, index int, ok bool) {
	for _, pattern := range candidates {
		for i, cell := range header {
			if era.Matches(cell, pattern) {
				return cell, i, true
			}
		}
	}
	return "", -1, false
}
