package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// suppressedCount matches the privacy-suppression markers "<10", ">95" and
// similar that the publisher substitutes for small counts.
var suppressedCount = regexp.MustCompile(`^[<>]\s*\d+$`)

// unknownMarkers are literal cell values that mean "no usable count". The
// pipeline never fails a fetch over one cell, so anything unparseable also
// lands here rather than erroring.
var unknownMarkers = map[string]bool{
	"*":    true,
	".":    true,
	"-":    true,
	"-1":   true,
	"n/a":  true,
	"na":   true,
	"null": true,
}

// Coerce converts a raw cell to a number, or nil when the cell carries a
// suppression/redaction marker or is otherwise unparseable. Thousands
// separators are stripped. Negative parsed values propagate: they are a
// data-quality signal for the validator, not coercion's job to suppress.
func Coerce(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if unknownMarkers[strings.ToLower(s)] {
		return nil
	}
	if suppressedCount.MatchString(s) {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
