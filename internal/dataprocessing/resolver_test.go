package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name       string
		header     []string
		candidates []string
		wantName   string
		wantIndex  int
		wantOK     bool
	}{
		{
			name:       "pattern priority beats header order",
			header:     []string{"DCODE", "District Code"},
			candidates: []string{"District Code", "DCODE"},
			wantName:   "District Code",
			wantIndex:  1,
			wantOK:     true,
		},
		{
			name:       "first pattern wins when both present",
			header:     []string{"District Code", "DCODE"},
			candidates: []string{"District Code", "DCODE"},
			wantName:   "District Code",
			wantIndex:  0,
			wantOK:     true,
		},
		{
			name:       "leftmost cell wins within one pattern",
			header:     []string{"Total Male", "Male"},
			candidates: []string{"male"},
			wantName:   "Total Male",
			wantIndex:  0,
			wantOK:     true,
		},
		{
			name:       "case insensitive",
			header:     []string{"district code"},
			candidates: []string{"DISTRICT CODE"},
			wantName:   "district code",
			wantIndex:  0,
			wantOK:     true,
		},
		{
			name:       "absence is not an error",
			header:     []string{"District Code", "Total"},
			candidates: []string{"building code", "bcode"},
			wantName:   "",
			wantIndex:  -1,
			wantOK:     false,
		},
		{
			name:       "empty header",
			header:     nil,
			candidates: []string{"anything"},
			wantName:   "",
			wantIndex:  -1,
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, idx, ok := ResolveColumn(tt.header, tt.candidates)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}
