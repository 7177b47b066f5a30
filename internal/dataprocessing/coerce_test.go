package dataprocessing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{name: "plain integer", raw: "50", want: f(50)},
		{name: "thousands separator", raw: "1,234", want: f(1234)},
		{name: "large separated", raw: "1,368,500", want: f(1368500)},
		{name: "decimal", raw: "12.5", want: f(12.5)},
		{name: "leading whitespace", raw: "  42", want: f(42)},
		{name: "empty", raw: "", want: nil},
		{name: "whitespace only", raw: "   ", want: nil},
		{name: "asterisk suppression", raw: "*", want: nil},
		{name: "dot marker", raw: ".", want: nil},
		{name: "dash marker", raw: "-", want: nil},
		{name: "minus one marker", raw: "-1", want: nil},
		{name: "small count suppressed low", raw: "<10", want: nil},
		{name: "small count suppressed high", raw: ">95", want: nil},
		{name: "suppressed with space", raw: "< 10", want: nil},
		{name: "na", raw: "N/A", want: nil},
		{name: "na lowercase", raw: "n/a", want: nil},
		{name: "na bare", raw: "NA", want: nil},
		{name: "null literal", raw: "NULL", want: nil},
		{name: "free text", raw: "suppressed", want: nil},
		{name: "nan text", raw: "NaN", want: nil},
		{name: "negative propagates", raw: "-12", want: f(-12)},
		{name: "zero is a value not a marker", raw: "0", want: f(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestCoerceIdempotent(t *testing.T) {
	for _, raw := range []string{"50", "1,234", "0", "12.5", "-12"} {
		first := Coerce(raw)
		require.NotNil(t, first, "raw %q", raw)

		second := Coerce(strconv.FormatFloat(*first, 'f', -1, 64))
		require.NotNil(t, second, "raw %q", raw)
		assert.Equal(t, *first, *second, "raw %q", raw)
	}
}

func f(v float64) *float64 {
	return &v
}
