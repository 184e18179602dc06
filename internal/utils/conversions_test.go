package utils_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/device-auth-server/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"float64", float64(1700000000), 1700000000, true},
		{"fractional", 1.5, 0, false},
		{"2^63 overflows", float64(1 << 63), 0, false},
		{"below min int64", -float64(1<<63) * 2, 0, false},
		{"int", 42, 42, true},
		{"int64", int64(-7), -7, true},
		{"json number", json.Number("900"), 900, true},
		{"bad json number", json.Number("9e"), 0, false},
		{"string", "900", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := utils.ToInt64(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
