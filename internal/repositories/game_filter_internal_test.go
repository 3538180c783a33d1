package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumericSearchValue(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"9", 9},
		{"9.5", 9.5},
		{" 12 ", 12},
		{"0", 0},
		{"banana", -1},
		{"", -1},
		{"9h", -1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, numericSearchValue(tc.raw), "raw=%q", tc.raw)
	}
}
