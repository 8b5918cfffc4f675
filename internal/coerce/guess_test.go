package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuessDateFormat(t *testing.T) {
	tests := []struct {
		name string
		vals []string
		want string
		ok   bool
	}{
		{
			name: "first position exceeds 12 so it is the day",
			vals: []string{"25/01/2023", "14/02/2023"},
			want: "d/MM/yyyy",
			ok:   true,
		},
		{
			name: "second position exceeds 12 so it is the day",
			vals: []string{"01/25/2023", "02/14/2023"},
			want: "MM/d/yyyy",
			ok:   true,
		},
		{
			name: "leading year",
			vals: []string{"2023/01/25", "2023/02/14"},
			want: "yyyy/MM/d",
			ok:   true,
		},
		{
			name: "ambiguous falls back to cardinality",
			vals: []string{"1/6/2023", "2/6/2023", "3/6/2023"},
			want: "d/M/yyyy",
			ok:   true,
		},
		{
			name: "two-digit years",
			vals: []string{"25/01/23"},
			want: "d/MM/yy",
			ok:   true,
		},
		{
			name: "mixed content rejected",
			vals: []string{"25/01/2023", "hello 7"},
		},
		{
			name: "no slash dates",
			vals: []string{"2023-01-25"},
		},
		{
			name: "digitless values ignored",
			vals: []string{"25/01/2023", "n/a"},
			want: "d/MM/yyyy",
			ok:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GuessDateFormat(tt.vals)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
