package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

func TestCombineColumns_Numeric(t *testing.T) {
	e := newTestEngine(t)
	norm := []string{"a", "b"}
	ds := value.Rows(
		value.Row{value.Num(10), value.Num(4)},
		value.Row{value.Num(10), value.Num(0)},
		value.Row{value.Str("x"), value.Str("y")},
	)

	t.Run("ADD", func(t *testing.T) {
		r, err := e.combineColumnsOp(ds, norm, &plan.CombineColumnsOp{
			Columns: []string{"a", "b"}, Function: "ADD", As: "sum",
		})
		require.NoError(t, err)
		assert.Equal(t, value.Num(14), r.dataset[0][2])
		assert.Equal(t, value.Num(10), r.dataset[1][2])
		// no coercible operands at all
		assert.Equal(t, value.Null(), r.dataset[2][2])
		assert.Equal(t, []string{"sum"}, r.newColumns)
		assert.Contains(t, r.enOp, `- create a new column named "sum" by summing "a" and "b"`)
	})

	t.Run("DIV by zero yields null", func(t *testing.T) {
		r, err := e.combineColumnsOp(ds, norm, &plan.CombineColumnsOp{
			Columns: []string{"a", "b"}, Function: "DIV", As: "ratio",
		})
		require.NoError(t, err)
		assert.Equal(t, value.Num(2.5), r.dataset[0][2])
		assert.Equal(t, value.Null(), r.dataset[1][2])
	})

	t.Run("SUB_ABS", func(t *testing.T) {
		r, err := e.combineColumnsOp(ds, norm, &plan.CombineColumnsOp{
			Columns: []string{"b", "a"}, Function: "SUB_ABS", As: "gap",
		})
		require.NoError(t, err)
		assert.Equal(t, value.Num(6), r.dataset[0][2])
		assert.Contains(t, r.enOp, `subtracting "a" from "b" and computing the absolute value`)
	})
}

func TestCombineColumns_Concat(t *testing.T) {
	e := newTestEngine(t)
	ds := value.Rows(
		value.Row{value.Str("pa"), value.Num(7), value.Null()},
	)

	r, err := e.combineColumnsOp(ds, []string{"x", "y", "z"}, &plan.CombineColumnsOp{
		Columns: []string{"x", "y", "z"}, Function: "CONCAT", As: "joined",
	})
	require.NoError(t, err)
	assert.Equal(t, value.Str("pa7"), r.dataset[0][3])
}

func TestCombineColumns_Statistics(t *testing.T) {
	e := newTestEngine(t)
	norm := []string{"a", "b", "c"}
	ds := value.Rows(
		value.Row{value.Num(2), value.Num(2), value.Num(8)},
	)

	t.Run("MODE prefers most frequent", func(t *testing.T) {
		r, err := e.combineColumnsOp(ds, norm, &plan.CombineColumnsOp{
			Columns: norm, Function: "MODE", As: "m",
		})
		require.NoError(t, err)
		assert.Equal(t, value.Num(2), r.dataset[0][3])
	})

	t.Run("MEDIAN", func(t *testing.T) {
		r, err := e.combineColumnsOp(ds, norm, &plan.CombineColumnsOp{
			Columns: norm, Function: "MEDIAN", As: "m",
		})
		require.NoError(t, err)
		assert.Equal(t, value.Num(2), r.dataset[0][3])
	})

	t.Run("STDEV", func(t *testing.T) {
		r, err := e.combineColumnsOp(ds, norm, &plan.CombineColumnsOp{
			Columns: norm, Function: "STDEV", As: "m",
		})
		require.NoError(t, err)
		got, ok := r.dataset[0][3].AsNumber()
		require.True(t, ok)
		assert.InDelta(t, 3.4641, got, 0.0001)
	})
}

func TestCombineColumns_ValidationErrors(t *testing.T) {
	e := newTestEngine(t)
	norm := []string{"a", "b"}
	ds := value.Rows(value.Row{value.Num(1), value.Num(2)})

	tests := []struct {
		name string
		op   *plan.CombineColumnsOp
		want string
	}{
		{
			name: "unsupported function",
			op:   &plan.CombineColumnsOp{Columns: []string{"a", "b"}, Function: "ZIP"},
			want: "unsupported function: ZIP",
		},
		{
			name: "too few columns",
			op:   &plan.CombineColumnsOp{Columns: []string{"a"}, Function: "ADD"},
			want: "two or more columns",
		},
		{
			name: "duplicate columns",
			op:   &plan.CombineColumnsOp{Columns: []string{"a", "a"}, Function: "ADD"},
			want: "must be unique",
		},
		{
			name: "missing columns",
			op:   &plan.CombineColumnsOp{Columns: []string{"a", "nope"}, Function: "ADD"},
			want: `unable to find specified columns for column combination: "nope"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.combineColumnsOp(ds, norm, tt.op)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
