package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

func TestMapColumn_Round(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(value.Num(3.14159), value.Null(), value.Str("2.5"))

	r, err := e.mapColumnOp(ds, []string{"n"}, &plan.MapColumnOp{
		Column: "n", Function: "ROUND", FunctionArg: value.Num(2),
	})
	require.NoError(t, err)

	assert.Equal(t, []value.Value{value.Num(3.14), value.Null(), value.Num(2.5)}, column(r.dataset, 0))
	assert.Empty(t, r.newColumns)
	assert.Contains(t, r.enOp, `- overwrite the "n" column by rounding each value to 2 decimal places`)
}

func TestMapColumn_AsCreatesNewColumn(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(value.Num(2))

	r, err := e.mapColumnOp(ds, []string{"n"}, &plan.MapColumnOp{
		Column: "n", Function: "POW", FunctionArg: value.Num(3), As: "cubed",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"cubed"}, r.newColumns)
	require.Len(t, r.dataset[0], 2)
	assert.Equal(t, value.Num(8), r.dataset[0][1])
	assert.Contains(t, r.enOp, `- create a new column named "cubed" by raising the values in "n" to the power of 3`)
}

func TestMapColumn_NumericArgFromColumn(t *testing.T) {
	e := newTestEngine(t)
	ds := value.Rows(
		value.Row{value.Num(10), value.Num(2)},
		value.Row{value.Num(9), value.Num(0)},
	)

	r, err := e.mapColumnOp(ds, []string{"total", "parts"}, &plan.MapColumnOp{
		Column: "total", Function: "DIV", FunctionArg: value.Str("parts"),
	})
	require.NoError(t, err)

	assert.Equal(t, value.Num(5), r.dataset[0][0])
	assert.Equal(t, value.Null(), r.dataset[1][0]) // divide by zero
}

func TestMapColumn_Len(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(
		value.Str("héllo"),
		value.Str("née"),
		value.Array([]value.Value{value.Num(1), value.Num(2), value.Num(3)}),
	)

	r, err := e.mapColumnOp(ds, []string{"v"}, &plan.MapColumnOp{Column: "v", Function: "LEN"})
	require.NoError(t, err)

	assert.Equal(t, []value.Value{value.Num(5), value.Num(3), value.Num(3)}, column(r.dataset, 0))
}

func TestMapColumn_Casing(t *testing.T) {
	e := newTestEngine(t)

	t.Run("scalars", func(t *testing.T) {
		ds := singleColumn(value.Str("MiXeD"))
		r, err := e.mapColumnOp(ds, []string{"v"}, &plan.MapColumnOp{Column: "v", Function: "LCASE"})
		require.NoError(t, err)
		assert.Equal(t, value.Str("mixed"), r.dataset[0][0])
	})

	t.Run("string arrays", func(t *testing.T) {
		ds := singleColumn(value.Array([]value.Value{value.Str("a"), value.Str("b")}))
		r, err := e.mapColumnOp(ds, []string{"v"}, &plan.MapColumnOp{Column: "v", Function: "UCASE"})
		require.NoError(t, err)
		assert.Equal(t, value.Array([]value.Value{value.Str("A"), value.Str("B")}), r.dataset[0][0])
		assert.Empty(t, r.warnings)
	})

	t.Run("mixed arrays warn and pass through", func(t *testing.T) {
		mixed := value.Array([]value.Value{value.Str("a"), value.Num(1)})
		ds := singleColumn(mixed, mixed)
		r, err := e.mapColumnOp(ds, []string{"v"}, &plan.MapColumnOp{Column: "v", Function: "UCASE"})
		require.NoError(t, err)
		assert.Equal(t, mixed, r.dataset[0][0])
		require.Len(t, r.warnings, 1) // deduplicated across rows
		assert.Contains(t, r.warnings[0], "non-string array values")
	})
}

func TestMapColumn_Coalesce(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(value.Null(), value.Str("kept"), value.Num(0))

	r, err := e.mapColumnOp(ds, []string{"v"}, &plan.MapColumnOp{
		Column: "v", Function: "COALESCE", FunctionArg: value.Str("fallback"),
	})
	require.NoError(t, err)

	assert.Equal(t, []value.Value{
		value.Str("fallback"), value.Str("kept"), value.Num(0),
	}, column(r.dataset, 0))
}

func TestMapColumn_NumericArrays(t *testing.T) {
	e := newTestEngine(t)
	arr := value.Array([]value.Value{value.Num(1), value.Num(2), value.Num(3), value.Num(4)})

	tests := []struct {
		fn   string
		want value.Value
	}{
		{"AVG", value.Num(2.5)},
		{"SUM", value.Num(10)},
		{"MIN", value.Num(1)},
		{"MAX", value.Num(4)},
		{"MEDIAN", value.Num(2.5)},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			r, err := e.mapColumnOp(singleColumn(arr), []string{"v"}, &plan.MapColumnOp{Column: "v", Function: tt.fn})
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.dataset[0][0])
		})
	}

	t.Run("elementwise with argument", func(t *testing.T) {
		r, err := e.mapColumnOp(singleColumn(arr), []string{"v"}, &plan.MapColumnOp{
			Column: "v", Function: "MUL", FunctionArg: value.Num(10),
		})
		require.NoError(t, err)
		assert.Equal(t, value.Array([]value.Value{
			value.Num(10), value.Num(20), value.Num(30), value.Num(40),
		}), r.dataset[0][0])
	})

	t.Run("non-numeric array rejects numeric functions", func(t *testing.T) {
		ds := singleColumn(value.Array([]value.Value{value.Str("x")}))
		_, err := e.mapColumnOp(ds, []string{"v"}, &plan.MapColumnOp{Column: "v", Function: "SUM"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-numeric")
	})
}

func TestMapColumn_UncoercibleScalarWarns(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(value.Str("many"))

	r, err := e.mapColumnOp(ds, []string{"v"}, &plan.MapColumnOp{Column: "v", Function: "ABS"})
	require.NoError(t, err)

	assert.Equal(t, value.Null(), r.dataset[0][0])
	require.Len(t, r.warnings, 1)
	assert.Contains(t, r.warnings[0], "Unable to convert some values to number")
}

func TestMapColumn_ValidationErrors(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(value.Num(1))

	tests := []struct {
		name string
		op   *plan.MapColumnOp
		want string
	}{
		{
			name: "missing column",
			op:   &plan.MapColumnOp{Column: "other", Function: "ABS"},
			want: "column does not exist",
		},
		{
			name: "unsupported function",
			op:   &plan.MapColumnOp{Column: "v", Function: "REVERSE"},
			want: "unsupported function: REVERSE",
		},
		{
			name: "date formatting hint",
			op:   &plan.MapColumnOp{Column: "v", Function: "DATE_FORMAT"},
			want: "use the formatDates operation instead",
		},
		{
			name: "missing numeric argument",
			op:   &plan.MapColumnOp{Column: "v", Function: "ADD"},
			want: "missing function argument for ADD",
		},
		{
			name: "argument neither literal nor column",
			op:   &plan.MapColumnOp{Column: "v", Function: "ADD", FunctionArg: value.Str("bogus")},
			want: `expected a number literal or column name, got "bogus"`,
		},
		{
			name: "missing coalesce argument",
			op:   &plan.MapColumnOp{Column: "v", Function: "COALESCE"},
			want: "missing function argument for COALESCE",
		},
		{
			name: "aggregation-only function on scalars",
			op:   &plan.MapColumnOp{Column: "v", Function: "AVG"},
			want: "perhaps use an aggregation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.mapColumnOp(ds, []string{"v"}, tt.op)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
