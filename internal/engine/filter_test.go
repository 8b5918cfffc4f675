package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

func cmpCond(c plan.Comparison) *plan.Condition {
	return &plan.Condition{Comparison: &c}
}

func TestFilter_NumberComparison(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cmpCond(plan.Comparison{
		Column:       "age",
		Operator:     ">",
		DataType:     "number",
		CompareTo:    value.Num(30),
		CompareToSet: true,
	})})
	require.NoError(t, err)

	require.Len(t, r.dataset, 1)
	assert.Equal(t, value.Str("Bob"), r.dataset[0][0])
	assert.Contains(t, r.enOp, "filter rows to those that satisfy the following conditions")
	assert.Contains(t, r.enOp, `"age" > 30`)
}

func TestFilter_StringOperators(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	t.Run("contains is normalization-insensitive", func(t *testing.T) {
		r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cmpCond(plan.Comparison{
			Column:       "name",
			Operator:     "contains",
			CompareTo:    value.Str("LI"),
			CompareToSet: true,
		})})
		require.NoError(t, err)
		require.Len(t, r.dataset, 1)
		assert.Equal(t, value.Str("Alice"), r.dataset[0][0])
	})

	t.Run("negated startsWith", func(t *testing.T) {
		r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cmpCond(plan.Comparison{
			Column:       "city",
			Operator:     "startsWith",
			Not:          true,
			CompareTo:    value.Str("os"),
			CompareToSet: true,
		})})
		require.NoError(t, err)
		require.Len(t, r.dataset, 2)
	})
}

func TestFilter_NullOperators(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	t.Run("isNull on numeric column treats digitless strings as null", func(t *testing.T) {
		r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cmpCond(plan.Comparison{
			Column:   "age",
			Operator: "isNull",
			DataType: "number",
		})})
		require.NoError(t, err)
		require.Len(t, r.dataset, 2) // Cleo (null) and Dan ("abc")
	})

	t.Run("isNotNull", func(t *testing.T) {
		r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cmpCond(plan.Comparison{
			Column:   "age",
			Operator: "isNotNull",
		})})
		require.NoError(t, err)
		require.Len(t, r.dataset, 3)
	})
}

func TestFilter_BooleanTree(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	cond := &plan.Condition{And: []*plan.Condition{
		cmpCond(plan.Comparison{
			Column: "city", Operator: "==",
			CompareTo: value.Str("Lima"), CompareToSet: true,
		}),
		{Or: []*plan.Condition{
			cmpCond(plan.Comparison{
				Column: "age", Operator: ">=", DataType: "number",
				CompareTo: value.Num(35), CompareToSet: true,
			}),
			cmpCond(plan.Comparison{Column: "age", Operator: "isNull", DataType: "number"}),
		}},
	}}

	r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cond})
	require.NoError(t, err)
	require.Len(t, r.dataset, 2) // Bob and Dan
	assert.Contains(t, r.enOp, "matches all of")
	assert.Contains(t, r.enOp, "matches any of")
}

func TestFilter_ColumnToColumnComparison(t *testing.T) {
	e := newTestEngine(t)
	cols := []string{"spent", "budget"}
	rows := value.Rows(
		value.Row{value.Num(5), value.Num(10)},
		value.Row{value.Num(20), value.Num(10)},
	)

	r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cmpCond(plan.Comparison{
		Column:       "spent",
		Operator:     ">",
		DataType:     "number",
		CompareTo:    value.Str("budget"),
		CompareToSet: true,
	})})
	require.NoError(t, err)
	require.Len(t, r.dataset, 1)
	assert.Equal(t, value.Num(20), r.dataset[0][0])
	assert.Contains(t, r.enOp, `the "budget" column`)
}

func TestFilter_ArrayCells(t *testing.T) {
	e := newTestEngine(t)
	cols := []string{"tags"}
	rows := value.Rows(
		value.Row{value.Array([]value.Value{value.Str("red"), value.Str("blue")})},
		value.Row{value.Array([]value.Value{value.Str("green")})},
		value.Row{value.Array(nil)},
	)

	t.Run("equality tests membership", func(t *testing.T) {
		r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cmpCond(plan.Comparison{
			Column: "tags", Operator: "==",
			CompareTo: value.Str("blue"), CompareToSet: true,
		})})
		require.NoError(t, err)
		require.Len(t, r.dataset, 1)
	})

	t.Run("empty array literal", func(t *testing.T) {
		r, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: cmpCond(plan.Comparison{
			Column: "tags", Operator: "==",
			CompareTo: value.Str("[]"), CompareToSet: true,
		})})
		require.NoError(t, err)
		require.Len(t, r.dataset, 1)
	})
}

func TestFilter_ValidationErrors(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	tests := []struct {
		name string
		cond *plan.Condition
		want string
	}{
		{
			name: "missing condition",
			cond: nil,
			want: "lacking top level condition key",
		},
		{
			name: "unknown column",
			cond: cmpCond(plan.Comparison{Column: "salary", Operator: ">", CompareTo: value.Num(1), CompareToSet: true}),
			want: `unable to find specified filter condition column: "salary"`,
		},
		{
			name: "unsupported operator",
			cond: cmpCond(plan.Comparison{Column: "age", Operator: "~=", CompareTo: value.Num(1), CompareToSet: true}),
			want: "unsupported filter operator: ~=",
		},
		{
			name: "missing comparison value",
			cond: cmpCond(plan.Comparison{Column: "age", Operator: ">"}),
			want: `missing required comparison value for filter operation on: "age"`,
		},
		{
			name: "unparseable number literal",
			cond: cmpCond(plan.Comparison{
				Column: "age", Operator: ">", DataType: "number",
				CompareTo: value.Str("lots"), CompareToSet: true,
			}),
			want: `unable to parse number "lots"`,
		},
		{
			name: "unparseable date literal suggests format",
			cond: cmpCond(plan.Comparison{
				Column: "age", Operator: "<", DataType: "date",
				CompareTo: value.Str("someday"), CompareToSet: true,
			}),
			want: "Try specifying a compareToDateFormat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.filterOp(rows, cols, &plan.FilterOp{Condition: tt.cond})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()
	op := &plan.FilterOp{Condition: cmpCond(plan.Comparison{
		Column: "city", Operator: "==",
		CompareTo: value.Str("Oslo"), CompareToSet: true,
	})}

	once, err := e.filterOp(rows, cols, op)
	require.NoError(t, err)
	twice, err := e.filterOp(once.dataset, cols, op)
	require.NoError(t, err)
	assert.Equal(t, once.dataset, twice.dataset)
}
