package engine

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowpipe/rowpipe/internal/config"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/units"
	"github.com/rowpipe/rowpipe/internal/value"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		ParallelThreshold: config.DefaultParallelThreshold,
		WorkerCount:       2,
		DefaultLocale:     "en-US",
	}
	e := New(cfg, logger, units.NewConverter(nil, logger))
	t.Cleanup(e.Close)
	return e
}

func peopleDataset() ([]string, value.Dataset) {
	cols := []string{"name", "age", "city"}
	rows := value.Rows(
		value.Row{value.Str("Alice"), value.Str("25"), value.Str("Oslo")},
		value.Row{value.Str("Bob"), value.Str("35"), value.Str("Lima")},
		value.Row{value.Str("Cleo"), value.Null(), value.Str("Oslo")},
		value.Row{value.Str("Dan"), value.Str("abc"), value.Str("Lima")},
	)
	return cols, rows
}

func TestExecute_NarrationAndHeader(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	res, err := e.Execute(context.Background(), cols, rows, &plan.Plan{
		Operations: []plan.Operation{&plan.LimitOp{Amount: 2}},
	})
	require.NoError(t, err)

	assert.Contains(t, res.OpsString,
		"The following operations were performed on a dataset of 4 rows and 3 columns: | name | age | city |")
	assert.Equal(t, "- truncate rows to the top 2", res.EnOps)
	assert.Contains(t, res.OpsString, "This resulted in a table of 2 rows")

	require.Len(t, res.Dataset, 3)
	assert.Equal(t, value.HeaderRow(cols), res.Dataset[0])
	assert.Equal(t, rows[0], res.Dataset[1])
	assert.Empty(t, res.Warnings)
}

func TestExecute_LogsRedactedPlan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg := config.Config{
		ParallelThreshold: config.DefaultParallelThreshold,
		WorkerCount:       2,
		DefaultLocale:     "en-US",
		RedactValues:      true,
	}
	e := New(cfg, logger, units.NewConverter(nil, logger))
	t.Cleanup(e.Close)

	cols, rows := peopleDataset()
	p, err := plan.Parse([]byte(`{"operations": [
		{"op": "filter", "condition": {"column": "age", "dataType": "number", "operator": ">", "compareTo": 30}},
		{"op": "select", "columns": ["name"]}
	]}`))
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), cols, rows, p)
	require.NoError(t, err)

	logged := buf.String()
	assert.Contains(t, logged, "executing plan")
	assert.Contains(t, logged, `\"op\":\"filter\"`, "plan structure stays inspectable")
	assert.NotContains(t, logged, "age", "column names must be blanked")
	assert.NotContains(t, logged, "name")
}

func TestExecute_LogsRawPlanWithoutRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg := config.Config{
		ParallelThreshold: config.DefaultParallelThreshold,
		WorkerCount:       2,
		DefaultLocale:     "en-US",
	}
	e := New(cfg, logger, units.NewConverter(nil, logger))
	t.Cleanup(e.Close)

	cols, rows := peopleDataset()
	_, err := e.Execute(context.Background(), cols, rows, &plan.Plan{
		Operations: []plan.Operation{&plan.SelectOp{Columns: []string{"city"}}},
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "city")
}

func TestExecute_SingularCounts(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute(context.Background(),
		[]string{"name"},
		value.Rows(value.Row{value.Str("solo")}),
		&plan.Plan{Operations: []plan.Operation{&plan.LimitOp{Amount: 5}}})
	require.NoError(t, err)

	assert.Contains(t, res.OpsString, "a dataset of 1 row and 1 column")
	assert.Contains(t, res.OpsString, "This resulted in a table of 1 row")
}

func TestExecute_DropDiscardedInMultiOpPlan(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	res, err := e.Execute(context.Background(), cols, rows, &plan.Plan{
		Operations: []plan.Operation{&plan.DropOp{}, &plan.LimitOp{Amount: 3}},
	})
	require.NoError(t, err)

	assert.Len(t, res.Dataset, 4) // header + 3
	assert.NotContains(t, res.EnOps, "drop")
}

func TestExecute_SoleDropEmptiesDataset(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	res, err := e.Execute(context.Background(), cols, rows, &plan.Plan{
		Operations: []plan.Operation{&plan.DropOp{}},
	})
	require.NoError(t, err)

	require.Len(t, res.Dataset, 1)
	assert.Equal(t, value.HeaderRow(cols), res.Dataset[0])
	assert.Contains(t, res.OpsString, "This resulted in a table of 0 rows")
}

func TestExecute_AppendThenReplaceColumns(t *testing.T) {
	e := newTestEngine(t)
	cols := []string{"price"}
	rows := value.Rows(
		value.Row{value.Num(10)},
		value.Row{value.Num(20)},
	)

	res, err := e.Execute(context.Background(), cols, rows, &plan.Plan{
		Operations: []plan.Operation{
			&plan.MapColumnOp{Column: "price", Function: "MUL", FunctionArg: value.Num(2), As: "doubled"},
			&plan.SelectOp{Columns: []string{"doubled"}},
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Dataset, 3)
	assert.Equal(t, value.HeaderRow([]string{"doubled"}), res.Dataset[0])
	assert.Equal(t, value.Row{value.Num(20)}, res.Dataset[1])
	assert.Equal(t, value.Row{value.Num(40)}, res.Dataset[2])
}

func TestExecute_OperationErrorAbortsPipeline(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	res, err := e.Execute(context.Background(), cols, rows, &plan.Plan{
		Operations: []plan.Operation{
			&plan.LimitOp{Amount: 2},
			&plan.LimitOp{Amount: 0},
		},
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "invalid limit operation amount")
}

func TestExecute_OffsetThenLimitSlices(t *testing.T) {
	e := newTestEngine(t)
	cols, rows := peopleDataset()

	res, err := e.Execute(context.Background(), cols, rows, &plan.Plan{
		Operations: []plan.Operation{
			&plan.OffsetOp{Amount: 1},
			&plan.LimitOp{Amount: 2},
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Dataset, 3)
	assert.Equal(t, rows[1], res.Dataset[1])
	assert.Equal(t, rows[2], res.Dataset[2])
}

func TestOffset_PastEndYieldsEmpty(t *testing.T) {
	e := newTestEngine(t)
	_, rows := peopleDataset()

	r, err := e.offsetOp(rows, &plan.OffsetOp{Amount: 10})
	require.NoError(t, err)
	assert.Empty(t, r.dataset)
}

func TestUnwindArray(t *testing.T) {
	e := newTestEngine(t)
	cols := []string{"name", "tags"}
	rows := value.Rows(
		value.Row{value.Str("a"), value.Array([]value.Value{value.Str("x"), value.Str("y")})},
		value.Row{value.Str("b"), value.Null()},
		value.Row{value.Str("c"), value.Str("scalar")},
		value.Row{value.Str("d"), value.Array(nil)},
	)

	r, err := e.unwindArrayOp(rows, []string{"name", "tags"}, &plan.UnwindArrayOp{Column: "tags"})
	require.NoError(t, err)

	require.Len(t, r.dataset, 3)
	assert.Equal(t, value.Row{value.Str("a"), value.Str("x")}, r.dataset[0])
	assert.Equal(t, value.Row{value.Str("a"), value.Str("y")}, r.dataset[1])
	assert.Equal(t, value.Row{value.Str("c"), value.Str("scalar")}, r.dataset[2])
	assert.Contains(t, r.enOp, `"tags"`)

	_, err = e.unwindArrayOp(rows, cols, &plan.UnwindArrayOp{Column: "missing"})
	require.Error(t, err)
}
