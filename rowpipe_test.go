package rowpipe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowpipe/rowpipe"
)

func salesDataset() ([]string, rowpipe.Dataset) {
	columns := []string{"region", "product", "amount"}
	rows := rowpipe.Dataset{
		{rowpipe.Str("north"), rowpipe.Str("widget"), rowpipe.Num(120)},
		{rowpipe.Str("south"), rowpipe.Str("widget"), rowpipe.Num(80)},
		{rowpipe.Str("north"), rowpipe.Str("gadget"), rowpipe.Num(200)},
		{rowpipe.Str("south"), rowpipe.Str("gadget"), rowpipe.Str("15")},
		{rowpipe.Str("east"), rowpipe.Str("widget"), rowpipe.Null()},
	}
	return columns, rows
}

func TestPipeline_EndToEnd(t *testing.T) {
	p := rowpipe.New()
	defer p.Close()

	planJSON := []byte(`{"operations": [
		{"op": "filter", "condition": {"column": "amount", "dataType": "number", "operator": ">", "compareTo": 50}},
		{"op": "groupBy", "groupBy": ["region"], "aggregations": [{"column": "amount", "function": "SUM", "as": "total"}]},
		{"op": "orderBy", "columns": [{"column": "total", "direction": "desc"}]}
	]}`)

	columns, rows := salesDataset()
	result, err := p.ExecuteJSON(context.Background(), columns, rows, planJSON)
	require.NoError(t, err)

	require.Len(t, result.Dataset, 3, "header plus two groups")
	assert.Equal(t, rowpipe.Row{rowpipe.Str("region"), rowpipe.Str("total")}, result.Dataset[0])
	assert.Equal(t, rowpipe.Str("north"), result.Dataset[1][0])
	assert.Equal(t, rowpipe.Num(320), result.Dataset[1][1])
	assert.Equal(t, rowpipe.Str("south"), result.Dataset[2][0])
	assert.Equal(t, rowpipe.Num(80), result.Dataset[2][1])

	assert.Contains(t, result.OpsString, "dataset of 5 rows and 3 columns")
	assert.Contains(t, result.OpsString, "This resulted in a table of 2 rows")
	assert.NotEmpty(t, result.EnOps)
	assert.Empty(t, result.Warnings)
}

func TestPipeline_ErrorFeedback(t *testing.T) {
	p := rowpipe.New()
	defer p.Close()

	columns, rows := salesDataset()
	_, err := p.ExecuteJSON(context.Background(), columns, rows, []byte(`{"operations": [
		{"op": "select", "columns": ["discount"]}
	]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"discount"`)
}

func TestPipeline_UnknownOperation(t *testing.T) {
	_, err := rowpipe.ParsePlan([]byte(`{"operations": [{"op": "pivot"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pivot")
}

func TestPipeline_WithClock(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	p := rowpipe.New(rowpipe.WithClock(func() time.Time { return now }))
	defer p.Close()

	result, err := p.ExecuteJSON(context.Background(),
		[]string{"signup"},
		rowpipe.Dataset{{rowpipe.Str("2023-06-10")}},
		[]byte(`{"operations": [
			{"op": "dateDiff", "interval": "days", "startColumnOrDate": "signup", "endColumnOrDate": "today()", "as": "age"}
		]}`))
	require.NoError(t, err)

	require.Len(t, result.Dataset, 2)
	assert.Equal(t, rowpipe.Num(5), result.Dataset[1][1])
}

func TestPipeline_WithConfigLocale(t *testing.T) {
	cfg := rowpipe.NewConfig()
	cfg.DefaultLocale = "de-DE"
	p := rowpipe.New(rowpipe.WithConfig(cfg))
	defer p.Close()

	columns := []string{"n"}
	rows := make(rowpipe.Dataset, 1500)
	for i := range rows {
		rows[i] = rowpipe.Row{rowpipe.Num(float64(i))}
	}

	result, err := p.ExecuteJSON(context.Background(), columns, rows,
		[]byte(`{"operations": [{"op": "limit", "amount": 1200}]}`))
	require.NoError(t, err)

	assert.Contains(t, result.OpsString, "1.500 rows")
	assert.Contains(t, result.EnOps, "1.200")
}
