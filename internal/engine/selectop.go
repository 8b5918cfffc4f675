package engine

import (
	"fmt"
	"strings"

	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

func (e *Engine) selectOp(ds value.Dataset, normCols []string, op *plan.SelectOp) (*opResult, error) {
	if op.Columns != nil {
		return e.selectColumns(ds, normCols, op)
	}
	if op.Aggregations != nil {
		return e.selectAggregations(ds, normCols, op)
	}
	return nil, errors.NewValidationError("select", "",
		"invalid select operation lacking either columns or aggregations")
}

func (e *Engine) selectColumns(ds value.Dataset, normCols []string, op *plan.SelectOp) (*opResult, error) {
	if len(op.Columns) == 0 {
		return nil, errors.NewValidationError("select", "", "no columns specified in select operation")
	}

	var missing []string
	indices := make([]int, len(op.Columns))
	for i, col := range op.Columns {
		indices[i] = ColToIndex(col, normCols)
		if indices[i] == -1 {
			missing = append(missing, fmt.Sprintf("%q", col))
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError("select", "",
			"unable to select missing columns: %s", strings.Join(missing, ", "))
	}

	selected := make(value.Dataset, 0, len(ds))
	var seen map[string]struct{}
	if op.Distinct {
		seen = make(map[string]struct{})
	}
	for _, row := range ds {
		projected := make(value.Row, len(indices))
		for i, idx := range indices {
			projected[i] = AccessCell(row, idx, op.Columns[i])
		}
		if op.Distinct {
			key := value.Array(projected).Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		selected = append(selected, projected)
	}

	quoted := make([]string, len(op.Columns))
	for i, c := range op.Columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return &opResult{
		dataset:        selected,
		enOp:           fmt.Sprintf("- select columns: %s\n", strings.Join(quoted, ", ")),
		newColumns:     op.Columns,
		replaceColumns: true,
	}, nil
}

func (e *Engine) selectAggregations(ds value.Dataset, normCols []string, op *plan.SelectOp) (*opResult, error) {
	aggs, err := validAggregations("select", op.Aggregations, nil, normCols)
	if err != nil {
		return nil, err
	}
	for i := range aggs {
		aggs[i].As = strings.TrimSpace(aggs[i].As)
		aggs[i].As = aggregationName(aggs[i])
	}

	if len(aggs) == 0 {
		return &opResult{dataset: ds}, nil
	}

	var enOp strings.Builder
	newColumns := make([]string, len(aggs))
	for i, a := range aggs {
		target := fmt.Sprintf("%q", a.Column)
		if a.Column == "*" {
			target = "rows"
		}
		fmt.Fprintf(&enOp, "- aggregate all rows by %s of %s as %q\n", friendlyFunctionText(a.Function), target, a.As)
		newColumns[i] = a.As
	}

	return &opResult{
		dataset:        value.Dataset{aggregate(ds, normCols, aggs, e)},
		enOp:           enOp.String(),
		newColumns:     newColumns,
		replaceColumns: true,
	}, nil
}
