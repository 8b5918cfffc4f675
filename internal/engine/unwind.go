package engine

import (
	"fmt"

	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

// unwindArrayOp expands array cells into one row per element, after the
// $unwind aggregation stage in MongoDB. Null and empty array cells drop the
// row, matching preserveNullAndEmptyArrays: false. Scalar cells pass through.
func (e *Engine) unwindArrayOp(ds value.Dataset, normCols []string, op *plan.UnwindArrayOp) (*opResult, error) {
	colIndex := ColToIndex(op.Column, normCols)
	if colIndex == -1 {
		return nil, errors.NewColumnNotFoundError("unwindArray", op.Column)
	}

	out := make(value.Dataset, 0, len(ds))
	for _, row := range ds {
		cell := row[colIndex]
		if cell.IsNull() {
			continue
		}
		items, isArray := cell.AsArray()
		if !isArray {
			out = append(out, row)
			continue
		}
		for _, item := range items {
			expanded := make(value.Row, len(row))
			copy(expanded, row)
			expanded[colIndex] = item
			out = append(out, expanded)
		}
	}

	return &opResult{
		dataset: out,
		enOp:    fmt.Sprintf("- make a new row for each of the values in column %q\n", op.Column),
	}, nil
}
