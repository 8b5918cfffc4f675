package engine

import (
	"fmt"
	"strings"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

func (e *Engine) formatDatesOp(ds value.Dataset, normCols []string, op *plan.FormatDatesOp) (*opResult, error) {
	colIndex := ColToIndex(op.Column, normCols)
	if colIndex == -1 {
		return nil, errors.NewColumnNotFoundError("formatDates", op.Column)
	}

	currentFormat := coerce.FixTokens(op.CurrentFormat)
	desiredFormat := coerce.FixTokens(op.DesiredFormat)
	if desiredFormat == "" {
		return nil, errors.NewValidationError("formatDates", op.Column,
			"unable to format dates because of missing desired format")
	}
	e.logger.Info("reformatting dates",
		"currentFormat", currentFormat, "desiredFormat", desiredFormat)

	formatted := mapRows(e, ds, func(_ int, row value.Row) value.Value {
		target := AccessCell(row, colIndex, op.Column)
		s, isStr := target.AsString()
		if !isStr || strings.TrimSpace(s) == "" {
			return value.Null()
		}
		parsed, ok := coerce.ParseDate(s, currentFormat)
		if !ok {
			e.logger.Error("invalid date parse",
				"currentFormat", currentFormat, "desiredFormat", desiredFormat)
			return value.Null()
		}
		return value.Str(coerce.FormatDate(parsed, desiredFormat))
	})

	out := make(value.Dataset, len(ds))
	for i, row := range ds {
		widened := make(value.Row, len(row)+1)
		copy(widened, row)
		widened[len(row)] = formatted[i]
		out[i] = widened
	}

	return &opResult{
		dataset: out,
		enOp: fmt.Sprintf("- create a new column named %q by reformatting the dates in %q from %s to %s\n",
			op.As, op.Column, currentFormat, desiredFormat),
		newColumns: []string{op.As},
	}, nil
}
