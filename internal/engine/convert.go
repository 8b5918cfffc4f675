package engine

import (
	"context"
	"fmt"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

func (e *Engine) convertUnitsOp(ctx context.Context, ds value.Dataset, normCols []string, op *plan.ConvertUnitsOp) (*opResult, error) {
	colIndex := ColToIndex(op.Column, normCols)
	if colIndex == -1 {
		return nil, errors.NewColumnNotFoundError("convertUnits", op.Column)
	}

	if e.converter == nil {
		return nil, errors.NewUnsupportedConversionError("convertUnits", op.From, op.To)
	}

	// Probe the pair before touching any rows so an unknown conversion fails
	// the whole operation instead of producing a column of nulls.
	if _, ok := e.converter.Convert(ctx, 0, op.From, op.To); !ok {
		return nil, errors.NewUnsupportedConversionError("convertUnits", op.From, op.To)
	}

	converted := mapRows(e, ds, func(_ int, row value.Row) value.Value {
		num, ok := coerce.StringToNumber(AccessCell(row, colIndex, op.Column))
		if !ok {
			return value.Null()
		}
		result, ok := e.converter.Convert(ctx, num, op.From, op.To)
		if !ok {
			return value.Null()
		}
		return value.Num(result)
	})

	out := make(value.Dataset, len(ds))
	for i, row := range ds {
		widened := make(value.Row, len(row)+1)
		copy(widened, row)
		widened[len(row)] = converted[i]
		out[i] = widened
	}

	return &opResult{
		dataset: out,
		enOp: fmt.Sprintf("- create a new column named %q by converting the values in %q from %s to %s\n",
			op.As, op.Column, op.From, op.To),
		newColumns: []string{op.As},
	}, nil
}
