package engine

import (
	"fmt"

	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

func (e *Engine) limitOp(ds value.Dataset, op *plan.LimitOp) (*opResult, error) {
	if op.Amount < 1 {
		return nil, errors.NewValidationError("limit", "",
			"invalid limit operation amount: %d", op.Amount)
	}
	limited := ds
	if op.Amount < len(ds) {
		limited = ds[:op.Amount]
	}
	return &opResult{
		dataset: limited,
		enOp:    fmt.Sprintf("- truncate rows to the top %s\n", e.formatInt(op.Amount)),
	}, nil
}

func (e *Engine) offsetOp(ds value.Dataset, op *plan.OffsetOp) (*opResult, error) {
	if op.Amount < 1 {
		return nil, errors.NewValidationError("offset", "",
			"invalid offset operation amount: %d", op.Amount)
	}
	remaining := value.Dataset{}
	if op.Amount < len(ds) {
		remaining = ds[op.Amount:]
	}
	return &opResult{
		dataset: remaining,
		enOp:    fmt.Sprintf("- skip the first %s rows\n", e.formatInt(op.Amount)),
	}, nil
}
