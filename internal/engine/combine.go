package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

// SupportedCombinationFunctions lists the row-wise functions combineColumns
// accepts.
var SupportedCombinationFunctions = map[string]struct{}{
	"ADD": {}, "SUB": {}, "SUB_ABS": {}, "MUL": {}, "DIV": {}, "MOD": {},
	"AVG": {}, "MAX": {}, "MIN": {}, "CONCAT": {}, "MEDIAN": {}, "MODE": {},
	"STDEV": {},
}

func (e *Engine) combineColumnsOp(ds value.Dataset, normCols []string, op *plan.CombineColumnsOp) (*opResult, error) {
	if _, ok := SupportedCombinationFunctions[op.Function]; !ok {
		return nil, errors.NewUnsupportedFunctionError("combineColumns", op.Function)
	}
	if len(op.Columns) < 2 {
		return nil, errors.NewValidationError("combineColumns", "",
			"combining columns requires two or more columns, only provided: %s", strings.Join(op.Columns, ", "))
	}
	if len(uniqueStrings(op.Columns)) != len(op.Columns) {
		return nil, errors.NewValidationError("combineColumns", "",
			"all columns provided to combine columns must be unique, provided: %s; perhaps use the mapColumn operation first",
			prettyCols(op.Columns))
	}

	var missing []string
	indices := make([]int, len(op.Columns))
	for i, c := range op.Columns {
		indices[i] = ColToIndex(c, normCols)
		if indices[i] == -1 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError("combineColumns", "",
			"unable to find specified columns for column combination: %s", prettyCols(missing))
	}

	combined := mapRows(e, ds, func(_ int, row value.Row) value.Value {
		return combineRow(row, indices, op)
	})

	out := make(value.Dataset, len(ds))
	for i, row := range ds {
		widened := make(value.Row, len(row)+1)
		copy(widened, row)
		widened[len(row)] = combined[i]
		out[i] = widened
	}

	return &opResult{
		dataset:    out,
		enOp:       friendlyCombinationText(op),
		newColumns: []string{op.As},
	}, nil
}

func combineRow(row value.Row, indices []int, op *plan.CombineColumnsOp) value.Value {
	if op.Function == "CONCAT" {
		var b strings.Builder
		for i, idx := range indices {
			b.WriteString(AccessCell(row, idx, op.Columns[i]).Display())
		}
		return value.Str(b.String())
	}

	values := make([]float64, 0, len(indices))
	for i, idx := range indices {
		if n, ok := coerce.StringToNumber(AccessCell(row, idx, op.Columns[i])); ok {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return value.Null()
	}

	switch op.Function {
	case "ADD":
		return value.Num(sum(values))
	case "SUB":
		return value.Num(foldLeft(values, func(a, b float64) float64 { return a - b }))
	case "SUB_ABS":
		return value.Num(math.Abs(foldLeft(values, func(a, b float64) float64 { return a - b })))
	case "MUL":
		product := 1.0
		for _, v := range values {
			product *= v
		}
		return value.Num(product)
	case "DIV":
		if hasZeroOperand(values[1:]) {
			return value.Null()
		}
		return value.Num(foldLeft(values, func(a, b float64) float64 { return a / b }))
	case "MOD":
		if hasZeroOperand(values[1:]) {
			return value.Null()
		}
		return value.Num(foldLeft(values, math.Mod))
	case "AVG":
		return value.Num(sum(values) / float64(len(values)))
	case "MAX":
		return value.Num(maxOf(values))
	case "MIN":
		return value.Num(minOf(values))
	case "MEDIAN":
		return value.Num(median(values))
	case "MODE":
		return value.Num(mode(values))
	case "STDEV":
		if len(values) == 1 {
			return value.Num(0)
		}
		mean := sum(values) / float64(len(values))
		var acc float64
		for _, v := range values {
			acc += (v - mean) * (v - mean)
		}
		return value.Num(math.Sqrt(acc / float64(len(values)-1)))
	}
	return value.Null()
}

func foldLeft(values []float64, f func(a, b float64) float64) float64 {
	acc := values[0]
	for _, v := range values[1:] {
		acc = f(acc, v)
	}
	return acc
}

func hasZeroOperand(values []float64) bool {
	for _, v := range values {
		if v == 0 {
			return true
		}
	}
	return false
}

// mode returns the most frequent value, preferring the smallest on ties.
func mode(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	distinct := make([]float64, 0, len(counts))
	for v := range counts {
		distinct = append(distinct, v)
	}
	sort.Float64s(distinct)
	best := distinct[0]
	for _, v := range distinct[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

func prettyCols(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(quoted, ", ")
}

func listValues(values []string) string {
	if len(values) == 0 {
		return ""
	}
	if len(values) < 2 {
		return fmt.Sprintf("%q", values[0])
	}
	quoted := make([]string, len(values)-1)
	for i, v := range values[:len(values)-1] {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf("%s and %q", strings.Join(quoted, ", "), values[len(values)-1])
}

func friendlyCombinationText(op *plan.CombineColumnsOp) string {
	prefix := fmt.Sprintf("- create a new column named %q by ", op.As)
	switch op.Function {
	case "ADD":
		return fmt.Sprintf("%ssumming %s\n", prefix, listValues(op.Columns))
	case "SUB":
		return fmt.Sprintf("%ssubtracting %s from %q\n", prefix, listValues(op.Columns[1:]), op.Columns[0])
	case "SUB_ABS":
		return fmt.Sprintf("%ssubtracting %s from %q and computing the absolute value\n",
			prefix, listValues(op.Columns[1:]), op.Columns[0])
	case "MUL":
		return fmt.Sprintf("%smultiplying %s\n", prefix, listValues(op.Columns))
	case "DIV":
		return fmt.Sprintf("%sdividing %q by %s\n", prefix, op.Columns[0], listValues(op.Columns[1:]))
	case "MOD":
		return fmt.Sprintf("%sdividing %q by %s and taking the remainder\n",
			prefix, op.Columns[0], listValues(op.Columns[1:]))
	case "AVG":
		return fmt.Sprintf("%saveraging %s\n", prefix, listValues(op.Columns))
	case "MAX":
		return fmt.Sprintf("%sfinding the maximum value across %s\n", prefix, listValues(op.Columns))
	case "MIN":
		return fmt.Sprintf("%sfinding the minimum value across %s\n", prefix, listValues(op.Columns))
	case "CONCAT":
		return fmt.Sprintf("%sconcatenating the values from %s\n", prefix, listValues(op.Columns))
	case "MEDIAN":
		return fmt.Sprintf("%sfinding the median value across %s\n", prefix, listValues(op.Columns))
	case "MODE":
		return fmt.Sprintf("%sfinding the mode value across %s\n", prefix, listValues(op.Columns))
	case "STDEV":
		return fmt.Sprintf("%scomputing the standard deviation of %s\n", prefix, listValues(op.Columns))
	}
	return fmt.Sprintf("%sapplying the %s function to %s\n", prefix, op.Function, listValues(op.Columns))
}
