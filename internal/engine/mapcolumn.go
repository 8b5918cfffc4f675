package engine

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/units"
	"github.com/rowpipe/rowpipe/internal/value"
)

// SupportedMapFunctions lists the per-cell functions mapColumn accepts.
// The last seven only apply to numeric array cells.
var SupportedMapFunctions = map[string]struct{}{
	"LEN": {}, "ABS": {}, "ROUND": {}, "CEIL": {}, "FLOOR": {},
	"UCASE": {}, "LCASE": {}, "POW": {}, "SQRT": {},
	"ADD": {}, "SUB": {}, "DIV": {}, "MUL": {}, "MOD": {},
	"COALESCE": {},
	"AVG":      {}, "SUM": {}, "MIN": {}, "MAX": {},
	"MEDIAN": {}, "STDEV": {}, "VARIANCE": {},
}

// numericArgFns require a numeric functionArg, given either as a literal or
// as the name of another column.
var numericArgFns = map[string]struct{}{
	"POW": {}, "ADD": {}, "SUB": {}, "DIV": {}, "MUL": {}, "MOD": {},
}

var reFormatHint = regexp.MustCompile(`(?i)format`)

type mapOutcome struct {
	val  value.Value
	warn string
	err  error
}

func (e *Engine) mapColumnOp(ds value.Dataset, normCols []string, op *plan.MapColumnOp) (*opResult, error) {
	colIndex := ColToIndex(op.Column, normCols)
	if colIndex == -1 {
		return nil, errors.NewColumnNotFoundError("mapColumn", op.Column)
	}

	if _, ok := SupportedMapFunctions[op.Function]; !ok {
		if reFormatHint.MatchString(op.Function) {
			return nil, errors.NewValidationError("mapColumn", op.Column,
				"unsupported function %s; if you are trying to format a date, use the formatDates operation instead", op.Function)
		}
		return nil, errors.NewUnsupportedFunctionError("mapColumn", op.Function)
	}

	_, numericArg := numericArgFns[op.Function]
	argColIndex := -1
	if numericArg {
		if s, isStr := op.FunctionArg.AsString(); op.FunctionArg.IsNull() || (isStr && s == "") {
			return nil, errors.NewValidationError("mapColumn", op.Column,
				"missing function argument for %s", op.Function)
		}
		if op.FunctionArg.Kind() != value.KindNumber {
			argColIndex = ColToIndex(op.FunctionArg.Display(), normCols)
			if argColIndex == -1 {
				return nil, errors.NewValidationError("mapColumn", op.Column,
					"invalid function argument for %s: expected a number literal or column name, got %q",
					op.Function, op.FunctionArg.Display())
			}
		}
	}
	if op.Function == "COALESCE" && op.FunctionArg.IsNull() {
		return nil, errors.NewValidationError("mapColumn", op.Column,
			"missing function argument for %s", op.Function)
	}

	getArg := func(row value.Row) value.Value {
		if argColIndex != -1 {
			return AccessCell(row, argColIndex, op.FunctionArg.Display())
		}
		return op.FunctionArg
	}

	outcomes := mapRows(e, ds, func(_ int, row value.Row) mapOutcome {
		return e.mapCell(AccessCell(row, colIndex, op.Column), row, op, getArg)
	})

	out := make(value.Dataset, len(ds))
	var warnings []string
	seenWarn := make(map[string]struct{})
	for i, oc := range outcomes {
		if oc.err != nil {
			return nil, oc.err
		}
		if oc.warn != "" {
			if _, dup := seenWarn[oc.warn]; !dup {
				seenWarn[oc.warn] = struct{}{}
				warnings = append(warnings, oc.warn)
			}
		}
		row := ds[i]
		if op.As != "" {
			mapped := make(value.Row, len(row)+1)
			copy(mapped, row)
			mapped[len(row)] = oc.val
			out[i] = mapped
		} else {
			mapped := make(value.Row, len(row))
			copy(mapped, row)
			mapped[colIndex] = oc.val
			out[i] = mapped
		}
	}

	res := &opResult{
		dataset:  out,
		enOp:     friendlyMapFunctionText(op),
		warnings: warnings,
	}
	if op.As != "" {
		res.newColumns = []string{op.As}
	}
	return res, nil
}

func (e *Engine) mapCell(cell value.Value, row value.Row, op *plan.MapColumnOp, getArg func(value.Row) value.Value) mapOutcome {
	if op.Function == "COALESCE" {
		if cell.IsNull() {
			return mapOutcome{val: op.FunctionArg}
		}
		return mapOutcome{val: cell}
	}
	if cell.IsNull() {
		return mapOutcome{val: value.Null()}
	}

	items, isArray := cell.AsArray()

	switch op.Function {
	case "LEN":
		if isArray {
			return mapOutcome{val: value.Num(float64(len(items)))}
		}
		return mapOutcome{val: value.Num(float64(uniseg.GraphemeClusterCount(cell.Display())))}
	case "UCASE", "LCASE":
		return mapCase(cell, items, isArray, op)
	}

	if !isArray {
		return e.mapScalar(cell, row, op, getArg)
	}
	return e.mapNumericArray(items, row, op, getArg)
}

func mapCase(cell value.Value, items []value.Value, isArray bool, op *plan.MapColumnOp) mapOutcome {
	casing := strings.ToUpper
	word := "uppercase"
	if op.Function == "LCASE" {
		casing = strings.ToLower
		word = "lowercase"
	}
	if !isArray {
		return mapOutcome{val: value.Str(casing(cell.Display()))}
	}
	for _, item := range items {
		if item.Kind() != value.KindString {
			return mapOutcome{
				val:  cell,
				warn: fmt.Sprintf("Unable to convert non-string array values in column %q to %s", op.Column, word),
			}
		}
	}
	cased := make([]value.Value, len(items))
	for i, item := range items {
		s, _ := item.AsString()
		cased[i] = value.Str(casing(s))
	}
	return mapOutcome{val: value.Array(cased)}
}

func (e *Engine) mapScalar(cell value.Value, row value.Row, op *plan.MapColumnOp, getArg func(value.Row) value.Value) mapOutcome {
	n, ok := coerce.StringToNumber(cell)
	if !ok {
		return mapOutcome{
			val:  value.Null(),
			warn: fmt.Sprintf("Unable to convert some values to number for %s operation", op.Function),
		}
	}
	if _, needsArg := numericArgFns[op.Function]; needsArg {
		arg, ok := coerce.StringToNumber(getArg(row))
		if !ok {
			return mapOutcome{val: value.Null()}
		}
		return mapOutcome{val: applyNumericArgFn(op.Function, n, arg)}
	}
	switch op.Function {
	case "ABS":
		return mapOutcome{val: value.Num(math.Abs(n))}
	case "CEIL":
		return mapOutcome{val: value.Num(math.Ceil(n))}
	case "FLOOR":
		return mapOutcome{val: value.Num(math.Floor(n))}
	case "ROUND":
		return mapOutcome{val: value.Num(units.Round(n, roundPlaces(op)))}
	case "SQRT":
		return mapOutcome{val: value.Num(math.Sqrt(n))}
	}
	return mapOutcome{err: errors.NewValidationError("mapColumn", op.Column,
		"unsupported function for scalar values: %s; perhaps use an aggregation", op.Function)}
}

func (e *Engine) mapNumericArray(items []value.Value, row value.Row, op *plan.MapColumnOp, getArg func(value.Row) value.Value) mapOutcome {
	nums := make([]float64, len(items))
	for i, item := range items {
		n, ok := item.AsNumber()
		if !ok {
			return mapOutcome{err: errors.NewValidationError("mapColumn", op.Column,
				"unable to perform function %q on array column of non-numeric values", op.Function)}
		}
		nums[i] = n
	}

	if _, needsArg := numericArgFns[op.Function]; needsArg {
		arg, ok := coerce.StringToNumber(getArg(row))
		if !ok {
			return mapOutcome{val: value.Null()}
		}
		if (op.Function == "DIV" || op.Function == "MOD") && arg == 0 {
			return mapOutcome{val: value.Null()}
		}
		mapped := make([]value.Value, len(nums))
		for i, n := range nums {
			mapped[i] = applyNumericArgFn(op.Function, n, arg)
		}
		return mapOutcome{val: value.Array(mapped)}
	}

	switch op.Function {
	case "ABS", "CEIL", "FLOOR", "ROUND", "SQRT":
		mapped := make([]value.Value, len(nums))
		for i, n := range nums {
			switch op.Function {
			case "ABS":
				mapped[i] = value.Num(math.Abs(n))
			case "CEIL":
				mapped[i] = value.Num(math.Ceil(n))
			case "FLOOR":
				mapped[i] = value.Num(math.Floor(n))
			case "ROUND":
				mapped[i] = value.Num(units.Round(n, roundPlaces(op)))
			case "SQRT":
				mapped[i] = value.Num(math.Sqrt(n))
			}
		}
		return mapOutcome{val: value.Array(mapped)}
	case "AVG":
		if len(nums) == 0 {
			return mapOutcome{val: value.Null()}
		}
		return mapOutcome{val: value.Num(sum(nums) / float64(len(nums)))}
	case "SUM":
		if len(nums) == 0 {
			return mapOutcome{val: value.Null()}
		}
		return mapOutcome{val: value.Num(sum(nums))}
	case "MIN":
		if len(nums) == 0 {
			return mapOutcome{val: value.Null()}
		}
		return mapOutcome{val: value.Num(minOf(nums))}
	case "MAX":
		if len(nums) == 0 {
			return mapOutcome{val: value.Null()}
		}
		return mapOutcome{val: value.Num(maxOf(nums))}
	case "MEDIAN":
		if len(nums) == 0 {
			return mapOutcome{val: value.Null()}
		}
		return mapOutcome{val: value.Num(median(nums))}
	case "STDEV", "VARIANCE":
		switch len(nums) {
		case 0:
			return mapOutcome{val: value.Null()}
		case 1:
			return mapOutcome{val: value.Num(0)}
		}
		mean := sum(nums) / float64(len(nums))
		var acc float64
		for _, n := range nums {
			acc += (n - mean) * (n - mean)
		}
		denom := float64(len(nums))
		if op.Function == "STDEV" {
			denom--
		}
		return mapOutcome{val: value.Num(math.Sqrt(acc / denom))}
	}
	return mapOutcome{err: errors.NewValidationError("mapColumn", op.Column,
		"unsupported function for array values: %s", op.Function)}
}

func applyNumericArgFn(fn string, n, arg float64) value.Value {
	switch fn {
	case "POW":
		return value.Num(math.Pow(n, arg))
	case "ADD":
		return value.Num(n + arg)
	case "SUB":
		return value.Num(n - arg)
	case "DIV":
		if arg == 0 {
			return value.Null()
		}
		return value.Num(n / arg)
	case "MUL":
		return value.Num(n * arg)
	case "MOD":
		if arg == 0 {
			return value.Null()
		}
		return value.Num(math.Mod(n, arg))
	}
	return value.Null()
}

func roundPlaces(op *plan.MapColumnOp) int {
	if n, ok := op.FunctionArg.AsNumber(); ok {
		return int(n)
	}
	return 0
}

func friendlyMapFunctionText(op *plan.MapColumnOp) string {
	prefix := fmt.Sprintf("- overwrite the %q column by", op.Column)
	postfix := "each value"
	if op.As != "" {
		prefix = fmt.Sprintf("- create a new column named %q by", op.As)
		postfix = fmt.Sprintf("the values in %q", op.Column)
	}
	arg := op.FunctionArg.Display()

	switch op.Function {
	case "LEN":
		return fmt.Sprintf("%s counting the length of %s\n", prefix, postfix)
	case "ABS":
		return fmt.Sprintf("%s taking the absolute value of %s\n", prefix, postfix)
	case "ROUND":
		places := 0.0
		if n, ok := op.FunctionArg.AsNumber(); ok {
			places = n
		}
		plural := "s"
		if places == 1 {
			plural = ""
		}
		return fmt.Sprintf("%s rounding %s to %s decimal place%s\n",
			prefix, postfix, value.Num(places).Display(), plural)
	case "CEIL":
		return fmt.Sprintf("%s rounding %s up to the nearest whole number\n", prefix, postfix)
	case "FLOOR":
		return fmt.Sprintf("%s rounding %s down to the nearest whole number\n", prefix, postfix)
	case "UCASE":
		return fmt.Sprintf("%s converting %s to uppercase\n", prefix, postfix)
	case "LCASE":
		return fmt.Sprintf("%s converting %s to lowercase\n", prefix, postfix)
	case "POW":
		return fmt.Sprintf("%s raising %s to the power of %s\n", prefix, postfix, arg)
	case "SQRT":
		return fmt.Sprintf("%s taking the square root of %s\n", prefix, postfix)
	case "ADD":
		return fmt.Sprintf("%s adding %s to %s\n", prefix, arg, postfix)
	case "SUB":
		return fmt.Sprintf("%s subtracting %s from %s\n", prefix, arg, postfix)
	case "DIV":
		return fmt.Sprintf("%s dividing %s by %s\n", prefix, postfix, arg)
	case "MUL":
		return fmt.Sprintf("%s multiplying %s by %s\n", prefix, postfix, arg)
	case "MOD":
		return fmt.Sprintf("%s computing the remainder of %s divided by %s\n", prefix, postfix, arg)
	case "COALESCE":
		return fmt.Sprintf("%s replacing null values in %s with %q\n", prefix, postfix, arg)
	case "AVG":
		return fmt.Sprintf("%s computing the average of %s\n", prefix, postfix)
	case "SUM":
		return fmt.Sprintf("%s computing the sum of %s\n", prefix, postfix)
	case "MIN":
		return fmt.Sprintf("%s finding the minimum value of %s\n", prefix, postfix)
	case "MAX":
		return fmt.Sprintf("%s finding the maximum value of %s\n", prefix, postfix)
	case "MEDIAN":
		return fmt.Sprintf("%s finding the median value of %s\n", prefix, postfix)
	case "STDEV":
		return fmt.Sprintf("%s computing the standard deviation of %s\n", prefix, postfix)
	case "VARIANCE":
		return fmt.Sprintf("%s computing the variance of %s\n", prefix, postfix)
	}
	if op.FunctionArg.IsNull() {
		arg = ""
	}
	return fmt.Sprintf("%s executing the %s(%s) function on %s\n", prefix, op.Function, arg, postfix)
}
