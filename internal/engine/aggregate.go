package engine

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
	"golang.org/x/exp/constraints"
)

// SupportedAggregationFunctions lists the aggregate functions available to
// groupBy and select.
var SupportedAggregationFunctions = []string{
	"COUNT", "COUNT_DISTINCT", "AVG", "MIN", "MAX", "SUM",
	"MEDIAN", "STDEV", "VARIANCE", "RANGE", "FIRST", "LAST",
}

func friendlyFunctionText(f string) string {
	switch f {
	case "COUNT":
		return "counting the number"
	case "COUNT_DISTINCT":
		return "counting the number of distinct"
	case "AVG":
		return "computing the average"
	case "MIN":
		return "finding the minimum"
	case "MAX":
		return "finding the maximum"
	case "SUM":
		return "computing the sum"
	case "MEDIAN":
		return "finding the median"
	case "STDEV":
		return "computing the standard deviation"
	case "VARIANCE":
		return "computing the variance"
	case "RANGE":
		return "determining the range (the difference between the max and min values)"
	case "FIRST":
		return "taking the first value"
	case "LAST":
		return "taking the last value"
	default:
		return f
	}
}

// validAggregations validates a plan aggregation list: defaults the column to
// '*', checks function support and column existence, and folds a COUNT over
// the sole grouping column into a row count.
func validAggregations(opName string, aggs plan.AggregationList, groupColumns []string, normCols []string) ([]plan.Aggregation, error) {
	out := make([]plan.Aggregation, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Column == "" {
			agg.Column = "*"
		}
		if !slices.Contains(SupportedAggregationFunctions, agg.Function) {
			return nil, errors.NewUnsupportedFunctionError(opName, agg.Function)
		}
		if agg.Column == "*" {
			if agg.Function != "COUNT" {
				return nil, errors.NewValidationError(opName, "",
					"can only perform the COUNT aggregation on all rows (*). Requested: %s", agg.Function)
			}
		} else if ColToIndex(agg.Column, normCols) == -1 {
			return nil, errors.NewValidationError(opName, agg.Column,
				"unable to find specified aggregation column: %s", agg.Column)
		}
		if agg.Function == "COUNT" && len(groupColumns) == 1 && agg.Column == groupColumns[0] {
			agg.Column = "*"
		}
		out = append(out, agg)
	}
	return out, nil
}

// aggregate computes one cell per aggregation over a group of rows.
func aggregate(rows value.Dataset, normCols []string, aggs []plan.Aggregation, e *Engine) value.Row {
	out := make(value.Row, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, aggregateOne(rows, normCols, agg, e))
	}
	return out
}

func aggregateOne(rows value.Dataset, normCols []string, agg plan.Aggregation, e *Engine) value.Value {
	idx := ColToIndex(agg.Column, normCols)
	path := SubpropertyChain(agg.Column, normCols)

	switch agg.Function {
	case "COUNT":
		if agg.Column == "" || agg.Column == "*" {
			return value.Num(float64(len(rows)))
		}
		n := 0
		for _, row := range rows {
			v := AccessCellPath(row, idx, path)
			if !v.IsNull() && v.Display() != "" {
				n++
			}
		}
		return value.Num(float64(n))
	case "COUNT_DISTINCT":
		distinct := make(map[string]struct{})
		for _, row := range rows {
			v := AccessCellPath(row, idx, path)
			if v.IsNull() {
				continue
			}
			if s, ok := v.AsString(); ok && s == "" {
				continue
			}
			distinct[v.Key()] = struct{}{}
		}
		return value.Num(float64(len(distinct)))
	case "FIRST":
		if len(rows) == 0 {
			return value.Null()
		}
		return AccessCellPath(rows[0], idx, path)
	case "LAST":
		if len(rows) == 0 {
			return value.Null()
		}
		return AccessCellPath(rows[len(rows)-1], idx, path)
	}

	// all remaining aggregations are numeric
	nums := make([]float64, 0, len(rows))
	for _, row := range rows {
		if n, ok := coerce.StringToNumber(AccessCellPath(row, idx, path)); ok {
			nums = append(nums, n)
		}
	}

	switch agg.Function {
	case "AVG":
		if len(nums) == 0 {
			return value.Null()
		}
		return value.Num(sum(nums) / float64(len(nums)))
	case "SUM":
		if len(nums) == 0 {
			return value.Null()
		}
		return value.Num(sum(nums))
	case "MIN":
		if len(nums) == 0 {
			return value.Null()
		}
		return value.Num(minOf(nums))
	case "MAX":
		if len(nums) == 0 {
			return value.Null()
		}
		return value.Num(maxOf(nums))
	case "RANGE":
		if len(nums) < 2 {
			return value.Null()
		}
		return value.Num(maxOf(nums) - minOf(nums))
	case "MEDIAN":
		if len(nums) == 0 {
			return value.Null()
		}
		return value.Num(median(nums))
	case "STDEV", "VARIANCE":
		if len(nums) == 0 {
			return value.Null()
		}
		if len(nums) == 1 {
			return value.Num(0)
		}
		denom := float64(len(nums))
		if agg.Function == "STDEV" {
			denom--
		}
		mean := sum(nums) / float64(len(nums))
		var ss float64
		for _, n := range nums {
			ss += (n - mean) * (n - mean)
		}
		return value.Num(math.Sqrt(ss / denom))
	default:
		e.logger.Error("unknown aggregation function", "fx", agg.Function)
		return value.Str("")
	}
}

func sum(nums []float64) float64 {
	var total float64
	for _, n := range nums {
		total += n
	}
	return total
}

func minOf[T constraints.Ordered](nums []T) T {
	smallest := nums[0]
	for _, n := range nums[1:] {
		if n < smallest {
			smallest = n
		}
	}
	return smallest
}

func maxOf[T constraints.Ordered](nums []T) T {
	largest := nums[0]
	for _, n := range nums[1:] {
		if n > largest {
			largest = n
		}
	}
	return largest
}

func median(nums []float64) float64 {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// aggregationName returns the output column name for an aggregation,
// generating FN(column) when the plan omits one.
func aggregationName(a plan.Aggregation) string {
	if a.As != "" {
		return a.As
	}
	col := a.Column
	if col == "" {
		col = "*"
	}
	return fmt.Sprintf("%s(%s)", a.Function, col)
}
