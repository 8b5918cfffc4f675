package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

// comparable is one pre-resolved leaf comparison: column index bound, literal
// kept raw for per-row parsing against the right dataType.
type boundComparison struct {
	plan.Comparison
	colIndex          int
	compareToColIndex int // -1 when comparing to a literal
}

type boundCondition struct {
	and []*boundCondition
	or  []*boundCondition
	cmp *boundComparison
}

// parsedOperand is a comparison operand coerced per the comparison dataType.
type parsedOperand struct {
	kind  operandKind
	str   string
	num   float64
	date  time.Time
	items []parsedOperand // array cells
}

type operandKind uint8

const (
	operandInvalid operandKind = iota
	operandString
	operandNumber
	operandDate
	operandArray
)

func (e *Engine) filterOp(ds value.Dataset, normCols []string, op *plan.FilterOp) (*opResult, error) {
	if op.Condition == nil {
		return nil, errors.NewValidationError("filter", "",
			"unable to parse provided filter condition due to lacking top level condition key")
	}

	problems := e.validateCondition(op.Condition, normCols)
	if len(problems) > 0 {
		return nil, errors.NewValidationError("filter", "",
			"unable to parse provided filter condition:\n%s", strings.Join(problems, "\n"))
	}

	bound := bindCondition(op.Condition, normCols)

	filtered := make(value.Dataset, 0, len(ds))
	for _, row := range ds {
		if e.rowSatisfies(bound, row) {
			filtered = append(filtered, row)
		}
	}

	return &opResult{
		dataset: filtered,
		enOp: fmt.Sprintf("- filter rows to those that satisfy the following conditions:\n%s\n",
			conditionFriendlyString(bound, 1)),
	}, nil
}

func (e *Engine) validateCondition(c *plan.Condition, normCols []string) []string {
	if len(c.And) > 0 {
		var out []string
		for _, child := range c.And {
			out = append(out, e.validateCondition(child, normCols)...)
		}
		return out
	}
	if len(c.Or) > 0 {
		var out []string
		for _, child := range c.Or {
			out = append(out, e.validateCondition(child, normCols)...)
		}
		return out
	}
	if c.Comparison == nil {
		return []string{"empty filter condition node"}
	}
	if msg := e.validateComparison(c.Comparison, normCols); msg != "" {
		return []string{msg}
	}
	return nil
}

func isNullOperator(op string) bool { return op == "isNull" || op == "isNotNull" }

func (e *Engine) validateComparison(cmp *plan.Comparison, normCols []string) string {
	if ColToIndex(cmp.Column, normCols) == -1 {
		return fmt.Sprintf("unable to find specified filter condition column: %q", cmp.Column)
	}
	if !slices.Contains(plan.SupportedComparisonOperators, cmp.Operator) {
		return fmt.Sprintf("unsupported filter operator: %s", cmp.Operator)
	}
	if !isNullOperator(cmp.Operator) && (!cmp.CompareToSet || cmp.CompareTo.IsNull()) {
		return fmt.Sprintf("missing required comparison value for filter operation on: %q", cmp.Column)
	}

	s, isStr := cmp.CompareTo.AsString()
	ordering := cmp.Operator == ">" || cmp.Operator == "<" || cmp.Operator == ">=" || cmp.Operator == "<="
	if !isStr || !ordering {
		return ""
	}

	// A string literal under an ordering operator must be a column reference
	// or parseable as the expected type.
	if ColToIndex(s, normCols) != -1 {
		return ""
	}
	format := cmp.CompareToDateFormat
	if format == "" {
		format = cmp.ColumnDateFormat
	}
	switch cmp.DataType {
	case "string":
		return ""
	case "number":
		if _, ok := coerce.ParseNumber(s); ok {
			return ""
		}
		return fmt.Sprintf("unable to parse number %q for filtering on column %q", s, cmp.Column)
	case "date":
		if _, ok := coerce.ParseDate(s, format); ok {
			return ""
		}
		return fmt.Sprintf("unable to parse date %q for filtering on column %q. Try specifying a compareToDateFormat.", s, cmp.Column)
	case "":
		if cmp.ColumnDateFormat != "" || cmp.CompareToDateFormat != "" {
			if _, ok := coerce.ParseDate(s, format); ok {
				return ""
			}
			return fmt.Sprintf("unable to parse date %q for filtering on column %q. Try specifying a dataType.", s, cmp.Column)
		}
		if _, ok := coerce.ParseNumber(s); ok {
			return ""
		}
		return fmt.Sprintf("unable to parse number %q for filtering on column %q. Try specifying a dataType.", s, cmp.Column)
	default:
		e.logger.Error("invalid comparison", "column", cmp.Column, "dataType", cmp.DataType)
		return fmt.Sprintf("unable to parse comparison value %q for filtering on column %q", s, cmp.Column)
	}
}

func bindCondition(c *plan.Condition, normCols []string) *boundCondition {
	if len(c.And) > 0 {
		out := &boundCondition{and: make([]*boundCondition, len(c.And))}
		for i, child := range c.And {
			out.and[i] = bindCondition(child, normCols)
		}
		return out
	}
	if len(c.Or) > 0 {
		out := &boundCondition{or: make([]*boundCondition, len(c.Or))}
		for i, child := range c.Or {
			out.or[i] = bindCondition(child, normCols)
		}
		return out
	}

	cmp := &boundComparison{
		Comparison:        *c.Comparison,
		colIndex:          ColToIndex(c.Comparison.Column, normCols),
		compareToColIndex: -1,
	}

	if _, isNum := cmp.CompareTo.AsNumber(); isNum && cmp.DataType == "" {
		cmp.DataType = "number"
	} else if !isNullOperator(cmp.Operator) {
		if cmp.DataType == "" {
			switch {
			case cmp.ColumnDateFormat != "" || cmp.CompareToDateFormat != "":
				cmp.DataType = "date"
			case cmp.Operator == ">" || cmp.Operator == "<" || cmp.Operator == ">=" || cmp.Operator == "<=":
				cmp.DataType = "number"
			case slices.Contains(plan.StringOperators, cmp.Operator):
				cmp.DataType = "string"
			}
		}
		if s, ok := cmp.CompareTo.AsString(); ok {
			if idx := ColToIndex(s, normCols); idx != -1 {
				cmp.compareToColIndex = idx
			}
		}
	}

	return &boundCondition{cmp: cmp}
}

func (e *Engine) rowSatisfies(c *boundCondition, row value.Row) bool {
	if c.and != nil {
		for _, child := range c.and {
			if !e.rowSatisfies(child, row) {
				return false
			}
		}
		return true
	}
	if c.or != nil {
		for _, child := range c.or {
			if e.rowSatisfies(child, row) {
				return true
			}
		}
		return false
	}

	cmp := c.cmp
	cell := AccessCell(row, cmp.colIndex, cmp.Column)

	if isNullOperator(cmp.Operator) {
		isNullish := cellIsNullish(cell, cmp.DataType)
		result := isNullish
		if cmp.Operator == "isNotNull" {
			result = !isNullish
		}
		if cmp.Not {
			return !result
		}
		return result
	}
	// a null cell never satisfies any remaining operator
	if cell.IsNull() {
		return false
	}

	format := cmp.ColumnDateFormat
	if format == "" {
		format = cmp.CompareToDateFormat
	}
	parsedCell := parseOperand(cell, cmp.Operator, cmp.DataType, format)
	if parsedCell.kind == operandInvalid {
		return false
	}

	valueFormat := cmp.CompareToDateFormat
	if valueFormat == "" {
		valueFormat = cmp.ColumnDateFormat
	}
	var parsedValue parsedOperand
	if cmp.compareToColIndex != -1 {
		s, _ := cmp.CompareTo.AsString()
		parsedValue = parseOperand(AccessCell(row, cmp.compareToColIndex, s), cmp.Operator, cmp.DataType, valueFormat)
	} else {
		parsedValue = parseOperand(cmp.CompareTo, cmp.Operator, cmp.DataType, valueFormat)
	}

	if parsedValue.kind == operandInvalid {
		if cmp.compareToColIndex == -1 && (cmp.DataType == "date" || cmp.DataType == "number") {
			// An unparseable plan literal at evaluation time passes the row
			// rather than silently dropping data.
			e.logger.Error("provided value was not able to be parsed to its expected type", "dataType", cmp.DataType)
			return true
		}
		return false
	}

	result := evalComparison(parsedCell, parsedValue, cmp, e)
	if cmp.Not {
		return !result
	}
	return result
}

// cellIsNullish implements the null test: null, empty array, blank string, or
// a digitless string on a numeric column.
func cellIsNullish(cell value.Value, dataType string) bool {
	if cell.IsNull() {
		return true
	}
	if arr, ok := cell.AsArray(); ok && len(arr) == 0 {
		return true
	}
	if s, ok := cell.AsString(); ok {
		if strings.TrimSpace(s) == "" {
			return true
		}
		if dataType == "number" && !strings.ContainsAny(s, "0123456789") {
			return true
		}
	}
	return false
}

func parseOperand(v value.Value, operator, dataType, dateFormat string) parsedOperand {
	if arr, ok := v.AsArray(); ok {
		out := parsedOperand{kind: operandArray, items: make([]parsedOperand, len(arr))}
		for i, item := range arr {
			out.items[i] = parseScalarOperand(item, operator, dataType, dateFormat)
		}
		return out
	}
	return parseScalarOperand(v, operator, dataType, dateFormat)
}

func parseScalarOperand(v value.Value, operator, dataType, dateFormat string) parsedOperand {
	if slices.Contains(plan.StringOperators, operator) {
		return parsedOperand{kind: operandString, str: coerce.NormalizeString(v.Display())}
	}
	switch dataType {
	case "number":
		if n, ok := coerce.StringToNumber(v); ok {
			return parsedOperand{kind: operandNumber, num: n}
		}
		return parsedOperand{kind: operandInvalid}
	case "date":
		if t, ok := coerce.StringToDate(v, dateFormat); ok {
			return parsedOperand{kind: operandDate, date: t}
		}
		return parsedOperand{kind: operandInvalid}
	default:
		return parsedOperand{kind: operandString, str: coerce.NormalizeString(v.Display())}
	}
}

func evalComparison(cell, val parsedOperand, cmp *boundComparison, e *Engine) bool {
	if cell.kind == operandArray {
		switch cmp.Operator {
		case "==":
			if val.kind == operandString && val.str == "[]" {
				return len(cell.items) == 0
			}
			return slices.ContainsFunc(cell.items, func(item parsedOperand) bool {
				return scalarEqual(item, val)
			})
		case "!=":
			if val.kind == operandString && val.str == "[]" {
				return len(cell.items) != 0
			}
			return !slices.ContainsFunc(cell.items, func(item parsedOperand) bool {
				return scalarEqual(item, val)
			})
		case "contains":
			return slices.ContainsFunc(cell.items, func(item parsedOperand) bool {
				return strings.Contains(item.str, val.str)
			})
		case "startsWith":
			return slices.ContainsFunc(cell.items, func(item parsedOperand) bool {
				return strings.HasPrefix(item.str, val.str)
			})
		case "endsWith":
			return slices.ContainsFunc(cell.items, func(item parsedOperand) bool {
				return strings.HasSuffix(item.str, val.str)
			})
		default:
			e.logger.Error("unsupported array filter operator", "operator", cmp.Operator)
			return true
		}
	}

	switch cmp.Operator {
	case "==":
		return scalarEqual(cell, val)
	case "!=":
		return !scalarEqual(cell, val)
	case ">":
		return scalarLess(val, cell)
	case ">=":
		return !scalarLess(cell, val)
	case "<":
		return scalarLess(cell, val)
	case "<=":
		return !scalarLess(val, cell)
	case "contains":
		return strings.Contains(cell.str, val.str)
	case "startsWith":
		return strings.HasPrefix(cell.str, val.str)
	case "endsWith":
		return strings.HasSuffix(cell.str, val.str)
	default:
		e.logger.Error("unknown filter operator", "operator", cmp.Operator)
		return true
	}
}

func scalarEqual(a, b parsedOperand) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case operandNumber:
		return a.num == b.num
	case operandDate:
		return a.date.Equal(b.date)
	default:
		return a.str == b.str
	}
}

func scalarLess(a, b parsedOperand) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case operandNumber:
		return a.num < b.num
	case operandDate:
		return a.date.Before(b.date)
	default:
		return a.str < b.str
	}
}

func conditionFriendlyString(c *boundCondition, depth int) string {
	indent := strings.Repeat(" ", depth*2)
	if c.and != nil {
		parts := make([]string, len(c.and))
		for i, child := range c.and {
			parts[i] = conditionFriendlyString(child, depth+1)
		}
		return fmt.Sprintf("%s- matches all of:\n%s", indent, strings.Join(parts, "\n"))
	}
	if c.or != nil {
		parts := make([]string, len(c.or))
		for i, child := range c.or {
			parts[i] = conditionFriendlyString(child, depth+1)
		}
		return fmt.Sprintf("%s- matches any of:\n%s", indent, strings.Join(parts, "\n"))
	}

	cmp := c.cmp
	notText := ""
	if cmp.Not {
		notText = "not "
	}
	switch cmp.Operator {
	case "isNull":
		return fmt.Sprintf("%s- %q is %snull", indent, cmp.Column, notText)
	case "isNotNull":
		if cmp.Not {
			return fmt.Sprintf("%s- %q is null", indent, cmp.Column)
		}
		return fmt.Sprintf("%s- %q is not null", indent, cmp.Column)
	}
	if cmp.compareToColIndex != -1 {
		return fmt.Sprintf("%s- %q %s%s the %q column", indent, cmp.Column, notText, cmp.Operator, cmp.CompareTo.Display())
	}
	return fmt.Sprintf("%s- %q %s%s %s", indent, cmp.Column, notText, cmp.Operator, cmp.CompareTo.Display())
}
