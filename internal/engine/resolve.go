// Package engine executes operation plans over in-memory datasets.
//
// Operations receive the dataset plus the normalized column names current at
// that point in the plan, and return a transformed dataset, a narration line,
// any new column names, and warnings. A fatal problem aborts the whole run
// with a single descriptive error; there are no partial results.
package engine

import (
	"strings"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/value"
)

// ColToIndex resolves a plan-provided column name against the normalized
// column list. The last match wins so columns appended later in the plan
// shadow originals. A dotted name that does not match whole falls back to its
// first segment for subproperty access.
func ColToIndex(column string, normalizedColumns []string) int {
	if exact := lastIndexOf(normalizedColumns, coerce.NormalizeString(column)); exact != -1 {
		return exact
	}
	if !strings.Contains(column, ".") {
		return -1
	}
	head := strings.SplitN(column, ".", 2)[0]
	return lastIndexOf(normalizedColumns, coerce.NormalizeString(head))
}

func lastIndexOf(haystack []string, needle string) int {
	for i := len(haystack) - 1; i >= 0; i-- {
		if haystack[i] == needle {
			return i
		}
	}
	return -1
}

// SubpropertyChain returns the dotted-path segments after the column name, or
// nil when the full dotted name is itself a column.
func SubpropertyChain(column string, normalizedColumns []string) []string {
	if !strings.Contains(column, ".") {
		return nil
	}
	if lastIndexOf(normalizedColumns, coerce.NormalizeString(column)) != -1 {
		return nil
	}
	return strings.Split(column, ".")[1:]
}

func followPath(v value.Value, path []string) value.Value {
	for _, prop := range path {
		v = v.Field(prop)
	}
	return v
}

// AccessCellPath reads a cell, descending into object subproperties. Array
// cells map the path over each element.
func AccessCellPath(row value.Row, index int, path []string) value.Value {
	if index < 0 || index >= len(row) {
		return value.Null()
	}
	v := row[index]
	if len(path) == 0 {
		return v
	}
	if v.IsNull() {
		return v
	}
	if arr, ok := v.AsArray(); ok {
		mapped := make([]value.Value, len(arr))
		for i, item := range arr {
			mapped[i] = followPath(item, path)
		}
		return value.Array(mapped)
	}
	if _, ok := v.AsObject(); ok {
		return followPath(v, path)
	}
	return value.Null()
}

// AccessCell reads a cell by its resolved index, applying dotted subproperty
// access from the plan-provided column name when needed.
func AccessCell(row value.Row, index int, col string) value.Value {
	if index < 0 || index >= len(row) {
		return value.Null()
	}
	v := row[index]
	if !strings.Contains(col, ".") || v.IsNull() {
		return v
	}
	_, isObj := v.AsObject()
	_, isArr := v.AsArray()
	if !isObj && !isArr {
		return v
	}
	return AccessCellPath(row, index, strings.Split(col, ".")[1:])
}
