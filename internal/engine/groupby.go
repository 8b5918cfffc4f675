package engine

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

// keySep joins group key fragments. It is unlikely to appear in data, and a
// collision only merges groups rather than corrupting rows.
const keySep = "§"

// rowGroup is one group of rows in first-seen order.
type rowGroup struct {
	key  string
	rows value.Dataset
}

// groupTable buckets rows by key while preserving insertion order. Keys hash
// through xxhash; full-key chains resolve collisions.
type groupTable struct {
	buckets map[uint64][]*rowGroup
	ordered []*rowGroup
}

func newGroupTable() *groupTable {
	return &groupTable{buckets: make(map[uint64][]*rowGroup)}
}

func (t *groupTable) add(key string, row value.Row) {
	h := xxhash.Sum64String(key)
	for _, g := range t.buckets[h] {
		if g.key == key {
			g.rows = append(g.rows, row)
			return
		}
	}
	g := &rowGroup{key: key, rows: value.Dataset{row}}
	t.buckets[h] = append(t.buckets[h], g)
	t.ordered = append(t.ordered, g)
}

// keyColumn is one resolved grouping column. Duplicate plan columns that
// resolve to the same index merge, accumulating their subproperty paths.
type keyColumn struct {
	index    int
	subprops [][]string
}

func (e *Engine) groupByOp(ds value.Dataset, normCols []string, op *plan.GroupByOp) (*opResult, error) {
	singular := len(op.Columns) == 0 || (len(op.Columns) == 1 && op.Columns[0] == "*")

	var keyCols []*keyColumn
	if !singular {
		seen := make(map[int]*keyColumn)
		var missing []string
		for _, col := range uniqueStrings(op.Columns) {
			idx := ColToIndex(col, normCols)
			if idx == -1 {
				missing = append(missing, fmt.Sprintf("%q", col))
				continue
			}
			if kc, ok := seen[idx]; ok {
				kc.subprops = append(kc.subprops, SubpropertyChain(col, normCols))
				continue
			}
			kc := &keyColumn{index: idx}
			if strings.Contains(col, ".") {
				kc.subprops = append(kc.subprops, SubpropertyChain(col, normCols))
			}
			seen[idx] = kc
			keyCols = append(keyCols, kc)
		}
		if len(missing) > 0 {
			return nil, errors.NewValidationError("groupBy", "",
				"unable to find specified group by columns: %s", strings.Join(missing, ", "))
		}
	}

	table := newGroupTable()
	for _, row := range ds {
		if singular {
			table.add("*", row)
			continue
		}
		for _, key := range rowGroupKeys(row, keyCols) {
			table.add(key, row)
		}
	}

	aggs, err := validAggregations("groupBy", op.Aggregations, op.Columns, normCols)
	if err != nil {
		return nil, err
	}
	if singular && len(aggs) == 0 {
		return nil, errors.NewValidationError("groupBy", "",
			"invalid attempt to aggregate all rows without any aggregation functions")
	}

	var enOp strings.Builder
	if singular {
		enOp.WriteString("- group all rows together\n")
	} else {
		quoted := make([]string, len(op.Columns))
		for i, c := range op.Columns {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		fmt.Fprintf(&enOp, "- group rows by %s\n", strings.Join(quoted, " and "))
	}
	for i, a := range aggs {
		if i > 0 {
			enOp.WriteString("\n")
		}
		target := fmt.Sprintf("%q", a.Column)
		if a.Column == "*" {
			target = "rows"
		}
		fmt.Fprintf(&enOp, "- aggregate grouped rows by %s of %s as %q", friendlyFunctionText(a.Function), target, a.As)
	}
	enOp.WriteString("\n")

	newColumns := make([]string, 0, len(keyCols)+len(aggs))
	if !singular {
		for _, c := range op.Columns {
			if ColToIndex(c, normCols) != -1 {
				newColumns = append(newColumns, c)
			}
		}
	}
	for _, a := range aggs {
		newColumns = append(newColumns, aggregationName(a))
	}

	out := make(value.Dataset, 0, len(table.ordered))
	for _, g := range table.ordered {
		var row value.Row
		if !singular {
			fragments := strings.Split(strings.TrimPrefix(g.key, keySep), keySep)
			for i := range op.Columns {
				if i < len(fragments) && fragments[i] != "" {
					row = append(row, value.Str(fragments[i]))
				} else {
					row = append(row, value.Null())
				}
			}
		}
		row = append(row, aggregate(g.rows, normCols, aggs, e)...)
		out = append(out, row)
	}

	return &opResult{
		dataset:        out,
		enOp:           enOp.String(),
		newColumns:     newColumns,
		replaceColumns: true,
	}, nil
}

// rowGroupKeys builds the set of group keys a row belongs to. Array-valued
// key cells expand the key set cartesian-style, so a row can appear in more
// than one group; an empty array contributes a null fragment.
func rowGroupKeys(row value.Row, keyCols []*keyColumn) []string {
	keys := []string{""}
	for _, kc := range keyCols {
		cell := value.Null()
		if kc.index >= 0 && kc.index < len(row) {
			cell = row[kc.index]
		}
		if arr, ok := cell.AsArray(); ok {
			switch {
			case len(arr) == 0:
				// An empty array joins the null group rather than leaving the
				// row out of every group.
				pad := ""
				if len(kc.subprops) > 1 {
					pad = strings.Repeat(keySep, len(kc.subprops)-1)
				}
				for i, k := range keys {
					keys[i] = k + keySep + pad
				}
			case len(kc.subprops) == 0:
				expanded := make([]string, 0, len(keys)*len(arr))
				for _, k := range keys {
					for _, v := range arr {
						expanded = append(expanded, k+keySep+groupFragment(v))
					}
				}
				keys = expanded
			default:
				expanded := make([]string, 0, len(keys)*len(arr))
				for _, k := range keys {
					for _, item := range arr {
						parts := make([]string, len(kc.subprops))
						for i, path := range kc.subprops {
							parts[i] = groupFragment(followPath(item, path))
						}
						expanded = append(expanded, k+keySep+strings.Join(parts, keySep))
					}
				}
				keys = expanded
			}
			continue
		}
		if len(kc.subprops) > 0 {
			parts := make([]string, len(kc.subprops))
			for i, path := range kc.subprops {
				parts[i] = groupFragment(AccessCellPath(row, kc.index, path))
			}
			for i, k := range keys {
				keys[i] = k + keySep + strings.Join(parts, keySep)
			}
			continue
		}
		for i, k := range keys {
			keys[i] = k + keySep + groupFragment(cell)
		}
	}
	return uniqueStrings(keys)
}

func groupFragment(v value.Value) string {
	if _, ok := v.AsObject(); ok {
		return v.Key()
	}
	return v.Display()
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
