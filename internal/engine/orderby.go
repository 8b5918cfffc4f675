package engine

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var reDigitsOnly = regexp.MustCompile(`^\d+$`)

type sortKeyKind uint8

const (
	sortKeyNull sortKeyKind = iota
	sortKeyNumber
	sortKeyDate
	sortKeyString
)

// sortKey is a pre-converted comparison key. Expensive conversions, notably
// string to date, happen once per row instead of once per comparison.
type sortKey struct {
	kind sortKeyKind
	num  float64
	date time.Time
	str  string
}

func (e *Engine) orderByOp(ds value.Dataset, normCols []string, op *plan.OrderByOp) (*opResult, error) {
	ascending := op.Direction != "DESC"
	colIndex := ColToIndex(op.Column, normCols)
	if colIndex == -1 {
		return nil, errors.NewColumnNotFoundError("orderBy", op.Column)
	}

	keys := make([]sortKey, len(ds))
	for i, row := range ds {
		keys[i] = makeSortKey(AccessCell(row, colIndex, op.Column), op.SortType, op.DateFormat)
	}

	indices := make([]int, len(ds))
	for i := range indices {
		indices[i] = i
	}

	// Case-insensitive comparison close to Unicode base-letter sensitivity.
	collator := collate.New(language.Und, collate.Loose)

	sort.SliceStable(indices, func(x, y int) bool {
		return compareSortKeys(keys[indices[x]], keys[indices[y]], op.SortType, ascending, collator) < 0
	})

	out := make(value.Dataset, len(ds))
	for i, idx := range indices {
		out[i] = ds[idx]
	}

	dirText := "ascending"
	if !ascending {
		dirText = "descending"
	}
	return &opResult{
		dataset: out,
		enOp:    fmt.Sprintf("- sort rows by %q %s\n", op.Column, dirText),
	}, nil
}

func makeSortKey(v value.Value, sortType, dateFormat string) sortKey {
	if v.IsNull() {
		return sortKey{kind: sortKeyNull}
	}
	switch sortType {
	case "numeric":
		if n, ok := coerce.StringToNumber(v); ok {
			return sortKey{kind: sortKeyNumber, num: n}
		}
		return sortKey{kind: sortKeyNull}
	case "date":
		if t, ok := coerce.StringToDate(v, coerce.FixTokens(dateFormat)); ok {
			return sortKey{kind: sortKeyDate, date: t}
		}
		// Bare numbers fall back to numeric ordering, which covers unix
		// timestamps and spreadsheet day serials alike.
		if n, ok := v.AsNumber(); ok {
			return sortKey{kind: sortKeyNumber, num: n}
		}
		if s, ok := v.AsString(); ok && reDigitsOnly.MatchString(s) {
			if n, ok := coerce.ParseNumber(s); ok {
				return sortKey{kind: sortKeyNumber, num: n}
			}
		}
		return sortKey{kind: sortKeyNull}
	default:
		return sortKey{kind: sortKeyString, str: coerce.NormalizeString(v.Display())}
	}
}

// compareSortKeys orders two keys. Nulls always sort last regardless of
// direction; every other comparison flips with ascending.
func compareSortKeys(a, b sortKey, sortType string, ascending bool, collator *collate.Collator) int {
	if a.kind == sortKeyNull && b.kind == sortKeyNull {
		return 0
	}
	if a.kind == sortKeyNull {
		return 1
	}
	if b.kind == sortKeyNull {
		return -1
	}

	// Mixed date and number: a parseable date sorts ahead of a bare numeric
	// fallback, regardless of direction.
	if sortType == "date" && a.kind != b.kind {
		if a.kind == sortKeyDate {
			return -1
		}
		return 1
	}

	if !ascending {
		a, b = b, a
	}

	switch sortType {
	case "numeric":
		return compareFloats(a.num, b.num)
	case "date":
		if a.kind == sortKeyNumber {
			return compareFloats(a.num, b.num)
		}
		return a.date.Compare(b.date)
	default:
		return collator.CompareString(a.str, b.str)
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
